package render

import "toolwire/internal/protocol"

// Renderer emits events to an output target.
type Renderer interface {
	Emit(protocol.Event)
	Close() error
}
