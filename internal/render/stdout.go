package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"toolwire/internal/protocol"
)

// StdoutRenderer streams events as plain text.
type StdoutRenderer struct {
	w       io.Writer
	mu      sync.Mutex
	verbose bool
}

// NewStdoutRenderer creates a renderer for plain text streaming.
func NewStdoutRenderer(w io.Writer, verbose bool) *StdoutRenderer {
	return &StdoutRenderer{w: w, verbose: verbose}
}

func (r *StdoutRenderer) Emit(event protocol.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case protocol.CommandBegin:
		if payload, ok := event.Payload.(protocol.CommandBeginPayload); ok {
			fmt.Fprintf(r.w, "exec: %s (cwd: %s)\n", strings.Join(payload.Command, " "), payload.Cwd)
		}
	case protocol.CommandEnd:
		if payload, ok := event.Payload.(protocol.CommandEndPayload); ok {
			fmt.Fprintf(r.w, "exec done: exit %d in %dms\n", payload.ExitCode, payload.DurationMs)
			if r.verbose && payload.FormattedOutput != "" {
				fmt.Fprintln(r.w, payload.FormattedOutput)
			}
		}
	case protocol.PatchBegin:
		if payload, ok := event.Payload.(protocol.PatchBeginPayload); ok {
			fmt.Fprintf(r.w, "patch: %d file(s), auto-approved=%v\n", len(payload.Changes), payload.AutoApproved)
		}
	case protocol.PatchEnd:
		if payload, ok := event.Payload.(protocol.PatchEndPayload); ok {
			fmt.Fprintf(r.w, "patch done: success=%v\n", payload.Success)
			if !payload.Success && payload.Stderr != "" {
				fmt.Fprintln(r.w, payload.Stderr)
			}
		}
	case protocol.TurnDiff:
		if payload, ok := event.Payload.(protocol.TurnDiffPayload); ok {
			fmt.Fprintln(r.w, payload.UnifiedDiff)
		}
	}
}

func (r *StdoutRenderer) Close() error { return nil }

// JSONRenderer writes each event as one JSON line.
type JSONRenderer struct {
	w  io.Writer
	mu sync.Mutex
}

// NewJSONRenderer creates a renderer producing JSON lines.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{w: w}
}

func (r *JSONRenderer) Emit(event protocol.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	line, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintln(r.w, string(line))
}

func (r *JSONRenderer) Close() error { return nil }
