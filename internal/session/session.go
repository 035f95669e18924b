// Package session delivers events from in-flight tool invocations to
// their subscribers. Delivery is an asynchronous hand-off: a slow or
// full subscriber drops events rather than blocking the invocation.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"toolwire/internal/protocol"
)

// Turn identifies one conversational exchange. All events emitted
// within a turn reference its ID.
type Turn struct {
	ID string
}

// Session fans events out to subscribers for the lifetime of a
// conversation. Many concurrent tool invocations may share one
// Session.
type Session struct {
	logger *zap.Logger
	buffer int

	mu          sync.Mutex
	subscribers []chan protocol.Event
	closed      bool
}

// New constructs a Session whose subscriber channels hold buffer
// events each.
func New(logger *zap.Logger, buffer int) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 128
	}
	return &Session{logger: logger, buffer: buffer}
}

// Subscribe registers a new consumer. The returned channel is closed
// when the session closes.
func (s *Session) Subscribe() <-chan protocol.Event {
	ch := make(chan protocol.Event, s.buffer)
	s.mu.Lock()
	if s.closed {
		close(ch)
	} else {
		s.subscribers = append(s.subscribers, ch)
	}
	s.mu.Unlock()
	return ch
}

// SendEvent wraps payload in an envelope stamped now and hands it to
// every subscriber. It never blocks the calling invocation; an event a
// subscriber cannot accept is dropped and logged.
func (s *Session) SendEvent(ctx context.Context, turn *Turn, typ protocol.Type, payload any) {
	event := protocol.Event{Type: typ, Timestamp: time.Now(), Payload: payload}
	turnID := ""
	if turn != nil {
		turnID = turn.ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Debug("event after session close", zap.String("type", string(typ)), zap.String("turn", turnID))
		return
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		case <-ctx.Done():
			return
		default:
			s.logger.Warn("subscriber full, dropping event", zap.String("type", string(typ)), zap.String("turn", turnID))
		}
	}
}

// Close closes all subscriber channels. Further sends are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
}
