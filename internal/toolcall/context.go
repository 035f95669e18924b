// Package toolcall narrates tool invocations: it pairs exactly one
// begin event with exactly one end event per call, normalizes raw
// execution outcomes into the text returned to the conversation, and
// keeps the shared turn diff tracker consistent across concurrent
// patch applications.
package toolcall

import (
	"toolwire/internal/protocol"
	"toolwire/internal/session"
)

// DiffTracker is the turn-scoped diff collaborator consulted around
// patch applications. Implementations serialize access internally.
type DiffTracker interface {
	OnPatchBegin(changes map[string]protocol.FileChange)
	UnifiedDiff() (string, error)
}

// EventCtx bundles the borrowed collaborators for one tool invocation.
// It is valid only for the invocation it was built for and must not be
// retained or cached.
type EventCtx struct {
	Session *session.Session
	Turn    *session.Turn
	CallID  string
	// DiffTracker is set only for invocations that may change files.
	DiffTracker DiffTracker
}

func (ec EventCtx) turnID() string {
	if ec.Turn == nil {
		return ""
	}
	return ec.Turn.ID
}
