package runner

import "fmt"

// TimeoutError reports a command killed by the sandbox deadline. The
// partial output collected before the kill is retained.
type TimeoutError struct {
	Output *Output
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command timed out after %s", e.Output.Duration)
}

// DeniedError reports a command stopped by the sandbox mid-run. Output
// produced before the denial is retained.
type DeniedError struct {
	Output *Output
	Reason string
}

func (e *DeniedError) Error() string {
	return "sandbox denied command: " + e.Reason
}

// RejectedError reports an invocation refused before any process ran,
// for example by a user-approval gate.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return e.Message
}
