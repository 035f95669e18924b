package toolcall

import (
	"context"
	"errors"
	"fmt"

	"toolwire/internal/runner"
)

// ResponseError carries text meant to be surfaced to the model as a
// failed tool response. It is never an internal fault: the invocation
// completed its lifecycle, the tool just did not succeed.
type ResponseError struct {
	Message string
}

func (e *ResponseError) Error() string {
	return e.Message
}

// rejectionRewrites maps known pre-execution rejection texts to the
// stable phrases surfaced in their place. Unlisted texts pass through
// unchanged.
var rejectionRewrites = map[string]string{
	"rejected by user": "exec command rejected by user",
}

func normalizeRejection(message string) string {
	if rewritten, ok := rejectionRewrites[message]; ok {
		return rewritten
	}
	return message
}

// Finish normalizes the raw result of executing the tool. It derives
// the end-of-lifecycle stage and the model-facing text from the same
// data, emits the stage, and only then returns — so what the event
// stream shows and what the model is told can never diverge.
//
// A nil execErr with a nonzero exit code still emits Success carrying
// the real output; the returned ResponseError tells the model the tool
// failed while the UI sees what actually happened.
func (e Emitter) Finish(ctx context.Context, ec EventCtx, out *runner.Output, execErr error) (string, error) {
	var stage Stage
	text := ""
	var retErr error

	var timeoutErr *runner.TimeoutError
	var deniedErr *runner.DeniedError
	var rejectedErr *runner.RejectedError

	switch {
	case execErr == nil:
		content := runner.FormatOutputForModel(out)
		stage = StageSuccess(out)
		if out.ExitCode == 0 {
			text = content
		} else {
			retErr = &ResponseError{Message: content}
		}
	case errors.As(execErr, &timeoutErr):
		stage = StageFailureOutput(timeoutErr.Output)
		retErr = &ResponseError{Message: runner.FormatOutputForModel(timeoutErr.Output)}
	case errors.As(execErr, &deniedErr):
		stage = StageFailureOutput(deniedErr.Output)
		retErr = &ResponseError{Message: runner.FormatOutputForModel(deniedErr.Output)}
	case errors.As(execErr, &rejectedErr):
		message := normalizeRejection(rejectedErr.Message)
		stage = StageFailureMessage(message)
		retErr = &ResponseError{Message: message}
	default:
		message := fmt.Sprintf("execution error: %v", execErr)
		stage = StageFailureMessage(message)
		retErr = &ResponseError{Message: message}
	}

	e.Emit(ctx, ec, stage)
	return text, retErr
}
