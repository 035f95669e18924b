package toolcall

import "toolwire/internal/runner"

// commandResult is the end-of-tool payload before the identifying
// metadata is attached.
type commandResult struct {
	stdout     string
	stderr     string
	aggregated string
	exitCode   int
	durationMs int64
	formatted  string
}

func resultFromOutput(out *runner.Output) commandResult {
	return commandResult{
		stdout:     out.Stdout,
		stderr:     out.Stderr,
		aggregated: out.Aggregated,
		exitCode:   out.ExitCode,
		durationMs: out.Duration.Milliseconds(),
		formatted:  runner.FormatOutput(out),
	}
}

// resultFromMessage synthesizes a payload for failures where no
// process ran: exit code −1 and zero duration signal exactly that, and
// the message stands in for every output field.
func resultFromMessage(message string) commandResult {
	return commandResult{
		stderr:     message,
		aggregated: message,
		exitCode:   -1,
		formatted:  message,
	}
}
