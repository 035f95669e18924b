package toolcall

import "toolwire/internal/runner"

type stageKind int

const (
	stageBegin stageKind = iota
	stageSuccess
	stageFailureOutput
	stageFailureMessage
)

// Stage is one step of a tool invocation's lifecycle: Begin, then
// exactly one of Success or Failure. Stages are built through the
// constructors below, so emit only ever sees the four shapes.
type Stage struct {
	kind    stageKind
	output  *runner.Output
	message string
}

// StageBegin marks the start of an invocation.
func StageBegin() Stage {
	return Stage{kind: stageBegin}
}

// StageSuccess closes an invocation whose tool ran to completion,
// whatever its exit code.
func StageSuccess(out *runner.Output) Stage {
	return Stage{kind: stageSuccess, output: out}
}

// StageFailureOutput closes a failed invocation that still produced
// real execution output.
func StageFailureOutput(out *runner.Output) Stage {
	return Stage{kind: stageFailureOutput, output: out}
}

// StageFailureMessage closes a failed invocation where no process ran;
// message is all the information there is.
func StageFailureMessage(message string) Stage {
	return Stage{kind: stageFailureMessage, message: message}
}
