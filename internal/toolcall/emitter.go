package toolcall

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"toolwire/internal/parse"
	"toolwire/internal/protocol"
)

type toolKind int

const (
	kindShell toolKind = iota
	kindApplyPatch
	kindUnifiedExec
)

// Emitter is an immutable description of one in-flight tool
// invocation. All metadata is captured at construction, so the begin
// and end events of a call can never disagree about what ran.
type Emitter struct {
	kind toolKind

	// Shell and UnifiedExec.
	command   []string
	cwd       string
	source    protocol.CommandSource
	parsedCmd []protocol.ParsedCommand

	// UnifiedExec only.
	interactionInput string

	// ApplyPatch only.
	changes      map[string]protocol.FileChange
	autoApproved bool
}

// Shell describes a one-shot command invocation. The command is parsed
// into display tokens exactly once, here.
func Shell(command []string, cwd string, source protocol.CommandSource) Emitter {
	return Emitter{
		kind:      kindShell,
		command:   slices.Clone(command),
		cwd:       cwd,
		source:    source,
		parsedCmd: parse.Command(command),
	}
}

// ApplyPatch describes a file-patching invocation.
func ApplyPatch(changes map[string]protocol.FileChange, autoApproved bool) Emitter {
	return Emitter{
		kind:         kindApplyPatch,
		changes:      maps.Clone(changes),
		autoApproved: autoApproved,
	}
}

// UnifiedExec describes a command run inside a persistent interactive
// session, optionally with input fed to the running process.
func UnifiedExec(command []string, cwd string, source protocol.CommandSource, interactionInput string) Emitter {
	return Emitter{
		kind:             kindUnifiedExec,
		command:          slices.Clone(command),
		cwd:              cwd,
		source:           source,
		parsedCmd:        parse.Command(command),
		interactionInput: interactionInput,
	}
}

// Begin emits the invocation's begin event.
func (e Emitter) Begin(ctx context.Context, ec EventCtx) {
	e.Emit(ctx, ec, StageBegin())
}

// Emit sends the event for one lifecycle stage. The dispatch is total
// over tool kind and stage shape: every combination produces exactly
// one primary event, and an unknown kind is a programming error worth
// crashing over.
func (e Emitter) Emit(ctx context.Context, ec EventCtx, stage Stage) {
	switch e.kind {
	case kindShell, kindUnifiedExec:
		e.emitCommand(ctx, ec, stage)
	case kindApplyPatch:
		e.emitPatch(ctx, ec, stage)
	default:
		panic(fmt.Sprintf("toolcall: unhandled tool kind %d", e.kind))
	}
}

func (e Emitter) emitCommand(ctx context.Context, ec EventCtx, stage Stage) {
	switch stage.kind {
	case stageBegin:
		ec.Session.SendEvent(ctx, ec.Turn, protocol.CommandBegin, protocol.CommandBeginPayload{
			CallID:           ec.CallID,
			TurnID:           ec.turnID(),
			Command:          e.command,
			Cwd:              e.cwd,
			ParsedCmd:        e.parsedCmd,
			Source:           e.source,
			InteractionInput: e.interactionInput,
		})
	case stageSuccess, stageFailureOutput:
		e.sendCommandEnd(ctx, ec, resultFromOutput(stage.output))
	case stageFailureMessage:
		e.sendCommandEnd(ctx, ec, resultFromMessage(stage.message))
	default:
		panic(fmt.Sprintf("toolcall: unhandled stage %d", stage.kind))
	}
}

func (e Emitter) sendCommandEnd(ctx context.Context, ec EventCtx, result commandResult) {
	ec.Session.SendEvent(ctx, ec.Turn, protocol.CommandEnd, protocol.CommandEndPayload{
		CallID:           ec.CallID,
		TurnID:           ec.turnID(),
		Command:          e.command,
		Cwd:              e.cwd,
		ParsedCmd:        e.parsedCmd,
		Source:           e.source,
		InteractionInput: e.interactionInput,
		Stdout:           result.stdout,
		Stderr:           result.stderr,
		AggregatedOutput: result.aggregated,
		ExitCode:         result.exitCode,
		DurationMs:       result.durationMs,
		FormattedOutput:  result.formatted,
	})
}

func (e Emitter) emitPatch(ctx context.Context, ec EventCtx, stage Stage) {
	switch stage.kind {
	case stageBegin:
		// Snapshot pre-images before anything is announced, so the
		// tracker's baseline predates the patch.
		if ec.DiffTracker != nil {
			ec.DiffTracker.OnPatchBegin(e.changes)
		}
		ec.Session.SendEvent(ctx, ec.Turn, protocol.PatchBegin, protocol.PatchBeginPayload{
			CallID:       ec.CallID,
			AutoApproved: e.autoApproved,
			Changes:      e.changes,
		})
	case stageSuccess, stageFailureOutput:
		e.sendPatchEnd(ctx, ec, stage.output.Stdout, stage.output.Stderr, stage.output.ExitCode == 0)
	case stageFailureMessage:
		e.sendPatchEnd(ctx, ec, "", stage.message, false)
	default:
		panic(fmt.Sprintf("toolcall: unhandled stage %d", stage.kind))
	}
}

func (e Emitter) sendPatchEnd(ctx context.Context, ec EventCtx, stdout, stderr string, success bool) {
	ec.Session.SendEvent(ctx, ec.Turn, protocol.PatchEnd, protocol.PatchEndPayload{
		CallID:  ec.CallID,
		Stdout:  stdout,
		Stderr:  stderr,
		Success: success,
	})

	if ec.DiffTracker == nil {
		return
	}
	unified, err := ec.DiffTracker.UnifiedDiff()
	if err != nil || unified == "" {
		// A diff we cannot compute never fails the patch-end event
		// already sent; there is simply no turn-diff to report.
		return
	}
	ec.Session.SendEvent(ctx, ec.Turn, protocol.TurnDiff, protocol.TurnDiffPayload{UnifiedDiff: unified})
}
