package toolcall

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"toolwire/internal/diff"
	"toolwire/internal/protocol"
	"toolwire/internal/runner"
	"toolwire/internal/session"
)

// collect runs fn against a fresh session and returns every event it
// emitted, in order.
func collect(t *testing.T, tracker DiffTracker, fn func(ec EventCtx)) []protocol.Event {
	t.Helper()
	sess := session.New(zap.NewNop(), 32)
	ch := sess.Subscribe()
	ec := EventCtx{
		Session:     sess,
		Turn:        &session.Turn{ID: "turn-1"},
		CallID:      "call-1",
		DiffTracker: tracker,
	}
	fn(ec)
	sess.Close()
	var events []protocol.Event
	for event := range ch {
		events = append(events, event)
	}
	return events
}

func TestShellSuccessExitZero(t *testing.T) {
	out := &runner.Output{Stdout: "hi\n", Aggregated: "hi\n", ExitCode: 0, Duration: 12 * time.Millisecond}
	emitter := Shell([]string{"echo", "hi"}, "/tmp", protocol.SourceAgent)

	var text string
	var err error
	events := collect(t, nil, func(ec EventCtx) {
		emitter.Begin(context.Background(), ec)
		text, err = emitter.Finish(context.Background(), ec, out, nil)
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != runner.FormatOutputForModel(out) {
		t.Fatalf("unexpected model text: %q", text)
	}
	if len(events) != 2 {
		t.Fatalf("expected begin+end, got %d events", len(events))
	}
	begin := events[0].Payload.(protocol.CommandBeginPayload)
	end := events[1].Payload.(protocol.CommandEndPayload)
	if events[0].Type != protocol.CommandBegin || events[1].Type != protocol.CommandEnd {
		t.Fatalf("unexpected event types: %v %v", events[0].Type, events[1].Type)
	}
	if begin.CallID != end.CallID || begin.Cwd != end.Cwd || begin.Source != end.Source {
		t.Fatalf("begin/end metadata drifted: %+v vs %+v", begin, end)
	}
	if strings.Join(begin.Command, " ") != strings.Join(end.Command, " ") {
		t.Fatalf("command drifted between events")
	}
	if end.ExitCode != 0 || end.Stdout != "hi\n" {
		t.Fatalf("unexpected end payload: %+v", end)
	}
}

func TestShellNonZeroExitEmitsSuccessButReturnsError(t *testing.T) {
	out := &runner.Output{Stderr: "bad flag\n", Aggregated: "bad flag\n", ExitCode: 2, Duration: 5 * time.Millisecond}
	emitter := Shell([]string{"ls", "--nope"}, "/tmp", protocol.SourceAgent)

	var err error
	events := collect(t, nil, func(ec EventCtx) {
		emitter.Begin(context.Background(), ec)
		_, err = emitter.Finish(context.Background(), ec, out, nil)
	})

	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("expected ResponseError, got %v", err)
	}
	if !strings.Contains(respErr.Message, "code 2") {
		t.Fatalf("model text missing exit code: %q", respErr.Message)
	}
	end := events[1].Payload.(protocol.CommandEndPayload)
	if end.ExitCode != 2 || end.Stderr != "bad flag\n" {
		t.Fatalf("event must carry the real output: %+v", end)
	}
}

func TestShellTimeoutEmitsFailureWithOutput(t *testing.T) {
	out := &runner.Output{Stdout: "partial\n", Aggregated: "partial\n", ExitCode: -1, Duration: time.Second}
	emitter := Shell([]string{"sleep", "99"}, "/tmp", protocol.SourceAgent)

	var err error
	events := collect(t, nil, func(ec EventCtx) {
		emitter.Begin(context.Background(), ec)
		_, err = emitter.Finish(context.Background(), ec, nil, &runner.TimeoutError{Output: out})
	})

	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("expected ResponseError, got %v", err)
	}
	end := events[1].Payload.(protocol.CommandEndPayload)
	if end.Stdout != "partial\n" || end.AggregatedOutput != "partial\n" {
		t.Fatalf("output fields not preserved verbatim: %+v", end)
	}
}

func TestShellDeniedEmitsFailureWithOutput(t *testing.T) {
	out := &runner.Output{Stderr: "write blocked\n", Aggregated: "write blocked\n", ExitCode: 1, Duration: time.Millisecond}
	emitter := Shell([]string{"touch", "/etc/x"}, "/tmp", protocol.SourceAgent)

	var err error
	events := collect(t, nil, func(ec EventCtx) {
		emitter.Begin(context.Background(), ec)
		_, err = emitter.Finish(context.Background(), ec, nil, &runner.DeniedError{Output: out, Reason: "sandbox policy"})
	})

	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("expected ResponseError, got %v", err)
	}
	end := events[1].Payload.(protocol.CommandEndPayload)
	if end.Stderr != "write blocked\n" || end.ExitCode != 1 {
		t.Fatalf("denial must carry the real output: %+v", end)
	}
}

func TestShellInternalErrorSynthesizesMessagePayload(t *testing.T) {
	emitter := Shell([]string{"true"}, "/tmp", protocol.SourceAgent)

	var err error
	events := collect(t, nil, func(ec EventCtx) {
		emitter.Begin(context.Background(), ec)
		_, err = emitter.Finish(context.Background(), ec, nil, errors.New("spawn failed"))
	})

	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("expected ResponseError, got %v", err)
	}
	want := "execution error: spawn failed"
	if respErr.Message != want {
		t.Fatalf("unexpected diagnostic: %q", respErr.Message)
	}
	end := events[1].Payload.(protocol.CommandEndPayload)
	if end.ExitCode != -1 || end.DurationMs != 0 {
		t.Fatalf("synthetic payload must signal no process ran: %+v", end)
	}
	if end.Stderr != want || end.AggregatedOutput != want || end.FormattedOutput != want {
		t.Fatalf("message not used for all output fields: %+v", end)
	}
	if end.Stdout != "" {
		t.Fatalf("synthetic stdout must be empty: %q", end.Stdout)
	}
}

func TestRejectionNormalization(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"rejected by user", "exec command rejected by user"},
		{"operator vetoed this call", "operator vetoed this call"},
	}
	for _, tc := range cases {
		emitter := Shell([]string{"git", "push"}, "/tmp", protocol.SourceAgent)
		var err error
		events := collect(t, nil, func(ec EventCtx) {
			emitter.Begin(context.Background(), ec)
			_, err = emitter.Finish(context.Background(), ec, nil, &runner.RejectedError{Message: tc.in})
		})
		var respErr *ResponseError
		if !errors.As(err, &respErr) {
			t.Fatalf("expected ResponseError, got %v", err)
		}
		if respErr.Message != tc.want {
			t.Fatalf("rejection %q: got %q, want %q", tc.in, respErr.Message, tc.want)
		}
		end := events[1].Payload.(protocol.CommandEndPayload)
		if end.Stderr != tc.want {
			t.Fatalf("event text diverged from model text: %+v", end)
		}
	}
}

func TestUnifiedExecCarriesInteractionInput(t *testing.T) {
	emitter := UnifiedExec([]string{"python3"}, "/tmp", protocol.SourceInteraction, "print(1)\n")
	out := &runner.Output{Stdout: "1\n", Aggregated: "1\n", ExitCode: 0}

	events := collect(t, nil, func(ec EventCtx) {
		emitter.Begin(context.Background(), ec)
		_, _ = emitter.Finish(context.Background(), ec, out, nil)
	})

	begin := events[0].Payload.(protocol.CommandBeginPayload)
	end := events[1].Payload.(protocol.CommandEndPayload)
	if begin.InteractionInput != "print(1)\n" || end.InteractionInput != "print(1)\n" {
		t.Fatalf("interaction input missing: %+v %+v", begin, end)
	}
}

func TestApplyPatchLifecycleWithTracker(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("before\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	changes := map[string]protocol.FileChange{
		"a.txt": {Kind: protocol.FileModify, Content: "after\n"},
		"b.txt": {Kind: protocol.FileAdd, Content: "new file\n"},
	}
	tracker := diff.NewShared(root)
	emitter := ApplyPatch(changes, true)
	out := &runner.Output{Stdout: "applied 2 files\n", ExitCode: 0}

	events := collect(t, tracker, func(ec EventCtx) {
		emitter.Begin(context.Background(), ec)
		// The patch itself happens between begin and finish.
		if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("after\n"), 0o644); err != nil {
			t.Fatalf("apply: %v", err)
		}
		if err := os.WriteFile(filepath.Join(root, "b.txt"), []byte("new file\n"), 0o644); err != nil {
			t.Fatalf("apply: %v", err)
		}
		_, _ = emitter.Finish(context.Background(), ec, out, nil)
	})

	if len(events) != 3 {
		t.Fatalf("expected patch-begin, patch-end, turn-diff; got %d events", len(events))
	}
	if events[0].Type != protocol.PatchBegin || events[1].Type != protocol.PatchEnd || events[2].Type != protocol.TurnDiff {
		t.Fatalf("unexpected sequence: %v %v %v", events[0].Type, events[1].Type, events[2].Type)
	}
	begin := events[0].Payload.(protocol.PatchBeginPayload)
	if !begin.AutoApproved || len(begin.Changes) != 2 {
		t.Fatalf("unexpected begin payload: %+v", begin)
	}
	end := events[1].Payload.(protocol.PatchEndPayload)
	if !end.Success {
		t.Fatalf("expected success=true: %+v", end)
	}
	turnDiff := events[2].Payload.(protocol.TurnDiffPayload)
	if !strings.Contains(turnDiff.UnifiedDiff, "+after") || !strings.Contains(turnDiff.UnifiedDiff, "+new file") {
		t.Fatalf("diff missing changes: %q", turnDiff.UnifiedDiff)
	}
}

func TestApplyPatchMessageFailure(t *testing.T) {
	emitter := ApplyPatch(map[string]protocol.FileChange{
		"x.txt": {Kind: protocol.FileAdd, Content: "x\n"},
	}, false)

	events := collect(t, nil, func(ec EventCtx) {
		emitter.Begin(context.Background(), ec)
		_, _ = emitter.Finish(context.Background(), ec, nil, &runner.RejectedError{Message: "patch rejected"})
	})

	if len(events) != 2 {
		t.Fatalf("expected begin+end only, got %d", len(events))
	}
	end := events[1].Payload.(protocol.PatchEndPayload)
	if end.Success || end.Stdout != "" || end.Stderr != "patch rejected" {
		t.Fatalf("unexpected end payload: %+v", end)
	}
}

type erroringTracker struct {
	beginCalls int
}

func (f *erroringTracker) OnPatchBegin(map[string]protocol.FileChange) { f.beginCalls++ }
func (f *erroringTracker) UnifiedDiff() (string, error) {
	return "", errors.New("diff backend unavailable")
}

func TestDiffErrorIsSwallowed(t *testing.T) {
	tracker := &erroringTracker{}
	emitter := ApplyPatch(map[string]protocol.FileChange{
		"x.txt": {Kind: protocol.FileModify, Content: "x\n"},
	}, true)
	out := &runner.Output{ExitCode: 0}

	events := collect(t, tracker, func(ec EventCtx) {
		emitter.Begin(context.Background(), ec)
		_, _ = emitter.Finish(context.Background(), ec, out, nil)
	})

	if tracker.beginCalls != 1 {
		t.Fatalf("tracker not notified on begin: %d", tracker.beginCalls)
	}
	if len(events) != 2 {
		t.Fatalf("diff error must not add or remove events, got %d", len(events))
	}
	if events[1].Type != protocol.PatchEnd {
		t.Fatalf("patch-end must survive diff failure: %v", events[1].Type)
	}
}

func TestEmitterMetadataIsImmutable(t *testing.T) {
	command := []string{"echo", "hi"}
	emitter := Shell(command, "/tmp", protocol.SourceUser)
	command[1] = "mutated"

	events := collect(t, nil, func(ec EventCtx) {
		emitter.Begin(context.Background(), ec)
	})
	begin := events[0].Payload.(protocol.CommandBeginPayload)
	if begin.Command[1] != "hi" {
		t.Fatalf("caller mutation leaked into emitter: %v", begin.Command)
	}
}
