package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestRunner(timeout time.Duration) *Runner {
	return New(timeout, 64*1024, false, zap.NewNop())
}

func TestRunCapturesStreamsAndExitCode(t *testing.T) {
	r := newTestRunner(5 * time.Second)
	out, err := r.Run(context.Background(), []string{"sh", "-c", "echo one; echo two 1>&2"}, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", out.ExitCode)
	}
	if !strings.Contains(out.Stdout, "one") || !strings.Contains(out.Stderr, "two") {
		t.Fatalf("streams not captured: stdout=%q stderr=%q", out.Stdout, out.Stderr)
	}
	if !strings.Contains(out.Aggregated, "one") || !strings.Contains(out.Aggregated, "two") {
		t.Fatalf("aggregated output incomplete: %q", out.Aggregated)
	}
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	r := newTestRunner(5 * time.Second)
	out, err := r.Run(context.Background(), []string{"sh", "-c", "echo oops 1>&2; exit 3"}, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ExitCode != 3 {
		t.Fatalf("expected exit 3, got %d", out.ExitCode)
	}
}

func TestRunTimeoutReturnsPartialOutput(t *testing.T) {
	r := newTestRunner(100 * time.Millisecond)
	_, err := r.Run(context.Background(), []string{"sh", "-c", "echo started; sleep 30"}, t.TempDir())
	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if timeoutErr.Output.ExitCode != -1 {
		t.Fatalf("expected exit -1 on timeout, got %d", timeoutErr.Output.ExitCode)
	}
	if !strings.Contains(timeoutErr.Output.Stdout, "started") {
		t.Fatalf("partial output lost: %q", timeoutErr.Output.Stdout)
	}
}

func TestRunBlocksDestructiveCommand(t *testing.T) {
	r := newTestRunner(time.Second)
	_, err := r.Run(context.Background(), []string{"sh", "-c", "rm -rf /"}, t.TempDir())
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
}

func TestFormatOutputForModelAnnotatesFailure(t *testing.T) {
	out := &Output{Aggregated: "boom", ExitCode: 2, Duration: 40 * time.Millisecond}
	text := FormatOutputForModel(out)
	if !strings.Contains(text, "code 2") || !strings.Contains(text, "boom") {
		t.Fatalf("unexpected rendering: %q", text)
	}
	clean := FormatOutputForModel(&Output{Aggregated: "fine", ExitCode: 0})
	if clean != "fine" {
		t.Fatalf("expected bare rendering on clean exit, got %q", clean)
	}
}
