// Package runner executes sandbox-checked local commands and owns the
// value types and error taxonomy their outcomes are reported with.
package runner

import (
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"toolwire/internal/util"
)

var destructivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+(-[a-z]*r[a-z]*f|-[a-z]*f[a-z]*r)\b`),
	regexp.MustCompile(`(?i)\bmkfs\b`),
	regexp.MustCompile(`(?i)\bshutdown\b`),
	regexp.MustCompile(`(?i)\breboot\b`),
	regexp.MustCompile(`(?i):\(\)\{`),
	regexp.MustCompile(`(?i)chmod\s+-R\s+777\s+/`),
}

// Runner executes commands with a timeout and per-stream byte caps.
type Runner struct {
	timeout  time.Duration
	maxBytes int
	redact   bool
	logger   *zap.Logger
}

// New constructs a Runner. A zero timeout means no deadline.
func New(timeout time.Duration, maxBytes int, redact bool, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{timeout: timeout, maxBytes: maxBytes, redact: redact, logger: logger}
}

// aggregateWriter tees one stream into its own buffer and a shared
// interleaved buffer.
type aggregateWriter struct {
	mu       *sync.Mutex
	own      []byte
	combined *[]byte
}

func (w *aggregateWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	w.own = append(w.own, p...)
	*w.combined = append(*w.combined, p...)
	w.mu.Unlock()
	return len(p), nil
}

// Run executes command in cwd and returns its output. Classified
// failures come back as the typed errors in this package; anything
// else is an internal execution error.
func (r *Runner) Run(ctx context.Context, command []string, cwd string) (*Output, error) {
	if len(command) == 0 {
		return nil, errors.New("command is required")
	}
	joined := strings.Join(command, " ")
	for _, re := range destructivePatterns {
		if re.MatchString(joined) {
			return nil, &RejectedError{Message: "blocked potentially destructive command"}
		}
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, command[0], command[1:]...)
	cmd.Dir = cwd
	// Orphaned children holding the output pipes must not stall Wait
	// after the deadline kill.
	cmd.WaitDelay = time.Second

	var mu sync.Mutex
	var combined []byte
	stdout := &aggregateWriter{mu: &mu, combined: &combined}
	stderr := &aggregateWriter{mu: &mu, combined: &combined}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	out := r.buildOutput(stdout.own, stderr.own, combined, duration)

	if runCtx.Err() == context.DeadlineExceeded {
		out.ExitCode = -1
		r.logger.Debug("command timed out", zap.Strings("command", command), zap.Duration("duration", duration))
		return nil, &TimeoutError{Output: out}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return nil, err
	}
	out.ExitCode = 0
	return out, nil
}

func (r *Runner) buildOutput(stdout, stderr, combined []byte, duration time.Duration) *Output {
	outStr := string(stdout)
	errStr := string(stderr)
	aggStr := string(combined)
	if r.redact {
		outStr = util.RedactSecrets(outStr)
		errStr = util.RedactSecrets(errStr)
		aggStr = util.RedactSecrets(aggStr)
	}
	if r.maxBytes > 0 {
		outStr, _ = util.TruncateBytes(outStr, r.maxBytes)
		errStr, _ = util.TruncateBytes(errStr, r.maxBytes)
		aggStr, _ = util.TruncateBytes(aggStr, r.maxBytes)
	}
	return &Output{Stdout: outStr, Stderr: errStr, Aggregated: aggStr, Duration: duration}
}
