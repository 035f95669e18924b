package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"toolwire/internal/config"
	"toolwire/internal/diff"
	"toolwire/internal/protocol"
	"toolwire/internal/runner"
	"toolwire/internal/session"
	"toolwire/internal/toolcall"
)

func newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply CHANGES.json",
		Short: "Apply a set of file changes and narrate them, including the turn diff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			logger := buildLogger(cfg.Verbose)
			defer func() { _ = logger.Sync() }()

			changes, err := loadChanges(args[0])
			if err != nil {
				return err
			}
			cwd, err := filepath.Abs(cfg.Cwd)
			if err != nil {
				return fmt.Errorf("resolve cwd: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			sess := session.New(logger, cfg.EventBuffer)
			done := startConsumers(ctx, cfg, logger, sess, cmd)

			tracker := diff.NewShared(cwd)
			turn := &session.Turn{ID: uuid.NewString()}
			callID := uuid.NewString()
			ec := toolcall.EventCtx{Session: sess, Turn: turn, CallID: callID, DiffTracker: tracker}

			emitter := toolcall.ApplyPatch(changes, cfg.AutoApprove)
			emitter.Begin(ctx, ec)

			out, applyErr := applyChanges(cwd, changes)

			text, finishErr := emitter.Finish(ctx, ec, out, applyErr)
			sess.Close()
			done()

			return report(cmd, cfg, callID, text, finishErr)
		},
	}
}

func loadChanges(path string) (map[string]protocol.FileChange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read changes file: %w", err)
	}
	var changes map[string]protocol.FileChange
	if err := json.Unmarshal(data, &changes); err != nil {
		return nil, fmt.Errorf("parse changes file: %w", err)
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("changes file is empty")
	}
	return changes, nil
}

// applyChanges writes the requested changes to disk and reports the
// result in the same output shape a patching subprocess would produce.
func applyChanges(root string, changes map[string]protocol.FileChange) (*runner.Output, error) {
	start := time.Now()
	applied := 0
	for path, change := range changes {
		target := path
		if !filepath.IsAbs(target) {
			target = filepath.Join(root, target)
		}
		switch change.Kind {
		case protocol.FileAdd, protocol.FileModify:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return nil, fmt.Errorf("prepare %s: %w", path, err)
			}
			if err := os.WriteFile(target, []byte(change.Content), 0o644); err != nil {
				return nil, fmt.Errorf("write %s: %w", path, err)
			}
		case protocol.FileDelete:
			if err := os.Remove(target); err != nil {
				return nil, fmt.Errorf("delete %s: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("unknown change kind %q for %s", change.Kind, path)
		}
		applied++
	}
	stdout := fmt.Sprintf("applied %d file(s)\n", applied)
	return &runner.Output{
		Stdout:     stdout,
		Aggregated: stdout,
		ExitCode:   0,
		Duration:   time.Since(start),
	}, nil
}
