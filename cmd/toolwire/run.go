package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"toolwire/internal/config"
	"toolwire/internal/llm"
	"toolwire/internal/protocol"
	"toolwire/internal/render"
	"toolwire/internal/runner"
	"toolwire/internal/session"
	"toolwire/internal/toolcall"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run -- COMMAND [ARGS...]",
		Short: "Execute one command and narrate its lifecycle",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			logger := buildLogger(cfg.Verbose)
			defer func() { _ = logger.Sync() }()

			cwd, err := filepath.Abs(cfg.Cwd)
			if err != nil {
				return fmt.Errorf("resolve cwd: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			sess := session.New(logger, cfg.EventBuffer)
			done := startConsumers(ctx, cfg, logger, sess, cmd)

			turn := &session.Turn{ID: uuid.NewString()}
			callID := uuid.NewString()
			ec := toolcall.EventCtx{Session: sess, Turn: turn, CallID: callID}

			emitter := toolcall.Shell(args, cwd, protocol.SourceUser)
			emitter.Begin(ctx, ec)

			r := runner.New(cfg.Timeout, cfg.OutputBytes, cfg.Redact, logger)
			out, execErr := r.Run(ctx, args, cwd)

			text, finishErr := emitter.Finish(ctx, ec, out, execErr)
			sess.Close()
			done()

			return report(cmd, cfg, callID, text, finishErr)
		},
	}
}

// startConsumers wires the renderer and the optional telemetry sink to
// the session and returns a function that waits for both to drain.
func startConsumers(ctx context.Context, cfg config.Config, logger *zap.Logger, sess *session.Session, cmd *cobra.Command) func() {
	var renderer render.Renderer
	if cfg.OutputFormat == "json" {
		renderer = render.NewJSONRenderer(cmd.OutOrStdout())
	} else {
		renderer = render.NewStdoutRenderer(cmd.OutOrStdout(), cfg.Verbose)
	}

	rendered := make(chan struct{})
	events := sess.Subscribe()
	go func() {
		defer close(rendered)
		for event := range events {
			renderer.Emit(event)
		}
		_ = renderer.Close()
	}()

	var sinkDone chan struct{}
	if cfg.SinkURL != "" {
		sink := session.NewSink(cfg.SinkURL, logger)
		sinkEvents := sess.Subscribe()
		sinkDone = make(chan struct{})
		go func() {
			defer close(sinkDone)
			sink.Run(ctx, sinkEvents)
		}()
	}

	return func() {
		<-rendered
		if sinkDone != nil {
			<-sinkDone
		}
	}
}

// report prints the model-facing result: the same text (or error) the
// conversation would receive.
func report(cmd *cobra.Command, cfg config.Config, callID string, text string, finishErr error) error {
	if cfg.OutputFormat == "json" {
		message := llm.ToolResponse(callID, text, finishErr)
		payload, err := json.Marshal(message)
		if err == nil {
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		}
		return finishErr
	}
	if finishErr != nil {
		var respErr *toolcall.ResponseError
		if errors.As(finishErr, &respErr) {
			fmt.Fprintln(cmd.ErrOrStderr(), respErr.Message)
		}
		return finishErr
	}
	if text != "" {
		fmt.Fprintln(cmd.OutOrStdout(), text)
	}
	return nil
}
