package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"toolwire/internal/version"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "toolwire",
		Short:         "toolwire - narrates tool executions as paired begin/end events",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("timeout", "60s", "command timeout (e.g. 30s)")
	cmd.PersistentFlags().String("sink-url", "", "HTTP endpoint receiving the event stream")
	cmd.PersistentFlags().String("output", "text", "output format: text or json")
	cmd.PersistentFlags().Bool("verbose", false, "verbose logging and full command output")
	cmd.PersistentFlags().String("cwd", ".", "working directory for the invocation")
	cmd.PersistentFlags().Bool("auto-approve", false, "mark patch applications as auto-approved")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newApplyCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the toolwire version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Version)
		},
	}
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
		return zap.NewNop()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
