package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DefaultTimeout     = 60 * time.Second
	DefaultOutputBytes = 64 * 1024
	DefaultEventBuffer = 128
)

// Config holds runtime configuration values.
type Config struct {
	Timeout      time.Duration
	OutputBytes  int
	EventBuffer  int
	SinkURL      string
	Redact       bool
	OutputFormat string
	Verbose      bool
	Cwd          string
	AutoApprove  bool
}

type rawConfig struct {
	Timeout      string `mapstructure:"timeout"`
	OutputBytes  int    `mapstructure:"output_bytes"`
	EventBuffer  int    `mapstructure:"event_buffer"`
	SinkURL      string `mapstructure:"sink_url"`
	Redact       bool   `mapstructure:"redact"`
	OutputFormat string `mapstructure:"output_format"`
	Verbose      bool   `mapstructure:"verbose"`
	Cwd          string `mapstructure:"cwd"`
	AutoApprove  bool   `mapstructure:"auto_approve"`
}

// Load resolves configuration from defaults, config file, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TOOLWIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("output_bytes", DefaultOutputBytes)
	v.SetDefault("event_buffer", DefaultEventBuffer)
	v.SetDefault("sink_url", "")
	v.SetDefault("redact", true)
	v.SetDefault("output_format", "text")
	v.SetDefault("verbose", false)
	v.SetDefault("cwd", ".")
	v.SetDefault("auto_approve", false)

	if cmd != nil {
		_ = v.BindPFlag("timeout", cmd.Flags().Lookup("timeout"))
		_ = v.BindPFlag("sink_url", cmd.Flags().Lookup("sink-url"))
		_ = v.BindPFlag("output_format", cmd.Flags().Lookup("output"))
		_ = v.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
		_ = v.BindPFlag("cwd", cmd.Flags().Lookup("cwd"))
		_ = v.BindPFlag("auto_approve", cmd.Flags().Lookup("auto-approve"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigName("toolwire")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(home, ".config", "toolwire"))
		_ = v.ReadInConfig()
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw, func(dc *mapstructure.DecoderConfig) { dc.TagName = "mapstructure" }); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	timeout, err := time.ParseDuration(raw.Timeout)
	if err != nil {
		return Config{}, fmt.Errorf("invalid timeout %q: %w", raw.Timeout, err)
	}
	if raw.OutputFormat != "text" && raw.OutputFormat != "json" {
		return Config{}, fmt.Errorf("invalid output format %q", raw.OutputFormat)
	}

	cfg := Config{
		Timeout:      timeout,
		OutputBytes:  raw.OutputBytes,
		EventBuffer:  raw.EventBuffer,
		SinkURL:      raw.SinkURL,
		Redact:       raw.Redact,
		OutputFormat: raw.OutputFormat,
		Verbose:      raw.Verbose,
		Cwd:          raw.Cwd,
		AutoApprove:  raw.AutoApprove,
	}
	return cfg, nil
}
