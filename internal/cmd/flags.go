package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harrison/incflat/internal/config"
	"github.com/harrison/incflat/internal/include"
	"github.com/harrison/incflat/internal/logger"
)

// addExpansionFlags registers the flags shared by every command that runs
// an expansion.
func addExpansionFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("include", "I", nil, "Add a directory to the include search path (repeatable, searched in order)")
	cmd.Flags().String("config", "", "Path to config file (default: ./"+config.DefaultConfigFile+")")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().Int("max-depth", 0, "Maximum inclusion nesting (0 = unlimited, default from config)")
	cmd.Flags().Bool("no-cycle-check", false, "Do not fail on recursive inclusion (requires a depth limit)")
}

// addOutputFlags registers the flags of commands that produce flattened output.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Write output to this file instead of stdout")
	cmd.Flags().Bool("keep-partial", false, "Write output produced before a failure")
	cmd.Flags().Bool("crlf", false, "Terminate emitted lines with CRLF")
}

// loadConfig loads the config file named by --config, or the default one in
// the working directory, then applies flag overrides and validates.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	cfg.MergeWithFlags(overridesFromFlags(cmd))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// overridesFromFlags collects only the flags the user actually set.
func overridesFromFlags(cmd *cobra.Command) config.Overrides {
	var o config.Overrides
	flags := cmd.Flags()

	if flags.Changed("include") {
		o.IncludeDirs, _ = flags.GetStringArray("include")
	}
	if flags.Lookup("output") != nil && flags.Changed("output") {
		v, _ := flags.GetString("output")
		o.Output = &v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		o.LogLevel = &v
	}
	if flags.Lookup("crlf") != nil && flags.Changed("crlf") {
		crlf, _ := flags.GetBool("crlf")
		v := "lf"
		if crlf {
			v = "crlf"
		}
		o.LineEnding = &v
	}
	if flags.Changed("max-depth") {
		v, _ := flags.GetInt("max-depth")
		o.MaxDepth = &v
	}
	if flags.Changed("no-cycle-check") {
		off, _ := flags.GetBool("no-cycle-check")
		v := !off
		o.DetectCycles = &v
	}
	if flags.Lookup("keep-partial") != nil && flags.Changed("keep-partial") {
		v, _ := flags.GetBool("keep-partial")
		o.KeepPartial = &v
	}
	if flags.Lookup("debounce") != nil && flags.Changed("debounce") {
		v, _ := flags.GetDuration("debounce")
		o.Debounce = &v
	}
	return o
}

// newRunLogger creates a stderr logger tagged with a fresh run ID.
func newRunLogger(cmd *cobra.Command, cfg *config.Config) *logger.ConsoleLogger {
	log := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	log.SetRunID(uuid.NewString())
	return log
}

// newExpander builds an Expander from the merged configuration.
func newExpander(cfg *config.Config, log include.Logger, extra ...include.Option) *include.Expander {
	opts := []include.Option{
		include.WithLogger(log),
		include.WithLineEnding(cfg.LineTerminator()),
		include.WithMaxDepth(cfg.MaxDepth),
		include.WithCycleDetection(cfg.DetectCycles),
	}
	opts = append(opts, extra...)
	return include.NewExpander(cfg.IncludeDirs, opts...)
}
