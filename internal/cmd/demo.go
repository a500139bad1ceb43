package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/incflat/internal/config"
	"github.com/harrison/incflat/internal/fixture"
	"github.com/harrison/incflat/internal/include"
)

// NewDemoCommand creates and returns the demo subcommand
func NewDemoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo [dir]",
		Short: "Build a sample source tree and expand it",
		Long: `Demo writes a small sample tree to dir (default: ./sources), replacing
anything already there, and expands a.cpp into a.in with include1 and
include2 as the search path.

The sample deliberately ends with a reference to dummy.txt, which exists
nowhere, so the expansion stops at line 8 of a.cpp. Demo checks that it
stopped there and that a.in holds exactly the lines produced before the
failure.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "sources"
			if len(args) == 1 {
				dir = args[0]
			}
			return runDemo(cmd, dir)
		},
		SilenceUsage: true,
	}

	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")

	return cmd
}

func runDemo(cmd *cobra.Command, dir string) error {
	cfg := config.DefaultConfig()
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	tree, err := fixture.Write(dir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sample tree written to %s\n", tree.Dir)

	cfg.IncludeDirs = tree.IncludeDirs()
	cfg.Output = tree.Path("a.in")
	cfg.KeepPartial = true

	log := newRunLogger(cmd, cfg)
	_, runErr := expandOnce(cmd.Context(), cfg, log, tree.Root(), out)

	var unresolved *include.UnresolvedIncludeError
	if !errors.As(runErr, &unresolved) {
		if runErr == nil {
			return errors.New("sample expansion unexpectedly succeeded")
		}
		return fmt.Errorf("sample expansion failed unexpectedly: %w", runErr)
	}
	if unresolved.Name != fixture.UnresolvedName || unresolved.Line != fixture.UnresolvedLine {
		return fmt.Errorf("sample expansion stopped at the wrong place: %w", runErr)
	}
	fmt.Fprintf(out, "Stopped as expected: %v\n", runErr)

	data, err := os.ReadFile(cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.Output, err)
	}
	if string(data) != fixture.PartialOutput {
		return fmt.Errorf("%s does not hold the expected partial output", cfg.Output)
	}
	fmt.Fprintf(out, "%s holds the expected %d lines\n", cfg.Output, strings.Count(fixture.PartialOutput, "\n"))

	return nil
}
