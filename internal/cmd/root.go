package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for incflat
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incflat",
		Short: "Flatten source files by expanding include directives",
		Long: `Incflat is a minimal preprocessor. It reads a root source file and writes
it out with every #include "name" and #include <name> line replaced by the
contents of the file it names, recursively.

Search directories, output, line endings and limits can be set with flags
or in a .incflat.yaml file in the working directory.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewExpandCommand())
	cmd.AddCommand(NewDepsCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewDemoCommand())

	return cmd
}
