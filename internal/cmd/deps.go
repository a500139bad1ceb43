package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/incflat/internal/include"
)

// NewDepsCommand creates and returns the deps subcommand
func NewDepsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps <root-file>",
		Short: "Print the inclusion tree of a source file",
		Long: `Deps walks the inclusion graph exactly as expand does and prints each
file as it is entered, indented by nesting depth. No flattened output is
produced. A file included more than once appears once per inclusion.

With --files, each file is printed once, without indentation, in the order
it was first entered.

The walk stops at the first error, after printing what it reached.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, _ := cmd.Flags().GetBool("files")
			return runDeps(cmd, args[0], files)
		},
		SilenceUsage: true,
	}

	addExpansionFlags(cmd)
	cmd.Flags().Bool("files", false, "Print each participating file once instead of the tree")

	return cmd
}

func runDeps(cmd *cobra.Command, root string, filesOnly bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	seen := make(map[string]bool)
	visit := func(v include.Visit) {
		if filesOnly {
			if seen[v.Path] {
				return
			}
			seen[v.Path] = true
			fmt.Fprintln(out, v.Path)
			return
		}
		fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", v.Depth), v.Path)
	}

	log := newRunLogger(cmd, cfg)
	e := newExpander(cfg, log, include.WithVisitFunc(visit))
	return e.Expand(cmd.Context(), root, io.Discard)
}
