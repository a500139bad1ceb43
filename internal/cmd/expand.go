package cmd

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/incflat/internal/config"
	"github.com/harrison/incflat/internal/include"
	"github.com/harrison/incflat/internal/logger"
)

// NewExpandCommand creates and returns the expand subcommand
func NewExpandCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand <root-file>",
		Short: "Flatten a source file by expanding its include directives",
		Long: `Expand reads the root file and replaces every line of the form

  #include "name"
  #include <name>

with the expanded contents of the file it names. Quoted names are looked up
next to the including file first, then in each -I directory in order. Angled
names are looked up in the -I directories only.

Output goes to stdout, or to the file given with -o. A file output is only
replaced when the whole expansion succeeds, unless --keep-partial is set.

Exit code: 0 on success, 1 if any file cannot be opened or any reference
cannot be resolved`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(cmd, args[0])
		},
		SilenceUsage: true,
	}

	addExpansionFlags(cmd)
	addOutputFlags(cmd)

	return cmd
}

func runExpand(cmd *cobra.Command, root string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := newRunLogger(cmd, cfg)
	_, err = expandOnce(cmd.Context(), cfg, log, root, cmd.OutOrStdout())
	return err
}

// expandOnce performs one logged expansion of root into cfg.Output, or into
// stdout when no output file is configured.
func expandOnce(ctx context.Context, cfg *config.Config, log *logger.ConsoleLogger, root string, stdout io.Writer, extra ...include.Option) (int, error) {
	e := newExpander(cfg, log, extra...)

	log.LogRunStart(root, e.IncludeDirs())
	start := time.Now()

	var n int
	var err error
	if cfg.Output == "" {
		cw := &countingWriter{w: stdout}
		err = e.Expand(ctx, root, cw)
		n = cw.n
	} else {
		var res include.Result
		res, err = e.ExpandFile(ctx, root, cfg.Output, include.FileOptions{KeepPartial: cfg.KeepPartial})
		n = res.Bytes
		if err != nil && res.Published {
			log.LogWarn("Partial output written to " + cfg.Output)
		}
	}

	log.LogRunComplete(root, n, time.Since(start), err)
	return n, err
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
