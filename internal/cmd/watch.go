package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harrison/incflat/internal/config"
	"github.com/harrison/incflat/internal/include"
	"github.com/harrison/incflat/internal/logger"
	"github.com/harrison/incflat/internal/watch"
)

// NewWatchCommand creates and returns the watch subcommand
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <root-file>",
		Short: "Re-expand a source file whenever one of its inputs changes",
		Long: `Watch expands the root file into the output file, then waits. When any
file that took part in the last expansion changes, or a file is created or
removed in a directory that was searched, the expansion runs again.

A failed expansion is logged and leaves the output file as it was; watching
continues so the next edit can fix it. Stop with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0])
		},
		SilenceUsage: true,
	}

	addExpansionFlags(cmd)
	addOutputFlags(cmd)
	cmd.Flags().Duration("debounce", 0, "Quiet period before rebuilding (default from config, 100ms)")

	return cmd
}

func runWatch(cmd *cobra.Command, root string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Output == "" {
		return errors.New("watch requires an output file (use -o or set output in the config file)")
	}

	log := newRunLogger(cmd, cfg)
	return watchLoop(cmd.Context(), cfg, log, root, nil)
}

// watchLoop expands root, watches its inputs and repeats on every change
// until ctx is done. afterRun, if set, is called after each expansion.
func watchLoop(ctx context.Context, cfg *config.Config, log *logger.ConsoleLogger, root string, afterRun func(error)) error {
	w, err := watch.New(cfg.Watch.Debounce, watch.IgnoreOutput(cfg.Output))
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer w.Close()

	for {
		var files []string
		collect := include.WithVisitFunc(func(v include.Visit) {
			files = append(files, v.Path)
		})

		_, runErr := expandOnce(ctx, cfg, log, root, io.Discard, collect)
		if ctx.Err() != nil {
			return nil
		}
		if len(files) == 0 {
			// The root itself could not be opened; wait for it to appear.
			files = []string{root}
		}

		if err := w.Set(files, cfg.IncludeDirs); err != nil {
			return fmt.Errorf("failed to watch inputs: %w", err)
		}
		if afterRun != nil {
			afterRun(runErr)
		}
		log.LogInfo(fmt.Sprintf("Watching %d files for changes", len(files)))

		if !waitForChange(ctx, w, log) {
			return nil
		}
		log.SetRunID(uuid.NewString())
	}
}

// waitForChange blocks until the watched inputs change. It returns false
// when ctx is done.
func waitForChange(ctx context.Context, w *watch.Watcher, log *logger.ConsoleLogger) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case c := <-w.Changes():
			log.LogInfo(fmt.Sprintf("Change detected at %s: %s", c.Timestamp.Format(time.TimeOnly), strings.Join(c.Paths, ", ")))
			return true
		case err := <-w.Errors():
			log.LogWarn(fmt.Sprintf("File watcher error: %v", err))
		}
	}
}
