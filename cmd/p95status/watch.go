package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"p95status/internal/batch"
	"p95status/internal/watch"
	"p95status/pkg/config"
	"p95status/pkg/logger"
	"p95status/pkg/scanner"
	"p95status/pkg/status"
	"p95status/pkg/ui"
	"p95status/pkg/ui/tui"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Re-run the status report whenever a save file changes",
	Long: `Watch a directory and decode it again each time a save file is written.

Changes are debounced: a file rewritten several times in a row triggers a
single run once it has been quiet for the debounce window. With --tui a
dashboard shows a progress bar per file; otherwise each run prints a header,
the report and the status lines that changed.`,
	Example: `  # Watch the current directory
  p95status watch

  # Dashboard with desktop notifications on every status change
  p95status watch ~/mprime --tui --notify

  # Keep a JSON export up to date for another tool
  p95status watch ~/mprime --export status.json --debounce 10s`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addStatusFlags(watchCmd)

	watchCmd.Flags().Duration("debounce", config.DefaultConfig().Watch.Debounce, "quiet time before a changed file is decoded again")
	watchCmd.Flags().Bool("tui", false, "show an interactive dashboard")
	watchCmd.Flags().Bool("notify", false, "send a desktop notification when a status line changes")
}

// watchView presents the outcome of each run
type watchView interface {
	Refreshing(names []string)
	ShowReport(rep *status.Report)
	ShowChanges(changes []watch.Change)
	RunFailed(err error)
}

// consoleView prints every run to a writer
type consoleView struct {
	out     io.Writer
	tracker *ui.RunTracker
	opts    status.Options
}

func newConsoleView(out io.Writer, opts status.Options) *consoleView {
	return &consoleView{out: out, tracker: ui.NewRunTracker(), opts: opts}
}

func (v *consoleView) Refreshing(names []string) {
	v.tracker.Begin(names)
	v.tracker.PrintHeader(v.out, names)
}

func (v *consoleView) ShowReport(rep *status.Report) {
	if err := status.Write(v.out, rep, v.opts); err != nil {
		ui.PrintError("Failed to write report", err)
	}
}

func (v *consoleView) ShowChanges(changes []watch.Change) {
	for _, c := range changes {
		v.tracker.PrintChange(v.out, c.Name, c.Before, c.After)
	}
}

func (v *consoleView) RunFailed(err error) {
	ui.PrintError("Run failed", err)
}

// dashboardView forwards every run to the TUI
type dashboardView struct {
	tui *tui.TUI
}

func (v dashboardView) Refreshing(names []string)     { v.tui.Refreshing(names) }
func (v dashboardView) ShowReport(rep *status.Report) { v.tui.ShowReport(rep) }
func (v dashboardView) RunFailed(err error)           { v.tui.RunFailed(err) }

func (v dashboardView) ShowChanges(changes []watch.Change) {
	for _, c := range changes {
		if c.Removed() {
			v.tui.LogWarning("%s: save file removed", c.Name)
			continue
		}
		v.tui.LogInfo("%s: %s", c.Name, c.After)
	}
}

// watchLoop re-runs the report for every batch of changes
type watchLoop struct {
	runner    *batch.Runner
	dir       string
	changes   <-chan []string
	refreshes <-chan struct{}
	view      watchView
	notifier  *ui.Notifier
	cfg       *config.Config
	logger    logger.Logger

	previous map[string]string
}

// Run performs the first pass immediately, then one pass per change batch
// or refresh request until ctx is cancelled
func (l *watchLoop) Run(ctx context.Context) error {
	if err := l.pass(ctx, nil); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case names, ok := <-l.changes:
			if !ok {
				return nil
			}
			if err := l.pass(ctx, names); err != nil {
				return err
			}
		case <-l.refreshes:
			if err := l.pass(ctx, nil); err != nil {
				return err
			}
		}
	}
}

// pass runs the report once. A directory that cannot be read is reported
// and watching continues; only cancellation ends the loop.
func (l *watchLoop) pass(ctx context.Context, names []string) error {
	runID := uuid.NewString()
	log := l.logger.WithField("run_id", runID)

	l.view.Refreshing(names)
	rep, err := l.runner.Run(ctx, l.dir)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Error("Watch run failed")
		l.view.RunFailed(err)
		return nil
	}

	l.view.ShowReport(rep)

	current := rep.Messages()
	if l.previous != nil {
		changes := watch.Diff(l.previous, current)
		l.view.ShowChanges(changes)
		l.notify(log, changes)
	}
	l.previous = current

	if err := exportReport(l.cfg, rep, runID); err != nil {
		log.WithError(err).Error("Watch export failed")
	}
	return nil
}

func (l *watchLoop) notify(log logger.Logger, changes []watch.Change) {
	for _, c := range changes {
		var err error
		switch {
		case c.Removed():
			err = l.notifier.StatusChanged(c.Name, "save file removed")
		case strings.HasPrefix(c.After, "FAILED "):
			err = l.notifier.Failed(c.Name, strings.TrimPrefix(c.After, "FAILED "))
		default:
			err = l.notifier.StatusChanged(c.Name, c.After)
		}
		if err != nil {
			log.WithError(err).Warn("Desktop notification failed")
		}
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	// the dashboard owns the terminal; console logs would corrupt it
	var logOut io.Writer = os.Stderr
	if cfg.Watch.TUI {
		logOut = io.Discard
	}
	if err := setupOutput(cfg, logOut); err != nil {
		return err
	}
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := scanner.New(cfg.Scan.Pattern)
	if err != nil {
		return err
	}

	w, err := watch.New(cfg.Scan.Directory, sc.Match, cfg.Watch.Debounce, log)
	if err != nil {
		return err
	}
	defer w.Stop()
	if err := w.Start(ctx); err != nil {
		return err
	}

	loop := &watchLoop{
		runner:  batch.NewRunner(sc, cfg.Batch.Workers, nil, log),
		dir:     cfg.Scan.Directory,
		changes: w.Changes(),
		cfg:     cfg,
		logger:  log,
	}
	if cfg.Watch.Notifications {
		loop.notifier = ui.NewNotifier()
		if !loop.notifier.Supported() {
			ui.PrintWarning("Desktop notifications are not available on " + runtime.GOOS)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Watch.TUI {
		dash := tui.NewTUI(cfg.Scan.Directory)
		loop.view = dashboardView{tui: dash}
		loop.refreshes = dash.Refreshes()
		g.Go(func() error {
			// quitting the dashboard ends the watch
			defer stop()
			if err := dash.Run(gctx); err != nil {
				return fmt.Errorf("dashboard failed: %w", err)
			}
			return nil
		})
	} else {
		out := cmd.OutOrStdout()
		if quiet {
			out = io.Discard
		}
		loop.view = newConsoleView(out, reportOptions(cfg))
	}

	g.Go(func() error {
		return loop.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
