package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"p95status/internal/batch"
	"p95status/internal/testutil"
	"p95status/internal/watch"
	"p95status/pkg/config"
	"p95status/pkg/export"
	"p95status/pkg/logger"
	"p95status/pkg/scanner"
	"p95status/pkg/status"
	"p95status/pkg/ui"
)

func writeClientDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "m86243", testutil.LLFile(1, 86243, 43000, 0.4986))
	testutil.WriteFile(t, dir, "p9000001", testutil.PM1Stage2File(6, 1_000_000, 50_000_000, 25_000_000))
	testutil.WriteFile(t, dir, "e1277", testutil.ECMLegacyFile(1, 0, 3, 0.5)[:30])
	testutil.WriteFile(t, dir, "results.txt", []byte("M86243 is not prime"))
	return dir
}

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Scan.Directory = dir
	return cfg
}

func TestExampleConfigIsValid(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte(exampleConfig), cfg))
	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestExecuteStatus(t *testing.T) {
	ui.SetColorEnabled(false)
	dir := writeClientDir(t)
	cfg := testConfig(dir)
	cfg.Export.Path = filepath.Join(t.TempDir(), "status.json")

	var out bytes.Buffer
	rep, err := executeStatus(context.Background(), &out, cfg, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Total)

	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, "Found 3 backup files in '"+dir+"'", lines[0])
	assert.Equal(t, "m86243   | LL | Iteration 43000/86243 [49.86%]", lines[1])
	assert.Equal(t, "p9000001 | P-1 | B1=1000000 complete, Stage 2 (50.0%)", lines[2])
	assert.Equal(t, "FAILED:", lines[4])
	assert.True(t, strings.HasPrefix(lines[5], "\te1277: truncated"))

	doc, err := export.Read(cfg.Export.Path)
	require.NoError(t, err)
	assert.Len(t, doc.Records, 2)
	assert.Contains(t, doc.Failures, "e1277")
	assert.NotEmpty(t, doc.RunID)
}

func TestExecuteStatusTable(t *testing.T) {
	ui.SetColorEnabled(false)
	cfg := testConfig(writeClientDir(t))
	cfg.Report.Format = "TABLE"

	var out bytes.Buffer
	_, err := executeStatus(context.Background(), &out, cfg, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "STATUS")
}

func TestExecuteStatusMissingDirectory(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing"))

	_, err := executeStatus(context.Background(), &bytes.Buffer{}, cfg, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestChangedFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	addStatusFlags(cmd)
	cmd.Flags().Duration("debounce", time.Second, "")
	cmd.Flags().Bool("tui", false, "")

	require.NoError(t, cmd.ParseFlags([]string{"--format", "table", "--workers", "8", "--debounce", "5s", "--tui"}))

	flags := changedFlags(cmd)
	assert.Equal(t, map[string]interface{}{
		"format":   "table",
		"workers":  8,
		"debounce": 5 * time.Second,
		"tui":      true,
	}, flags)

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, "table", cfg.Report.Format)
	assert.Equal(t, 5*time.Second, cfg.Watch.Debounce)
	// unset flags keep their configured values
	assert.Equal(t, config.DefaultPattern, cfg.Scan.Pattern)
}

func TestApplyVerbosity(t *testing.T) {
	defer func() { verbose, quiet = false, false }()

	cfg := config.DefaultConfig()
	applyVerbosity(cfg, false)
	assert.Equal(t, "error", cfg.Logging.Level)

	cfg.Logging.Level = "warn"
	applyVerbosity(cfg, true)
	assert.Equal(t, "warn", cfg.Logging.Level)

	verbose = true
	applyVerbosity(cfg, true)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestCheckEnvironment(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing"))
	warnings, problems := checkEnvironment(cfg)
	assert.Len(t, warnings, 1)
	assert.Empty(t, problems)

	file := filepath.Join(t.TempDir(), "p1")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	cfg = testConfig(file)
	cfg.Export.Path = "status.txt"
	_, problems = checkEnvironment(cfg)
	assert.Len(t, problems, 2)
}

// recordingView collects what the watch loop shows
type recordingView struct {
	mu      sync.Mutex
	names   [][]string
	reports []*status.Report
	changes []watch.Change
	errs    []error
	shown   chan struct{}
}

func newRecordingView() *recordingView {
	return &recordingView{shown: make(chan struct{}, 16)}
}

func (v *recordingView) Refreshing(names []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.names = append(v.names, names)
}

func (v *recordingView) ShowReport(rep *status.Report) {
	v.mu.Lock()
	v.reports = append(v.reports, rep)
	v.mu.Unlock()
	v.shown <- struct{}{}
}

func (v *recordingView) ShowChanges(changes []watch.Change) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.changes = append(v.changes, changes...)
}

func (v *recordingView) RunFailed(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errs = append(v.errs, err)
}

func (v *recordingView) waitReport(t *testing.T) {
	t.Helper()
	select {
	case <-v.shown:
	case <-time.After(5 * time.Second):
		t.Fatal("no report shown")
	}
}

type recordingSender struct {
	mu     sync.Mutex
	titles []string
}

func (s *recordingSender) Send(title, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = append(s.titles, title)
	return nil
}

func newLoop(t *testing.T, dir string, view watchView, sender *recordingSender) *watchLoop {
	t.Helper()
	sc, err := scanner.New("")
	require.NoError(t, err)
	log := logger.NewNopLogger()
	return &watchLoop{
		runner:   batch.NewRunner(sc, 2, nil, log),
		dir:      dir,
		view:     view,
		notifier: ui.NewNotifierWithSender(sender),
		cfg:      testConfig(dir),
		logger:   log,
	}
}

func TestWatchLoopPassReportsChanges(t *testing.T) {
	dir := writeClientDir(t)
	view := newRecordingView()
	sender := &recordingSender{}
	loop := newLoop(t, dir, view, sender)
	ctx := context.Background()

	require.NoError(t, loop.pass(ctx, nil))
	assert.Empty(t, view.changes)
	assert.Empty(t, sender.titles)

	testutil.WriteFile(t, dir, "m86243", testutil.LLFile(1, 86243, 44000, 0.51))
	testutil.WriteFile(t, dir, "e1277", testutil.ECMLegacyFile(1, 0, 3, 0.5))
	require.NoError(t, os.Remove(filepath.Join(dir, "p9000001")))
	testutil.WriteFile(t, dir, "m100", testutil.LLFile(1, 100, 1, 0)[:10])

	require.NoError(t, loop.pass(ctx, []string{"e1277", "m100", "m86243", "p9000001"}))

	require.Len(t, view.changes, 4)
	assert.Equal(t, "e1277", view.changes[0].Name)
	assert.Equal(t, "ECM | Curve 3 | Stage 1 (50.0%)", view.changes[0].After)
	assert.True(t, view.changes[3].Removed())

	assert.Equal(t, []string{
		"p95status: e1277",
		"p95status: m100 failed",
		"p95status: m86243",
		"p95status: p9000001",
	}, sender.titles)
	assert.Equal(t, []string{"e1277", "m100", "m86243", "p9000001"}, view.names[1])
}

func TestWatchLoopPassSurvivesMissingDirectory(t *testing.T) {
	view := newRecordingView()
	loop := newLoop(t, filepath.Join(t.TempDir(), "gone"), view, &recordingSender{})

	require.NoError(t, loop.pass(context.Background(), nil))
	assert.Len(t, view.errs, 1)
	assert.Empty(t, view.reports)
}

func TestWatchLoopRun(t *testing.T) {
	dir := writeClientDir(t)
	sc, err := scanner.New("")
	require.NoError(t, err)

	w, err := watch.New(dir, sc.Match, 20*time.Millisecond, logger.NewNopLogger())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	view := newRecordingView()
	refreshes := make(chan struct{}, 1)
	loop := newLoop(t, dir, view, &recordingSender{})
	loop.changes = w.Changes()
	loop.refreshes = refreshes

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	view.waitReport(t)

	testutil.WriteFile(t, dir, "m86243", testutil.LLFile(1, 86243, 44000, 0.51))
	view.waitReport(t)

	refreshes <- struct{}{}
	view.waitReport(t)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}

	view.mu.Lock()
	defer view.mu.Unlock()
	require.GreaterOrEqual(t, len(view.reports), 3)
	require.NotEmpty(t, view.changes)
	assert.Equal(t, "m86243", view.changes[0].Name)
}

func TestConsoleView(t *testing.T) {
	ui.SetColorEnabled(false)
	var out bytes.Buffer
	view := newConsoleView(&out, status.Options{Format: status.FormatText})

	view.Refreshing([]string{"m1"})
	view.ShowReport(&status.Report{Directory: "/work"})
	view.ShowChanges([]watch.Change{{Name: "m1", Before: "a", After: "b"}})

	got := out.String()
	assert.Contains(t, got, "[RUN 1]")
	assert.Contains(t, got, "changed: m1")
	assert.Contains(t, got, "Found 0 backup files in '/work'\n")
	assert.Contains(t, got, "  ~ m1: b\n")
}
