package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"p95status/pkg/status"
)

// TUI represents the terminal user interface
type TUI struct {
	program  *tea.Program
	model    *Model
	requests chan struct{}
}

// NewTUI creates a dashboard for directory. Extra options are passed to the
// bubbletea program; the alternate screen is always used.
func NewTUI(directory string, opts ...tea.ProgramOption) *TUI {
	requests := make(chan struct{}, 1)
	model := NewModel(directory, requests)
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	program := tea.NewProgram(&model, opts...)

	return &TUI{
		program:  program,
		model:    &model,
		requests: requests,
	}
}

// Run shows the dashboard until the user quits or ctx is cancelled
func (t *TUI) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			t.program.Quit()
		case <-done:
		}
	}()

	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// Refreshes delivers the user's manual refresh requests
func (t *TUI) Refreshes() <-chan struct{} {
	return t.requests
}

// Refreshing marks a run triggered by changes to names as in progress
func (t *TUI) Refreshing(names []string) {
	t.Send(RefreshingMsg{Names: names})
}

// ShowReport replaces the dashboard contents with rep
func (t *TUI) ShowReport(rep *status.Report) {
	t.Send(SnapshotMsg{Report: rep, At: time.Now()})
}

// RunFailed reports a run that could not complete
func (t *TUI) RunFailed(err error) {
	t.Send(RunErrorMsg{Err: err})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	t.Send(LogMsg{Level: level, Message: message})
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

// LogWarning logs a warning message
func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}
