package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"p95status/pkg/status"
)

// Message types for the TUI

// SnapshotMsg carries the report of a finished run
type SnapshotMsg struct {
	Report *status.Report
	At     time.Time
}

// RefreshingMsg is sent when a run starts. Names lists the save files whose
// changes triggered it and is empty for the first run and manual refreshes.
type RefreshingMsg struct {
	Names []string
}

// RunErrorMsg is sent when a run could not complete
type RunErrorMsg struct {
	Err error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RefreshingMsg:
		m.refreshing = true
		if len(msg.Names) > 0 {
			m.AddLogMessage("INFO", "Changed: "+strings.Join(msg.Names, ", "))
		}
		return m, m.spinner.Tick

	case SnapshotMsg:
		if msg.Report == nil {
			return m, nil
		}
		m.ApplyReport(msg.Report, msg.At)
		level := "SUCCESS"
		if len(msg.Report.Failures) > 0 {
			level = "WARN"
		}
		m.AddLogMessage(level, fmt.Sprintf("Decoded %d of %d save files",
			len(msg.Report.Entries), msg.Report.Total))
		return m, nil

	case RunErrorMsg:
		m.refreshing = false
		m.lastErr = msg.Err
		if msg.Err != nil {
			m.AddLogMessage("ERROR", msg.Err.Error())
		}
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "r", "R":
		if m.requestRefresh() {
			m.AddLogMessage("INFO", "Refresh requested")
		}
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = []LogMessage{}
		return m, nil
	}

	return m, nil
}
