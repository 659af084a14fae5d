package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"p95status/pkg/savefile"
	"p95status/pkg/status"
)

// Row is one decoded save file on the dashboard
type Row struct {
	Name     string
	Work     string
	Stage    string
	Message  string
	Progress savefile.Estimate
	ModTime  time.Time
}

// FailureRow is one save file that could not be decoded
type FailureRow struct {
	Name   string
	Reason string
}

// Model represents the dashboard state
type Model struct {
	// UI components
	spinner spinner.Model
	bar     progress.Model

	// Latest run
	directory   string
	rows        []Row
	failures    []FailureRow
	total       int
	runs        int
	lastRefresh time.Time
	refreshing  bool
	lastErr     error

	// Manual refresh requests, drained by the watch loop
	requests chan<- struct{}

	// UI state
	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a dashboard for directory. Pressing r sends on requests
// when it is non-nil.
func NewModel(directory string, requests chan<- struct{}) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 30

	return Model{
		spinner:        s,
		bar:            p,
		directory:      directory,
		requests:       requests,
		refreshing:     true,
		logMessages:    []LogMessage{},
		maxLogMessages: 50,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// ApplyReport replaces the dashboard rows with the outcome of a run
func (m *Model) ApplyReport(rep *status.Report, at time.Time) {
	m.rows = m.rows[:0]
	for _, e := range rep.Entries {
		m.rows = append(m.rows, Row{
			Name:     e.Name,
			Work:     string(e.Record.WorkType),
			Stage:    status.StageLabel(e.Record),
			Message:  status.Message(e.Record),
			Progress: e.Record.Progress(),
			ModTime:  e.ModTime,
		})
	}

	m.failures = m.failures[:0]
	for _, f := range rep.Failures {
		m.failures = append(m.failures, FailureRow{Name: f.Name, Reason: f.Reason()})
	}

	m.directory = rep.Directory
	m.total = rep.Total
	m.runs++
	m.lastRefresh = at
	m.refreshing = false
	m.lastErr = nil
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	color := colorMuted
	switch level {
	case "ERROR":
		color = colorError
	case "WARN":
		color = colorCaution
	case "SUCCESS":
		color = colorOK
	case "INFO":
		color = colorAccent
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	// Keep only the last N messages
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Rows returns the decoded files of the latest run
func (m Model) Rows() []Row {
	return m.rows
}

// Failures returns the failed files of the latest run
func (m Model) Failures() []FailureRow {
	return m.failures
}

// requestRefresh asks the watch loop for a new run without blocking
func (m *Model) requestRefresh() bool {
	if m.requests == nil {
		return false
	}
	select {
	case m.requests <- struct{}{}:
		return true
	default:
		// a refresh is already queued
		return false
	}
}
