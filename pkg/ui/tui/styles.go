package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent  = lipgloss.Color("#5FD7FF")
	colorFrame   = lipgloss.Color("#AF87FF")
	colorOK      = lipgloss.Color("#87D75F")
	colorValue   = lipgloss.Color("#FFD75F")
	colorCaution = lipgloss.Color("#FF875F")
	colorError   = lipgloss.Color("#FF5F5F")
	colorScreen  = lipgloss.Color("#101418")
	colorPanel   = lipgloss.Color("#1C2128")
	colorMuted   = lipgloss.Color("#A8A8A8")
	colorBright  = lipgloss.Color("#EEEEEE")

	// Base styles
	baseStyle = lipgloss.NewStyle().
			Background(colorScreen).
			Foreground(colorMuted)

	// Panel styles
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorFrame).
			Background(colorPanel).
			Padding(0, 1)

	progressEmptyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#333333"))

	// Stats styles
	countLabelStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	countValueStyle = lipgloss.NewStyle().
			Foreground(colorValue)

	fileNameStyle = lipgloss.NewStyle().
			Foreground(colorBright).
			Bold(true)

	// Status styles
	successStyle = lipgloss.NewStyle().
			Foreground(colorOK).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorCaution).
			Bold(true)

	// Log styles
	logTimestampStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))

	logMessageStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Help style
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(1, 0, 0, 2)

	// Title styles for panels
	titleStyle = lipgloss.NewStyle().
			Background(colorFrame).
			Foreground(colorScreen).
			Bold(true).
			Padding(0, 1)
)

// failureCountStyle colours the failure counter
func failureCountStyle(failed int) lipgloss.Style {
	switch {
	case failed == 0:
		return successStyle
	case failed < 3:
		return warningStyle
	default:
		return errorStyle
	}
}
