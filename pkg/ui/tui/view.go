package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// maxFailureRows bounds the failures panel
const maxFailureRows = 8

// View renders the entire TUI
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderFilesPanel(m.width-2))

	bottom := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderFailuresPanel((m.width-4)/2),
		"  ",
		m.renderLogsPanel((m.width-4)/2),
	)
	sections = append(sections, bottom)

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

// renderHeader shows the directory, counts and refresh state
func (m Model) renderHeader() string {
	title := titleStyle.Render(" p95status ")
	dir := countValueStyle.Render(m.directory)

	var state string
	switch {
	case m.refreshing:
		state = m.spinner.View() + " decoding..."
	case m.lastErr != nil:
		state = errorStyle.Render("run failed")
	case m.lastRefresh.IsZero():
		state = countLabelStyle.Render("waiting")
	default:
		state = countLabelStyle.Render("updated " + humanize.Time(m.lastRefresh))
	}

	counts := fmt.Sprintf("%s %s  %s %s",
		countLabelStyle.Render("Files:"), countValueStyle.Render(fmt.Sprint(m.total)),
		countLabelStyle.Render("Failed:"), failureCountStyle(len(m.failures)).Render(fmt.Sprint(len(m.failures))),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, title, " ", dir, "  ", counts, "  ", state)
}

// renderFilesPanel lists every decoded file with a progress bar
func (m Model) renderFilesPanel(width int) string {
	title := titleStyle.Render(" SAVE FILES ")

	if len(m.rows) == 0 {
		content := lipgloss.NewStyle().Foreground(colorMuted).Render("No save files decoded")
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, content),
		)
	}

	nameWidth := 0
	for _, r := range m.rows {
		nameWidth = max(nameWidth, len(r.Name))
	}

	var items []string
	for _, r := range m.rows {
		items = append(items, m.renderRow(r, nameWidth))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

// renderRow renders one save file: name, bar, estimate and status line
func (m Model) renderRow(r Row, nameWidth int) string {
	name := fileNameStyle.Render(fmt.Sprintf("%-*s", nameWidth, r.Name))

	bar := m.bar
	var gauge string
	if r.Progress.Available() {
		gauge = bar.ViewAs(r.Progress.Value)
	} else {
		gauge = progressEmptyStyle.Render(strings.Repeat("░", bar.Width) + "  n/a")
	}

	info := lipgloss.NewStyle().Foreground(colorMuted).Render(r.Message)
	return lipgloss.JoinHorizontal(lipgloss.Top, name, "  ", gauge, "  ", info)
}

// renderFailuresPanel renders files that could not be decoded
func (m Model) renderFailuresPanel(width int) string {
	title := titleStyle.Render(" FAILED ")

	if len(m.failures) == 0 {
		content := successStyle.Render("✓ all save files decoded")
		return panelStyle.Width(width).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, content),
		)
	}

	var items []string
	for i, f := range m.failures {
		if i == maxFailureRows {
			items = append(items, lipgloss.NewStyle().Foreground(colorMuted).Render(
				fmt.Sprintf("  ... and %d more", len(m.failures)-maxFailureRows)))
			break
		}
		reason := f.Reason
		if maxLen := width - len(f.Name) - 10; maxLen > 3 && len(reason) > maxLen {
			reason = reason[:maxLen-3] + "..."
		}
		items = append(items, errorStyle.Render("✗ "+f.Name)+" "+logMessageStyle.Render(reason))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

// renderLogsPanel renders the logs panel
func (m Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 10
	if start < 0 {
		start = 0
	}

	var logs []string
	for i := start; i < len(m.logMessages); i++ {
		log := m.logMessages[i]
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))

		// Truncate message if too long
		message := log.Message
		if maxMsgLen := width - 25; maxMsgLen > 3 && len(message) > maxMsgLen {
			message = message[:maxMsgLen-3] + "..."
		}

		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(message)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(colorMuted).Render("No logs yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp renders the help panel
func (m Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Quit
    r/R      - Decode the directory again now
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Progress:
    ` + successStyle.Render("█") + `        - exact or approximate estimate
    ` + progressEmptyStyle.Render("░ n/a") + `    - no estimate for this stage
`

	return panelStyle.Width(m.width - 2).Render(help)
}
