package status

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"p95status/pkg/savefile"
	"p95status/pkg/ui"
)

var tableHeaders = table.Row{"File", "Work", "Stage", "Progress", "Status", "Modified"}

// WriteTable writes the report as a bordered table. Failed files follow the
// decoded ones with their reason in the Status column.
func WriteTable(w io.Writer, rep *Report, maxFailures int) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(fmt.Sprintf("%d backup files in '%s'", rep.Total, rep.Directory))
	tw.AppendHeader(tableHeaders)

	for _, e := range rep.Entries {
		tw.AppendRow(table.Row{
			e.Name,
			string(e.Record.WorkType),
			StageLabel(e.Record),
			progressCell(e.Record.Progress()),
			Message(e.Record),
			modified(e.ModTime),
		})
	}

	shown, rest := sampleFailures(rep.Failures, maxFailures)
	if len(shown) > 0 {
		tw.AppendSeparator()
	}
	for _, f := range shown {
		tw.AppendRow(table.Row{f.Name, "-", "-", "-", "FAILED " + f.Reason(), modified(f.ModTime)})
	}
	if rest > 0 {
		tw.AppendRow(table.Row{"...", "", "", "", fmt.Sprintf("and %d more failed", rest), ""})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, WidthMax: 60},
	})

	var b strings.Builder
	b.WriteString(tw.Render())
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// progressBarWidth is the width of the bar in the Progress column
const progressBarWidth = 10

func progressCell(est savefile.Estimate) string {
	if !est.Available() {
		return "-"
	}
	return ui.Bar(est.Value, progressBarWidth) + " " + est.String()
}

func modified(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
