package status

import (
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"p95status/pkg/errors"
	"p95status/pkg/savefile"
	"p95status/pkg/ui"
)

// Output formats accepted by Write
const (
	FormatText  = "text"
	FormatTable = "table"
)

// DefaultMaxFailures is how many failed files the report lists before summarising
const DefaultMaxFailures = 10

// Entry is one successfully decoded save file
type Entry struct {
	Name    string
	Record  *savefile.Record
	ModTime time.Time
}

// Failure is one save file that could not be decoded
type Failure struct {
	Name    string
	Err     error
	ModTime time.Time
}

// Reason describes the failure without the file path
func (f Failure) Reason() string {
	var e *errors.Error
	if stderrors.As(f.Err, &e) {
		return e.Reason()
	}
	if f.Err == nil {
		return string(errors.ErrorTypeUnknown)
	}
	return f.Err.Error()
}

// Report is the outcome of one pass over a directory
type Report struct {
	Directory string
	Total     int
	Entries   []Entry
	Failures  []Failure
}

// Sort orders entries and failures by file name
func (r *Report) Sort() {
	sort.Slice(r.Entries, func(i, j int) bool { return r.Entries[i].Name < r.Entries[j].Name })
	sort.Slice(r.Failures, func(i, j int) bool { return r.Failures[i].Name < r.Failures[j].Name })
}

// Names returns the decoded file names in report order
func (r *Report) Names() []string {
	names := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		names[i] = e.Name
	}
	return names
}

// Messages maps every file in the report to its current status message.
// Failed files map to their failure reason.
func (r *Report) Messages() map[string]string {
	out := make(map[string]string, len(r.Entries)+len(r.Failures))
	for _, e := range r.Entries {
		out[e.Name] = Message(e.Record)
	}
	for _, f := range r.Failures {
		out[f.Name] = "FAILED " + f.Reason()
	}
	return out
}

// Options controls how a report is written
type Options struct {
	Format      string
	MaxFailures int
}

// Write renders rep to w in the requested format
func Write(w io.Writer, rep *Report, opts Options) error {
	switch opts.Format {
	case "", FormatText:
		return WriteText(w, rep, opts.MaxFailures)
	case FormatTable:
		return WriteTable(w, rep, opts.MaxFailures)
	default:
		return fmt.Errorf("unknown report format %q", opts.Format)
	}
}

// WriteText writes the plain console report: a header, one line per decoded
// file and a FAILED section
func WriteText(w io.Writer, rep *Report, maxFailures int) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Found %d backup files in '%s'\n", rep.Total, rep.Directory)

	width := NameWidth(rep.Names())
	for _, e := range rep.Entries {
		b.WriteString(Line(e.Name, width, e.Record))
		b.WriteByte('\n')
	}

	writeFailures(&b, rep.Failures, maxFailures)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFailures(b *strings.Builder, failures []Failure, maxFailures int) {
	if len(failures) == 0 {
		return
	}

	shown, rest := sampleFailures(failures, maxFailures)

	b.WriteString("\n")
	b.WriteString(ui.Red("FAILED:"))
	b.WriteString("\n")
	for _, f := range shown {
		fmt.Fprintf(b, "\t%s: %s\n", f.Name, ui.Dim(f.Reason()))
	}
	if rest > 0 {
		fmt.Fprintf(b, "\t... and %d more\n", rest)
	}
	b.WriteString("\n")
}

// sampleFailures returns the failures to print and how many were left out.
// A limit of zero or less prints all of them.
func sampleFailures(failures []Failure, limit int) ([]Failure, int) {
	if limit <= 0 || len(failures) <= limit {
		return failures, 0
	}
	return failures[:limit], len(failures) - limit
}
