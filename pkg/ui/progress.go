package ui

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// RunTracker keeps track of watch mode runs on the console
type RunTracker struct {
	Runs      int
	Changed   int
	StartTime time.Time
	now       func() time.Time
}

// NewRunTracker creates a new run tracker
func NewRunTracker() *RunTracker {
	return &RunTracker{
		StartTime: time.Now(),
		now:       time.Now,
	}
}

// Begin records the start of a run triggered by changes to names.
// The first run has no trigger.
func (rt *RunTracker) Begin(names []string) {
	rt.Runs++
	rt.Changed += len(names)
}

// Header returns the line printed above each report
func (rt *RunTracker) Header(names []string) string {
	stamp := rt.now().Format("15:04:05")
	label := Magenta(fmt.Sprintf("[RUN %d]", rt.Runs))
	if len(names) == 0 {
		return fmt.Sprintf("%s %s", label, Dim(stamp))
	}
	return fmt.Sprintf("%s %s changed: %s", label, Dim(stamp), Yellow(strings.Join(names, ", ")))
}

// PrintHeader writes the run header followed by a newline
func (rt *RunTracker) PrintHeader(w io.Writer, names []string) {
	fmt.Fprintln(w, rt.Header(names))
}

// PrintChange writes one status transition
func (rt *RunTracker) PrintChange(w io.Writer, name, before, after string) {
	switch {
	case before == "":
		fmt.Fprintf(w, "  %s %s: %s\n", Green("+"), name, after)
	case after == "":
		fmt.Fprintf(w, "  %s %s\n", Red("-"), name)
	default:
		fmt.Fprintf(w, "  %s %s: %s\n", Cyan("~"), name, after)
	}
}

// GetElapsedTime returns the elapsed time since tracking started
func (rt *RunTracker) GetElapsedTime() time.Duration {
	return rt.now().Sub(rt.StartTime)
}

// Bar renders fraction in [0,1] as a fixed width bar
func Bar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	switch {
	case fraction < 0 || fraction != fraction:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	filled := int(fraction * float64(width))
	return strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, width-filled)
}
