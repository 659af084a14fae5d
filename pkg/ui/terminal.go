package ui

import (
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

var colorEnabled atomic.Bool

func init() {
	colorEnabled.Store(term.IsTerminal(int(os.Stdout.Fd())))
}

// SetColorEnabled switches ANSI output on or off for every color function
func SetColorEnabled(enabled bool) {
	colorEnabled.Store(enabled)
}

// ColorEnabled reports whether color functions emit escape codes
func ColorEnabled() bool {
	return colorEnabled.Load()
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colorEnabled.Load() {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintError prints an error message in red to stderr
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(os.Stderr, Red(msg))
	}
}

// PrintWarning prints a warning message in yellow to stderr
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(os.Stderr, Yellow(msg))
	}
}
