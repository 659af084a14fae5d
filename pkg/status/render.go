package status

import (
	"fmt"
	"strings"

	"p95status/pkg/savefile"
)

// MaxNameWidth caps the filename column
const MaxNameWidth = 20

// NameWidth returns the filename column width for names: the longest name,
// capped at MaxNameWidth
func NameWidth(names []string) int {
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}
	return min(width, MaxNameWidth)
}

// Line renders one status line: the name padded to width, then the message
func Line(name string, width int, rec *savefile.Record) string {
	return fmt.Sprintf("%-*s | %s", width, name, Message(rec))
}

// Message describes the progress of rec in one line
func Message(rec *savefile.Record) string {
	switch rec.WorkType {
	case savefile.WorkECM:
		if rec.ECM != nil {
			return ecmMessage(rec.ECM)
		}
	case savefile.WorkPMinus1:
		if rec.PMinus1 != nil {
			return pminus1Message(rec.PMinus1, rec.PctComplete)
		}
	case savefile.WorkLLTest:
		if rec.Primality != nil {
			return primalityMessage("LL", rec)
		}
	case savefile.WorkPRPTest:
		if rec.Primality != nil {
			return primalityMessage("PRP", rec)
		}
	case savefile.WorkFactor:
		return "FACTOR | *unhandled*"
	}
	return fmt.Sprintf("UNKNOWN work=0x%08X", rec.Magic)
}

func ecmMessage(d *savefile.ECMData) string {
	msg := fmt.Sprintf("ECM | Curve %d | Stage %d", d.Curve, d.Stage)
	if d.Progress.Available() {
		msg += fmt.Sprintf(" (%s)", d.Progress)
	}
	return msg
}

func pminus1Message(d *savefile.PMinus1Data, pct float64) string {
	switch d.Stage {
	case savefile.PMinus1B1Pre:
		return fmt.Sprintf("P-1 | Stage 1 (%s) B1 <= %d", d.Progress, d.B1Guess)

	case savefile.PMinus1B1:
		if pct >= 1 {
			return fmt.Sprintf("P-1 | B1=%d complete", d.B1Guess)
		}
		return fmt.Sprintf("P-1 | Stage 1 (%s) B1 @ %d", d.Progress, d.B1Guess)

	case savefile.PMinus1B2:
		msg := fmt.Sprintf("P-1 | B1=%d complete, Stage 2", d.B1Guess)
		if d.Progress.Available() {
			msg += fmt.Sprintf(" (%s)", d.Progress)
		}
		return msg

	case savefile.PMinus1Done:
		var b strings.Builder
		fmt.Fprintf(&b, "P-1 | B1=%d", d.B1Guess)
		if d.B2Guess > d.B1Guess {
			fmt.Fprintf(&b, ", B2=%d", d.B2Guess)
			if d.E >= 2 {
				fmt.Fprintf(&b, ", E=%d", d.E)
			}
		}
		b.WriteString(" complete")
		return b.String()
	}
	return fmt.Sprintf("P-1 | UNKNOWN STAGE=%s", d.Stage)
}

func primalityMessage(label string, rec *savefile.Record) string {
	return fmt.Sprintf("%s | Iteration %d/%d [%.2f%%]",
		label, rec.Primality.Iterations, rec.N, rec.PctComplete*100)
}

// StageLabel returns a short stage name for tabular output
func StageLabel(rec *savefile.Record) string {
	switch {
	case rec.ECM != nil:
		return fmt.Sprintf("%d", rec.ECM.Stage)
	case rec.PMinus1 != nil:
		return string(rec.PMinus1.Stage)
	case rec.Primality != nil:
		return fmt.Sprintf("%d/%d", rec.Primality.Iterations, rec.N)
	}
	return "-"
}
