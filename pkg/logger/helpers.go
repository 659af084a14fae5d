package logger

import (
	"time"

	"github.com/rs/zerolog"

	"p95status/pkg/errors"
)

// LogDecodeFailure records a save file that could not be decoded. Layout
// problems are warnings; a file that could not be read at all is an error.
func LogDecodeFailure(l Logger, name string, err error) {
	errorType := errors.TypeOf(err)
	fields := map[string]interface{}{
		"file":       name,
		"error_type": string(errorType),
		"error":      err,
	}
	if errors.IsDecodeFailure(errorType) {
		l.WarnWithFields("Save file skipped", fields)
		return
	}
	l.ErrorWithFields("Save file unreadable", fields)
}

// LogRunSummary records the outcome of one pass over a directory
func LogRunSummary(l Logger, directory string, total, failed int, elapsed time.Duration) {
	fields := map[string]interface{}{
		"directory": directory,
		"total":     total,
		"decoded":   total - failed,
		"failed":    failed,
		"elapsed":   elapsed,
	}
	if failed > 0 {
		l.WarnWithFields("Status run finished with failures", fields)
		return
	}
	l.InfoWithFields("Status run finished", fields)
}

// LogComponentStart records that a long-running component is up
func LogComponentStart(l Logger, component string, settings map[string]interface{}) {
	l = l.WithField("component", component)
	if len(settings) > 0 {
		l = l.WithFields(settings)
	}
	l.Info("Component started")
}

// LogComponentStop records why a long-running component ended
func LogComponentStop(l Logger, component, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Debug("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
