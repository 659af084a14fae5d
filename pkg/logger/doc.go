// Package logger provides structured logging for p95status.
//
// It wraps zerolog behind the Logger interface. Console output goes to stderr,
// colored only when stderr is a terminal, because stdout carries the status
// report. A log file can be added with LoggingConfig.File.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("run_id", runID).Info("Scanning directory")
//
// NewNopLogger and NewTestLogger serve tests.
package logger
