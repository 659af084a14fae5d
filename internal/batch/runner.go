package batch

import (
	"context"
	"path/filepath"
	"time"

	"p95status/pkg/logger"
	"p95status/pkg/scanner"
	"p95status/pkg/status"
)

// Runner scans a directory and decodes every save file in it
type Runner struct {
	scanner *scanner.Scanner
	workers int
	decode  DecodeFunc
	logger  logger.Logger
}

// NewRunner creates a Runner. A nil decode uses savefile.DecodeFile.
func NewRunner(sc *scanner.Scanner, workers int, decode DecodeFunc, log logger.Logger) *Runner {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Runner{scanner: sc, workers: workers, decode: decode, logger: log}
}

// Run decodes every matching file in dir. A file that cannot be decoded becomes
// a report failure; only an unreadable directory or cancellation fail the run.
func (r *Runner) Run(ctx context.Context, dir string) (*status.Report, error) {
	start := time.Now()

	names, err := r.scanner.Scan(dir)
	if err != nil {
		return nil, err
	}

	slots, err := r.decodeAll(ctx, dir, names)
	if err != nil {
		return nil, err
	}

	rep := &status.Report{Directory: dir, Total: len(names)}
	for _, res := range slots {
		if res.Err != nil {
			logger.LogDecodeFailure(r.logger, res.Job.Name, res.Err)
			rep.Failures = append(rep.Failures, status.Failure{
				Name:    res.Job.Name,
				Err:     res.Err,
				ModTime: res.ModTime,
			})
			continue
		}
		rep.Entries = append(rep.Entries, status.Entry{
			Name:    res.Job.Name,
			Record:  res.Record,
			ModTime: res.ModTime,
		})
	}
	rep.Sort()

	logger.LogRunSummary(r.logger, dir, rep.Total, len(rep.Failures), time.Since(start))
	return rep, nil
}

// decodeAll runs every file through the pool and returns one result per name,
// in the order of names
func (r *Runner) decodeAll(ctx context.Context, dir string, names []string) ([]Result, error) {
	slots := make([]Result, len(names))
	if len(names) == 0 {
		return slots, nil
	}

	pool := NewWorkerPool(ctx, min(r.workers, len(names)), r.decode, r.logger)
	pool.Start()

	go func() {
		defer pool.Stop()
		for i, name := range names {
			job := Job{Index: i, Name: name, Path: filepath.Join(dir, name)}
			if err := pool.Submit(job); err != nil {
				return
			}
		}
	}()

	for res := range pool.Results() {
		slots[res.Job.Index] = res
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}
