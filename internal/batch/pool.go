package batch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"p95status/pkg/errors"
	"p95status/pkg/logger"
	"p95status/pkg/savefile"
)

// Job is one save file to decode. Index is the file's slot in the run.
type Job struct {
	Index int
	Name  string
	Path  string
}

// Result is the outcome of decoding one save file
type Result struct {
	Job      Job
	Record   *savefile.Record
	ModTime  time.Time
	Err      error
	Duration time.Duration
}

// DecodeFunc decodes the save file at path
type DecodeFunc func(path string) (*savefile.Record, error)

// WorkerPool decodes save files concurrently
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	decode      DecodeFunc
	logger      logger.Logger
}

// NewWorkerPool creates a pool of numWorkers decoders. A nil decode uses
// savefile.DecodeFile.
func NewWorkerPool(ctx context.Context, numWorkers int, decode DecodeFunc, log logger.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(ctx)

	if numWorkers < 1 {
		numWorkers = 1
	}
	if decode == nil {
		decode = savefile.DecodeFile
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		decode:      decode,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for the workers and closes Results.
// The results channel must be drained concurrently.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()

	wp.logger.Debug("Worker pool stopped")
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the channel of decode results
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			wp.logger.DebugWithFields("Worker stopping - context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		result := wp.processJob(job, id)

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	if info, err := os.Stat(job.Path); err == nil {
		result.ModTime = info.ModTime()
	}

	result.Record, result.Err = wp.decode(job.Path)
	result.Duration = time.Since(start)

	if result.Err != nil {
		result.Err = errors.WithPath(result.Err, job.Path)
	}

	wp.logger.DebugWithFields("Decoded save file", map[string]interface{}{
		"worker_id": workerID,
		"file":      job.Name,
		"duration":  result.Duration,
		"ok":        result.Err == nil,
	})

	return result
}
