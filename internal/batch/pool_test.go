package batch

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"p95status/pkg/errors"
	"p95status/pkg/logger"
	"p95status/pkg/savefile"
)

type countingDecoder struct {
	calls int32
	delay time.Duration
	fail  map[string]bool
}

func (d *countingDecoder) decode(path string) (*savefile.Record, error) {
	atomic.AddInt32(&d.calls, 1)
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if d.fail[path] {
		return nil, errors.New(errors.ErrorTypeTruncated, "short")
	}
	return &savefile.Record{WorkType: savefile.WorkFactor}, nil
}

func TestWorkerPoolProcessesEveryJob(t *testing.T) {
	dec := &countingDecoder{delay: time.Millisecond, fail: map[string]bool{"/d/3": true}}
	pool := NewWorkerPool(context.Background(), 3, dec.decode, logger.NewNopLogger())
	pool.Start()

	const jobs = 10
	go func() {
		defer pool.Stop()
		for i := 0; i < jobs; i++ {
			assert.NoError(t, pool.Submit(Job{Index: i, Name: fmt.Sprint(i), Path: fmt.Sprintf("/d/%d", i)}))
		}
	}()

	seen := make(map[int]Result)
	for res := range pool.Results() {
		seen[res.Job.Index] = res
	}

	assert.Len(t, seen, jobs)
	assert.Equal(t, int32(jobs), atomic.LoadInt32(&dec.calls))
	assert.ErrorIs(t, seen[3].Err, errors.ErrTruncated)
	assert.Contains(t, seen[3].Err.Error(), "/d/3")
	assert.NoError(t, seen[4].Err)
}

func TestWorkerPoolSubmitAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dec := &countingDecoder{}
	pool := NewWorkerPool(ctx, 1, dec.decode, logger.NewNopLogger())
	pool.Start()

	cancel()
	// fill the queue so Submit must observe the cancellation
	var err error
	for i := 0; i < 10 && err == nil; i++ {
		err = pool.Submit(Job{Index: i})
	}
	assert.Error(t, err)

	done := make(chan struct{})
	go func() {
		for range pool.Results() {
		}
		close(done)
	}()
	pool.Stop()
	<-done
}

func TestWorkerPoolClampsWorkers(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 0, nil, logger.NewNopLogger())
	assert.Equal(t, 1, pool.numWorkers)
	pool.Start()
	pool.Stop()
}
