package evaluation

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// TaskExecutor runs background tasks for parallel cursors. Go must not
// block the caller until the task completes.
type TaskExecutor interface {
	Go(task func())
}

// GoExecutor runs every task on its own goroutine.
type GoExecutor struct{}

func (GoExecutor) Go(task func()) { go task() }

// WorkerPool runs tasks with bounded concurrency and provides generic
// order-preserving parallel execution.
//
// Tasks that wait for other tasks of the same pool, such as nested
// parallel joins, need a pool larger than the nesting depth.
type WorkerPool struct {
	workerCount int
	sem         *semaphore.Weighted
}

// NewWorkerPool creates a new worker pool
// workerCount: number of worker goroutines (0 = use NumCPU)
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	return &WorkerPool{
		workerCount: workerCount,
		sem:         semaphore.NewWeighted(int64(workerCount)),
	}
}

// Go schedules task once a worker slot is free.
func (p *WorkerPool) Go(task func()) {
	go func() {
		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			log.WithError(err).Warn("worker pool: acquire failed")
			return
		}
		defer p.sem.Release(1)
		task()
	}()
}

// ExecuteParallel executes operation on all inputs using worker pool
// Results are returned in the same order as inputs (order-preserving).
//
// Returns: Results in same order as inputs, or error from first failure
func (p *WorkerPool) ExecuteParallel(
	ctx Context,
	inputs []interface{},
	operation func(Context, interface{}) (interface{}, error),
) ([]interface{}, error) {
	if len(inputs) == 0 {
		return []interface{}{}, nil
	}

	results := make([]interface{}, len(inputs))
	errors := make([]error, len(inputs))

	jobs := make(chan int, len(inputs))

	var wg sync.WaitGroup
	workers := p.workerCount
	if workers > len(inputs) {
		workers = len(inputs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				result, err := operation(ctx, inputs[idx])
				results[idx] = result
				errors[idx] = err
			}
		}()
	}

	for i := range inputs {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	// Check for errors (return first error found)
	for i, err := range errors {
		if err != nil {
			return results, fmt.Errorf("parallel execution failed at index %d: %w", i, err)
		}
	}

	return results, nil
}

// GetWorkerCount returns the number of worker goroutines
func (p *WorkerPool) GetWorkerCount() int {
	return p.workerCount
}
