package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task represents a unit of work processed by the pool.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
	// Done is false when the task was never run because ctx ended first.
	Done bool
}

// ProcessFunc is the function signature for processing a single task.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// ProgressFunc is called once per finished task with the number of finished
// tasks so far. Calls are serialised and the count is strictly increasing.
type ProgressFunc[T any] func(done, total int, input T)

// Pool is a generic worker pool with configurable concurrency.
type Pool[T any, R any] struct {
	workers  int
	process  ProcessFunc[T, R]
	progress ProgressFunc[T]
}

// NewPool creates a new worker pool.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		process: fn,
	}
}

// OnProgress installs a progress callback and returns the pool.
func (p *Pool[T, R]) OnProgress(fn ProgressFunc[T]) *Pool[T, R] {
	p.progress = fn
	return p
}

// Execute runs all inputs through the pool. Results keep input order.
// When ctx is cancelled, unstarted tasks are left with Done == false.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))
	for i := range inputs {
		results[i].Input = inputs[i]
	}
	inputCh := make(chan int)

	var (
		wg       sync.WaitGroup
		progress sync.Mutex
		finished int
	)

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range inputCh {
				result, err := p.process(ctx, inputs[idx])
				results[idx].Result = result
				results[idx].Err = err
				results[idx].Done = true
				if err != nil {
					log.Debug().Err(err).Int("worker", workerID).Int("index", idx).Msg("Task failed")
				}
				if p.progress != nil {
					progress.Lock()
					finished++
					p.progress(finished, len(inputs), inputs[idx])
					progress.Unlock()
				}
			}
		}(w)
	}

feed:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break feed
		case inputCh <- i:
		}
	}
	close(inputCh)

	wg.Wait()
	return results
}
