package utils

import (
	"context"
	"sync"
	"time"
)

// WorkerPool runs jobs on a bounded number of goroutines and spaces job starts
// at least interval apart.
type WorkerPool struct {
	semaphore chan struct{}
	interval  time.Duration
	wg        sync.WaitGroup

	mu        sync.Mutex
	nextStart time.Time
}

// NewWorkerPool creates a WorkerPool with the given concurrency and start interval.
func NewWorkerPool(maxWorkers int, interval time.Duration) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &WorkerPool{
		semaphore: make(chan struct{}, maxWorkers),
		interval:  interval,
	}
}

// Submit runs job on a free worker. It blocks while all workers are busy and
// returns ctx.Err() without running job if ctx ends first.
func (wp *WorkerPool) Submit(ctx context.Context, job func(context.Context)) error {
	select {
	case wp.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if err := wp.throttle(ctx); err != nil {
			return
		}
		job(ctx)
	}()
	return nil
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// throttle reserves the next start slot and sleeps until it.
func (wp *WorkerPool) throttle(ctx context.Context) error {
	if wp.interval <= 0 {
		return nil
	}

	wp.mu.Lock()
	now := time.Now()
	start := wp.nextStart
	if start.Before(now) {
		start = now
	}
	wp.nextStart = start.Add(wp.interval)
	wp.mu.Unlock()

	timer := time.NewTimer(time.Until(start))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
