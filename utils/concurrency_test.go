package utils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(4, 0)
	var done int64
	for i := 0; i < 50; i++ {
		if err := pool.Submit(context.Background(), func(context.Context) {
			atomic.AddInt64(&done, 1)
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	pool.Wait()

	if done != 50 {
		t.Errorf("expected 50 completed jobs, got %d", done)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2, 0)
	var running, peak int64
	for i := 0; i < 10; i++ {
		_ = pool.Submit(context.Background(), func(context.Context) {
			n := atomic.AddInt64(&running, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&running, -1)
		})
	}
	pool.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency %d exceeds pool size 2", peak)
	}
}

func TestWorkerPoolSpacesStarts(t *testing.T) {
	interval := 100 * time.Millisecond
	pool := NewWorkerPool(3, interval)

	var (
		mu         sync.Mutex
		timestamps []time.Time
	)
	for i := 0; i < 3; i++ {
		_ = pool.Submit(context.Background(), func(context.Context) {
			mu.Lock()
			timestamps = append(timestamps, time.Now())
			mu.Unlock()
		})
	}
	pool.Wait()

	if len(timestamps) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(timestamps))
	}
	first, last := timestamps[0], timestamps[0]
	for _, ts := range timestamps[1:] {
		if ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	// three starts need two full intervals between the first and the last
	if gap := last.Sub(first); gap < 2*interval-10*time.Millisecond {
		t.Errorf("starts spread over %v; want at least %v", gap, 2*interval)
	}
}

func TestWorkerPoolSubmitCancelled(t *testing.T) {
	pool := NewWorkerPool(1, 0)
	release := make(chan struct{})
	_ = pool.Submit(context.Background(), func(context.Context) { <-release })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := false
	err := pool.Submit(ctx, func(context.Context) { ran = true })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v; want context.Canceled", err)
	}

	close(release)
	pool.Wait()
	if ran {
		t.Error("job ran after its context was cancelled")
	}
}
