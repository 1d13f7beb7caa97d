package workers

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"sync"
)

// OverrideEnv names the environment variable that fixes the worker count.
const OverrideEnv = "RENDER_WORKERS"

// Count returns the number of workers for a task type. It respects
// container CPU limits via GOMAXPROCS.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks (decoding, resampling)
//   - 2.0 for I/O-bound tasks
//
// The limit parameter caps the worker count. Use 0 for no limit.
// RENDER_WORKERS overrides the computed value.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(OverrideEnv); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// Limiter bounds how many renders run at once. Each decode of a large
// original holds its full bitmap, so concurrency is memory.
type Limiter struct {
	slots chan struct{}
}

// NewLimiter returns a Limiter admitting n concurrent holders. n < 1 is
// treated as 1.
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *Limiter) Release() {
	<-l.slots
}

// Size is the number of slots.
func (l *Limiter) Size() int {
	return cap(l.slots)
}

// InUse is the number of slots currently held.
func (l *Limiter) InUse() int {
	return len(l.slots)
}

// Each calls fn for every item using at most n goroutines and waits for
// them all. Items not yet started when ctx is cancelled are skipped and
// ctx.Err() is returned.
func Each[T any](ctx context.Context, n int, items []T, fn func(context.Context, T)) error {
	if n < 1 {
		n = 1
	}
	jobs := make(chan T)
	var wg sync.WaitGroup
	for range min(n, len(items)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				fn(ctx, item)
			}
		}()
	}

	var err error
feed:
	for _, item := range items {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case jobs <- item:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return err
}
