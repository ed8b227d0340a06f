// Package asyncx wraps the handful of goroutine patterns the service
// repeats: fire-and-forget sends, awaitable background work, bounded
// fan-out, and retry loops with backoff.
package asyncx

import (
	"context"
	"sync"
	"time"
)

// Do runs fn on its own goroutine. The caller never hears back; fn owns
// its error handling.
func Do(fn func()) {
	go fn()
}

type outcome[T any] struct {
	val T
	err error
}

// Future is a single value produced on another goroutine. Obtain one from
// Run and collect it with Await.
type Future[T any] struct {
	done chan outcome[T]

	mu     sync.Mutex
	cached *outcome[T]
}

// Run starts fn immediately and hands back a Future for its result.
func Run[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan outcome[T], 1)}
	go func() {
		v, err := fn()
		f.done <- outcome[T]{val: v, err: err}
	}()
	return f
}

// Await blocks until the work finishes. Calling it again returns the same
// result without blocking.
func (f *Future[T]) Await() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached == nil {
		o := <-f.done
		f.cached = &o
	}
	return f.cached.val, f.cached.err
}

// Pool maps fn over items with at most workers goroutines running at once.
// Results keep the input order. The first error wins; remaining queued
// items are still drained so no goroutine leaks.
func Pool[T any, R any](
	ctx context.Context,
	workers int,
	items []T,
	fn func(context.Context, T) (R, error),
) ([]R, error) {
	if workers <= 0 {
		workers = 1
	}

	type task struct {
		idx int
		it  T
	}
	feed := make(chan task, len(items))
	for i, it := range items {
		feed <- task{idx: i, it: it}
	}
	close(feed)

	results := make([]R, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for t := range feed {
				if ctx.Err() != nil {
					errs[t.idx] = ctx.Err()
					return
				}
				results[t.idx], errs[t.idx] = fn(ctx, t.it)
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Retry calls fn until it succeeds or attempts run out, with no pause
// between tries. The last error is returned on exhaustion.
func Retry[T any](ctx context.Context, attempts int, fn func(context.Context) (T, error)) (T, error) {
	return RetryWithBackoff(ctx, attempts, 0, fn)
}

// RetryWithBackoff is Retry with an exponential pause between failed
// attempts, starting at initialDelay and doubling. Cancellation is
// honored both before a try and during a pause.
func RetryWithBackoff[T any](
	ctx context.Context,
	attempts int,
	initialDelay time.Duration,
	fn func(context.Context) (T, error),
) (T, error) {
	var (
		zero  T
		last  error
		delay = initialDelay
	)
	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		last = err

		if i == attempts-1 || delay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return zero, last
}

// WithTimeout runs fn under a deadline of d. When the deadline fires
// first the context error is returned; fn keeps the derived context and
// is expected to notice the cancellation.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome[T]{val: v, err: err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case o := <-done:
		return o.val, o.err
	}
}
