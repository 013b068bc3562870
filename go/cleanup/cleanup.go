// Package cleanup runs periodic background ticks (such as the lease
// sweeper) and guarantees their registered shutdown hooks fire exactly
// once, in reverse registration order, when Cleanup is called.
package cleanup

import (
	"context"
	"sync"
	"time"
)

var (
	mu    sync.Mutex
	stops []func()
)

// Repeat calls f every interval, starting immediately, until Cleanup is
// called, at which point it calls cleanup (if non-nil) exactly once and
// stops ticking.
func Repeat(interval time.Duration, f func(ctx context.Context), cleanup func()) {
	ctx, cancel := context.WithCancel(context.Background())
	ticker := time.NewTicker(interval)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f(ctx)
		for {
			select {
			case <-ticker.C:
				f(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	mu.Lock()
	stops = append(stops, func() {
		cancel()
		ticker.Stop()
		<-done
		if cleanup != nil {
			cleanup()
		}
	})
	mu.Unlock()
}

// Cleanup stops every func registered via Repeat, most-recently-registered
// first, and waits for each to finish before returning.
func Cleanup() {
	mu.Lock()
	toStop := stops
	stops = nil
	mu.Unlock()

	for i := len(toStop) - 1; i >= 0; i-- {
		toStop[i]()
	}
}

// reset clears registered stop funcs without invoking them. Test-only.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	stops = nil
}
