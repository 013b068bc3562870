// Package now provides a context-embedded clock so that code which records
// timestamps (created_at, updated_at, last_heartbeat, ...) can be tested
// without sleeping or mocking a global.
package now

import (
	"context"
	"time"
)

type contextKey int

// ContextKey is the context.Context key under which a clock value is stored.
// The value must be either a time.Time (a fixed instant) or a NowProvider.
const ContextKey contextKey = 0

// NowProvider returns the current time. Storing one under ContextKey lets a
// test advance or rewind the clock deterministically.
type NowProvider func() time.Time

// Now returns the current time as seen by ctx. If ctx carries no clock
// value, it returns the real wall-clock time. It panics if ctx carries a
// value under ContextKey of an unsupported type.
func Now(ctx context.Context) time.Time {
	v := ctx.Value(ContextKey)
	if v == nil {
		return time.Now()
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case NowProvider:
		return t()
	default:
		panic("now: invalid value stored under now.ContextKey")
	}
}

// TravelingContext is a context.Context whose Now() can be changed at will
// via SetTime, independent of the wall clock. Useful in tests that need to
// simulate the passage of time (lease expiry, staleness classification)
// without sleeping.
type TravelingContext struct {
	context.Context
	t *time.Time
}

// TimeTravelingContext returns a TravelingContext rooted at
// context.Background(), fixed at t.
func TimeTravelingContext(t time.Time) *TravelingContext {
	return (&TravelingContext{t: &t}).WithContext(context.Background())
}

// WithContext returns a copy of tc wrapping parent instead of its previous
// parent context, while preserving the current simulated time.
func (tc *TravelingContext) WithContext(parent context.Context) *TravelingContext {
	t := tc.t
	provider := NowProvider(func() time.Time { return *t })
	return &TravelingContext{
		Context: context.WithValue(parent, ContextKey, provider),
		t:       t,
	}
}

// SetTime moves the simulated clock to t. Every context derived from this
// TravelingContext (via WithContext) observes the change immediately.
func (tc *TravelingContext) SetTime(t time.Time) {
	*tc.t = t
}

// Advance moves the simulated clock forward by d.
func (tc *TravelingContext) Advance(d time.Duration) {
	*tc.t = tc.t.Add(d)
}
