package queue

import (
	"context"
	"time"

	"github.com/datasets-hub/orchestrator/go/cleanup"
	"github.com/datasets-hub/orchestrator/go/sklog"
)

// StartLeaseSweeper registers a periodic cleanup.Repeat tick that calls
// q.SweepExpiredLeases(ttl) every interval, returning crashed workers'
// STARTED jobs to WAITING. interval should be well below ttl so expired
// leases are reclaimed promptly. cmd/orchestratorctl does not start it; it
// calls SweepExpiredLeases once before planning instead.
func StartLeaseSweeper(q Queue, interval, ttl time.Duration) {
	cleanup.Repeat(interval, func(ctx context.Context) {
		swept, err := q.SweepExpiredLeases(ctx, ttl)
		if err != nil {
			sklog.Errorf("queue: sweeping expired leases: %v", err)
			return
		}
		if swept > 0 {
			sklog.Infof("queue: swept %d expired lease(s)", swept)
		}
	}, nil)
}
