// Package planner reconciles the graph, cache and queue into the minimal
// set of queue edits needed to make progress: BackfillPlanner for a full
// dataset scan, AfterJobPlanner for the fan-out triggered by one finished
// job.
package planner

import (
	"context"
	"fmt"

	"github.com/datasets-hub/orchestrator/queue"
)

// Plan is a pending batch of queue edits: computed, then optionally
// applied via Run. Computing a Plan never mutates the queue.
type Plan struct {
	CreateJobs []queue.CreateJobParams
}

// Response renders p the way spec.md's end-to-end scenarios describe it:
// a single "CreateJobs,N" entry when non-empty, nothing otherwise.
func (p Plan) Response() []string {
	if len(p.CreateJobs) == 0 {
		return nil
	}
	return []string{fmt.Sprintf("CreateJobs,%d", len(p.CreateJobs))}
}

// Run applies p to q. CreateJobs batches through Queue.CreateJobs, which
// dedups against both the batch itself and any existing WAITING row, so
// Run is safe to call even if some of p's entries are already pending.
func (p Plan) Run(ctx context.Context, q queue.Queue) error {
	if len(p.CreateJobs) == 0 {
		return nil
	}
	return q.CreateJobs(ctx, p.CreateJobs)
}
