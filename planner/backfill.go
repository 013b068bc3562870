package planner

import (
	"context"

	"github.com/datasets-hub/orchestrator/config"
	"github.com/datasets-hub/orchestrator/processing"
	"github.com/datasets-hub/orchestrator/queue"
	"github.com/datasets-hub/orchestrator/state"
)

// BackfillPlanner computes the full reconciliation pass: walk a dataset
// revision's entire artifact tree and create exactly one job for every
// artifact that needs one and doesn't already have one pending. Applying
// a BackfillPlanner's Plan twice in a row with no intervening job
// completions yields an empty second Plan (spec.md §8's idempotence
// invariant). Unlike AfterJobPlanner, it never applies the big-dataset
// difficulty bonus (spec.md §8 scenario 5 scopes that to AfterJobPlanner
// only), so it has no need of a cache.Store of its own beyond builder's.
type BackfillPlanner struct {
	graph   *processing.Graph
	builder *state.Builder
	cfg     config.Config
}

// NewBackfillPlanner wires a BackfillPlanner to graph (for the production
// processing graph) and builder (for state assembly).
func NewBackfillPlanner(graph *processing.Graph, builder *state.Builder, cfg config.Config) *BackfillPlanner {
	return &BackfillPlanner{graph: graph, builder: builder, cfg: cfg}
}

// Plan assembles dataset's current state and returns the jobs needed to
// bring every non-up-to-date, non-pending artifact in process.
func (p *BackfillPlanner) Plan(ctx context.Context, dataset, revision string, priority queue.Priority) (Plan, error) {
	ds, err := p.builder.Build(ctx, dataset, revision)
	if err != nil {
		return Plan{}, err
	}

	var creates []queue.CreateJobParams
	for _, a := range ds.AllArtifacts() {
		if !a.Classification.NeedsJob() || a.InProcess {
			continue
		}
		// spec.md §8 scenario 5: the big-dataset difficulty bonus only ever
		// applies to jobs AfterJobPlanner creates in reaction to a finished
		// job, never to BackfillPlanner's reconciliation pass.
		creates = append(creates, queue.CreateJobParams{
			Type:       a.Step.Name,
			Dataset:    dataset,
			Revision:   revision,
			Config:     a.ID.Config,
			Split:      a.ID.Split,
			Priority:   priority,
			Difficulty: computeDifficulty(p.cfg, a.Step, false, a.FailedRuns),
		})
	}
	return Plan{CreateJobs: creates}, nil
}
