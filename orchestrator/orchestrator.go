// Package orchestrator is the facade spec.md §4.1 calls "the Orchestrator":
// the handful of entry points (SetRevision, BackfillDataset, FinishJob,
// RemoveDataset, HasPendingAncestorJobs) every caller outside this module
// goes through. It never exposes the Queue, cache.Store or ProcessingGraph
// directly.
package orchestrator

import (
	"context"

	"github.com/datasets-hub/orchestrator/cache"
	"github.com/datasets-hub/orchestrator/config"
	"github.com/datasets-hub/orchestrator/go/sklog"
	"github.com/datasets-hub/orchestrator/planner"
	"github.com/datasets-hub/orchestrator/processing"
	"github.com/datasets-hub/orchestrator/queue"
	"github.com/datasets-hub/orchestrator/state"
)

// Orchestrator wires together the graph, queue and cache store and
// exposes the operations spec.md §4.1 names. Construct one per process
// with New and share by reference.
type Orchestrator struct {
	graph    *processing.Graph
	queue    queue.Queue
	store    cache.Store
	cfg      config.Config
	builder  *state.Builder
	backfill *planner.BackfillPlanner
	afterJob *planner.AfterJobPlanner
	notifier *queue.Notifier
}

// New wires an Orchestrator from its four dependencies.
func New(graph *processing.Graph, q queue.Queue, store cache.Store, cfg config.Config) *Orchestrator {
	builder := state.NewBuilder(graph, q, store, cfg)
	return &Orchestrator{
		graph:    graph,
		queue:    q,
		store:    store,
		cfg:      cfg,
		builder:  builder,
		backfill: planner.NewBackfillPlanner(graph, builder, cfg),
		afterJob: planner.NewAfterJobPlanner(graph, store, cfg),
	}
}

// SetNotifier attaches a best-effort wake-up publisher: every call that
// creates at least one job publishes to it afterwards, so idle workers
// subscribed via queue.Subscriber skip their poll interval. Passing nil
// (the default) disables this; WakeWorkers on a nil *queue.Notifier is a
// no-op, so callers never need to nil-check before calling SetNotifier.
func (o *Orchestrator) SetNotifier(n *queue.Notifier) {
	o.notifier = n
}

// SetRevision seeds dataset at revision: it only creates jobs for the
// graph's first_processing_steps (a cheap, root-only plan), leaving the
// rest of the tree to be discovered incrementally as those jobs finish.
// Existing pending jobs for the root steps are left untouched (AddJob is
// idempotent), matching the spec's "handle existing jobs" boundary case.
func (o *Orchestrator) SetRevision(ctx context.Context, dataset, revision string, priority queue.Priority) ([]string, error) {
	ds, err := o.builder.BuildRoot(ctx, dataset, revision)
	if err != nil {
		return nil, err
	}
	var creates []queue.CreateJobParams
	for _, a := range ds.Artifacts {
		if a.InProcess {
			continue
		}
		creates = append(creates, queue.CreateJobParams{
			Type: a.Step.Name, Dataset: dataset, Revision: revision,
			Priority: priority, Difficulty: a.Step.Difficulty,
		})
	}
	plan := planner.Plan{CreateJobs: creates}
	if err := plan.Run(ctx, o.queue); err != nil {
		return nil, err
	}
	sklog.Infof("set_revision: dataset=%s revision=%s created=%d", dataset, revision, len(creates))
	if len(creates) > 0 {
		o.notifier.WakeWorkers(ctx)
	}
	return plan.Response(), nil
}

// BackfillDataset runs a full reconciliation pass over dataset at
// revision and applies it.
func (o *Orchestrator) BackfillDataset(ctx context.Context, dataset, revision string, priority queue.Priority) ([]string, error) {
	plan, err := o.backfill.Plan(ctx, dataset, revision, priority)
	if err != nil {
		return nil, err
	}
	if err := plan.Run(ctx, o.queue); err != nil {
		return nil, err
	}
	if len(plan.CreateJobs) > 0 {
		o.notifier.WakeWorkers(ctx)
	}
	return plan.Response(), nil
}

// FinishJob records job's result in the cache and triggers the fan-out
// AfterJobPlanner computes from it. The orchestrator never propagates a
// job failure as a Go error across this boundary (spec.md §7's
// propagation policy): a failed job is recorded via a normal Upsert with
// a non-OK http_status, exactly like a success.
func (o *Orchestrator) FinishJob(ctx context.Context, jobID string, result JobResult) ([]string, error) {
	entry, err := o.store.Upsert(ctx, cache.UpsertParams{
		Kind:               result.Step,
		Dataset:            result.Dataset,
		Config:             result.Config,
		Split:              result.Split,
		Content:            result.Content,
		HTTPStatus:         result.HTTPStatus,
		ErrorCode:          result.ErrorCode,
		Details:            result.Details,
		Progress:           result.Progress,
		Partial:            result.Partial,
		JobRunnerVersion:   result.JobRunnerVersion,
		DatasetGitRevision: result.Revision,
	})
	if err != nil {
		return nil, err
	}
	if err := o.queue.FinishJob(ctx, jobID); err != nil {
		return nil, err
	}

	plan, err := o.afterJob.Plan(ctx, planner.FinishedJob{
		Dataset: result.Dataset, Revision: result.Revision,
		Step: result.Step, Config: result.Config, Split: result.Split,
		Priority: result.Priority, FailedRuns: entry.FailedRuns,
	})
	if err != nil {
		return nil, err
	}
	if err := plan.Run(ctx, o.queue); err != nil {
		return nil, err
	}
	if len(plan.CreateJobs) > 0 {
		o.notifier.WakeWorkers(ctx)
	}
	return plan.Response(), nil
}

// RemoveDataset deletes every pending job and every cache row for
// dataset, leaving it as if it had never been processed.
func (o *Orchestrator) RemoveDataset(ctx context.Context, dataset string) error {
	if err := o.queue.DeleteDatasetJobs(ctx, dataset); err != nil {
		return err
	}
	return o.store.DeleteDataset(ctx, dataset)
}

// HasPendingAncestorJobs reports whether any step in stepNames, or any
// ancestor (transitively, via TriggeredBy) of one, has a pending job for
// dataset. A
// caller uses this to decide whether a cache_is_empty artifact is still
// waiting on upstream work or is actually ready to run now.
func (o *Orchestrator) HasPendingAncestorJobs(ctx context.Context, dataset string, stepNames []string) (bool, error) {
	pending, err := o.queue.GetPendingJobs(ctx, dataset)
	if err != nil {
		return false, err
	}
	if len(pending) == 0 {
		return false, nil
	}
	ancestors := make(map[string]bool)
	for _, name := range stepNames {
		ancestors[name] = true
		for _, a := range o.graph.Ancestors(name) {
			ancestors[a] = true
		}
	}
	for _, job := range pending {
		if ancestors[job.Type] {
			return true, nil
		}
	}
	return false, nil
}

// JobResult is what a finished worker reports back about one job.
type JobResult struct {
	Dataset, Revision, Config, Split string
	Step                             string
	Priority                         queue.Priority

	Content          []byte
	HTTPStatus       int
	ErrorCode        string
	Details          []byte
	Progress         float64
	Partial          bool
	JobRunnerVersion int
}
