package planner

import (
	"context"

	"github.com/datasets-hub/orchestrator/artifact"
	"github.com/datasets-hub/orchestrator/cache"
	"github.com/datasets-hub/orchestrator/config"
	"github.com/datasets-hub/orchestrator/go/skerr"
	"github.com/datasets-hub/orchestrator/processing"
	"github.com/datasets-hub/orchestrator/queue"
)

// FinishedJob is what AfterJobPlanner needs about the job that just
// completed: enough to locate its own fresh cache row and to derive its
// children's addresses.
type FinishedJob struct {
	Dataset, Revision string
	Step              string // the step (= cache kind = job type) that finished
	Config, Split     string
	Priority          queue.Priority
	FailedRuns        int
}

// AfterJobPlanner computes the fan-out triggered by one finished job:
// spec.md §3's "the scheduling trigger for every outgoing edge of the
// graph". A child at the same input type as the finished step gets one
// job at the same address; a child at a narrower input type fans out over
// the names the finished step's own cache content just published; a child
// at a broader input type (a fan-in convergence) gets one job truncated to
// its own, coarser address.
type AfterJobPlanner struct {
	graph *processing.Graph
	store cache.Store
	cfg   config.Config
}

// NewAfterJobPlanner wires an AfterJobPlanner to graph and store.
func NewAfterJobPlanner(graph *processing.Graph, store cache.Store, cfg config.Config) *AfterJobPlanner {
	return &AfterJobPlanner{graph: graph, store: store, cfg: cfg}
}

// Plan returns the jobs job's completion should trigger.
func (p *AfterJobPlanner) Plan(ctx context.Context, job FinishedJob) (Plan, error) {
	step := p.graph.Step(job.Step)
	if step == nil {
		return Plan{}, skerr.Fmt("planner: unknown step %q", job.Step)
	}

	var creates []queue.CreateJobParams
	for _, childName := range p.graph.Children(job.Step) {
		child := p.graph.Step(childName)
		if child == nil {
			continue
		}
		addrs, err := p.expand(ctx, step, child, job)
		if err != nil {
			return Plan{}, err
		}
		isBig := isDatasetBig(ctx, p.store, job.Dataset, job.Config, p.graph.MinBytesForBonusDifficulty())
		difficulty := computeDifficulty(p.cfg, child, isBig, job.FailedRuns)
		for _, a := range addrs {
			creates = append(creates, queue.CreateJobParams{
				Type:       child.Name,
				Dataset:    job.Dataset,
				Revision:   job.Revision,
				Config:     a.config,
				Split:      a.split,
				Priority:   job.Priority,
				Difficulty: difficulty,
			})
		}
	}
	return Plan{CreateJobs: creates}, nil
}

type address struct{ config, split string }

func (p *AfterJobPlanner) expand(ctx context.Context, step, child *processing.Step, job FinishedJob) ([]address, error) {
	switch {
	case child.InputType == step.InputType:
		return []address{{config: job.Config, split: job.Split}}, nil

	case child.InputType.MoreSpecificThan(step.InputType):
		var names []string
		var err error
		switch {
		case step.InputType == artifact.InputTypeDataset && child.InputType == artifact.InputTypeConfig:
			names, err = cache.FetchNames(ctx, p.store, job.Dataset, "", []string{job.Step}, "config_names", "config")
		case step.InputType == artifact.InputTypeConfig && child.InputType == artifact.InputTypeSplit:
			names, err = cache.FetchNames(ctx, p.store, job.Dataset, job.Config, []string{job.Step}, "splits", "split")
		default:
			return nil, skerr.Fmt("planner: unsupported fan-out from %s (%s) to %s (%s)",
				step.Name, step.InputType, child.Name, child.InputType)
		}
		if err != nil {
			return nil, err
		}
		addrs := make([]address, 0, len(names))
		for _, name := range names {
			if child.InputType == artifact.InputTypeConfig {
				addrs = append(addrs, address{config: name})
			} else {
				addrs = append(addrs, address{config: job.Config, split: name})
			}
		}
		return addrs, nil

	default:
		c, s := scopedAddress(child.InputType, job.Config, job.Split)
		return []address{{config: c, split: s}}, nil
	}
}
