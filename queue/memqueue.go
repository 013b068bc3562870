package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datasets-hub/orchestrator/go/now"
	"github.com/datasets-hub/orchestrator/go/util"
)

// MemQueue is an in-memory Queue, used in tests and by single-process
// deployments. Safe for concurrent use.
type MemQueue struct {
	mu   sync.Mutex
	jobs map[string]*Job // by JobID
}

// NewMemQueue returns an empty MemQueue.
func NewMemQueue() *MemQueue {
	return &MemQueue{jobs: make(map[string]*Job)}
}

func (q *MemQueue) waitingByKey(key JobKey) *Job {
	for _, j := range q.jobs {
		if j.Status == StatusWaiting && j.Key() == key {
			return j
		}
	}
	return nil
}

func (q *MemQueue) startedTypeDataset(jobType, dataset string) *Job {
	for _, j := range q.jobs {
		if j.Status == StatusStarted && j.Type == jobType && j.Dataset == dataset {
			return j
		}
	}
	return nil
}

// AddJob implements Queue.
func (q *MemQueue) AddJob(ctx context.Context, p CreateJobParams) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.addJobLocked(ctx, p)
	return nil
}

func (q *MemQueue) addJobLocked(ctx context.Context, p CreateJobParams) {
	key := JobKey{Type: p.Type, Dataset: p.Dataset, Revision: p.Revision, Config: p.Config, Split: p.Split}
	if q.waitingByKey(key) != nil {
		return
	}
	job := &Job{
		JobID:      uuid.NewString(),
		Type:       p.Type,
		Dataset:    p.Dataset,
		Revision:   p.Revision,
		Config:     p.Config,
		Split:      p.Split,
		Priority:   p.Priority,
		Difficulty: p.Difficulty,
		Status:     StatusWaiting,
		CreatedAt:  now.Now(ctx),
	}
	q.jobs[job.JobID] = job
}

// CreateJobs implements Queue.
func (q *MemQueue) CreateJobs(ctx context.Context, params []CreateJobParams) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	seen := make(map[JobKey]bool, len(params))
	for _, p := range params {
		key := JobKey{Type: p.Type, Dataset: p.Dataset, Revision: p.Revision, Config: p.Config, Split: p.Split}
		if seen[key] {
			continue
		}
		seen[key] = true
		q.addJobLocked(ctx, p)
	}
	return nil
}

// DeleteJobsByIDs implements Queue.
func (q *MemQueue) DeleteJobsByIDs(ctx context.Context, jobIDs []string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range jobIDs {
		delete(q.jobs, id)
	}
	return nil
}

// DeleteDatasetJobs implements Queue.
func (q *MemQueue) DeleteDatasetJobs(ctx context.Context, dataset string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, j := range q.jobs {
		if j.Dataset == dataset {
			delete(q.jobs, id)
		}
	}
	return nil
}

// GetPendingJobs implements Queue.
func (q *MemQueue) GetPendingJobs(ctx context.Context, dataset string) ([]Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Job
	for _, j := range q.jobs {
		if dataset != "" && j.Dataset != dataset {
			continue
		}
		out = append(out, *j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

// StartJob implements Queue.
func (q *MemQueue) StartJob(ctx context.Context, owner string, opts StartJobOptions) (JobInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	only := util.NewStringSet(opts.JobTypesOnly)
	blocked := util.NewStringSet(opts.JobTypesBlocked)

	var candidates []*Job
	for _, j := range q.jobs {
		if j.Status != StatusWaiting {
			continue
		}
		if len(opts.JobTypesOnly) > 0 && !only[j.Type] {
			continue
		}
		if blocked[j.Type] {
			continue
		}
		if q.startedTypeDataset(j.Type, j.Dataset) != nil {
			continue
		}
		candidates = append(candidates, j)
	}
	if len(candidates) == 0 {
		return JobInfo{}, ErrEmptyQueue
	}

	sort.Slice(candidates, func(i, k int) bool {
		a, b := candidates[i], candidates[k]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Difficulty != b.Difficulty {
			return a.Difficulty < b.Difficulty
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	chosen := candidates[0]
	t := now.Now(ctx)
	chosen.Status = StatusStarted
	chosen.StartedAt = &t
	chosen.LastHeartbeat = &t
	chosen.Owner = owner

	return JobInfo{
		JobID: chosen.JobID, Type: chosen.Type, Dataset: chosen.Dataset, Revision: chosen.Revision,
		Config: chosen.Config, Split: chosen.Split, Priority: chosen.Priority, Difficulty: chosen.Difficulty,
	}, nil
}

// FinishJob implements Queue.
func (q *MemQueue) FinishJob(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.jobs, jobID)
	return nil
}

// Heartbeat implements Queue.
func (q *MemQueue) Heartbeat(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if j, ok := q.jobs[jobID]; ok {
		t := now.Now(ctx)
		j.LastHeartbeat = &t
	}
	return nil
}

// CountByTypeAndStatus implements Queue.
func (q *MemQueue) CountByTypeAndStatus(ctx context.Context) (map[TypeStatusKey]int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	counts := make(map[TypeStatusKey]int)
	for _, j := range q.jobs {
		counts[TypeStatusKey{Type: j.Type, Status: j.Status}]++
	}
	return counts, nil
}

// SweepExpiredLeases implements Queue.
func (q *MemQueue) SweepExpiredLeases(ctx context.Context, ttl time.Duration) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t := now.Now(ctx)
	swept := 0
	for _, j := range q.jobs {
		if j.Status != StatusStarted || j.LastHeartbeat == nil {
			continue
		}
		if t.Sub(*j.LastHeartbeat) > ttl {
			j.Status = StatusWaiting
			j.StartedAt = nil
			j.LastHeartbeat = nil
			j.Owner = ""
			j.CreatedAt = t
			swept++
		}
	}
	return swept, nil
}
