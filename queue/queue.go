package queue

import (
	"context"
	"time"

	"github.com/datasets-hub/orchestrator/go/skerr"
)

// ErrEmptyQueue is returned by StartJob when no eligible WAITING job exists.
// Worker loops treat it as an expected idle signal, not an error to log.
var ErrEmptyQueue = skerr.Fmt("queue: no eligible waiting job")

// StartJobOptions filters the WAITING jobs StartJob considers.
type StartJobOptions struct {
	// JobTypesOnly, if non-empty, restricts selection to these types.
	JobTypesOnly []string
	// JobTypesBlocked, if non-empty, excludes these types.
	JobTypesBlocked []string
}

// Queue is the durable, priority-ordered store of jobs described in
// spec.md §4.3. Implementations must enforce, at the storage layer:
//   - at most one WAITING row per (type, dataset, revision, config, split)
//   - at most one STARTED row per (type, dataset)
type Queue interface {
	// AddJob creates a WAITING job for key if none already exists;
	// otherwise it is an idempotent no-op.
	AddJob(ctx context.Context, p CreateJobParams) error

	// CreateJobs batch-adds; duplicates within the batch and against
	// existing WAITING rows collapse to one.
	CreateJobs(ctx context.Context, params []CreateJobParams) error

	// DeleteJobsByIDs removes the named jobs regardless of status.
	DeleteJobsByIDs(ctx context.Context, jobIDs []string) error

	// DeleteDatasetJobs removes every job for dataset.
	DeleteDatasetJobs(ctx context.Context, dataset string) error

	// GetPendingJobs returns every WAITING or STARTED job, optionally
	// restricted to one dataset.
	GetPendingJobs(ctx context.Context, dataset string) ([]Job, error)

	// StartJob atomically selects one eligible WAITING job and marks it
	// STARTED, or returns ErrEmptyQueue. Selection excludes datasets that
	// already have a STARTED job of the same type, then picks by highest
	// priority, then lowest difficulty, then oldest CreatedAt.
	StartJob(ctx context.Context, owner string, opts StartJobOptions) (JobInfo, error)

	// FinishJob deletes the row for jobID. Persisting the result is a
	// separate concern (cache.Store.Upsert).
	FinishJob(ctx context.Context, jobID string) error

	// Heartbeat refreshes LastHeartbeat for jobID.
	Heartbeat(ctx context.Context, jobID string) error

	// SweepExpiredLeases returns every STARTED job whose LastHeartbeat is
	// older than ttl back to WAITING with a fresh CreatedAt, and returns
	// how many were swept.
	SweepExpiredLeases(ctx context.Context, ttl time.Duration) (int, error)

	// CountByTypeAndStatus returns, for every (type, status) pair that has
	// at least one row, how many jobs exist across every dataset. Used by
	// collect-queue-metrics to publish queue depth gauges.
	CountByTypeAndStatus(ctx context.Context) (map[TypeStatusKey]int, error)
}

// TypeStatusKey groups a CountByTypeAndStatus tally.
type TypeStatusKey struct {
	Type   string
	Status Status
}
