package cache

import (
	"context"

	"github.com/datasets-hub/orchestrator/go/skerr"
)

// ErrNotFound is returned by Get and GetBest when no matching row exists.
// Treat it as a normal control-flow signal, not an error to log.
var ErrNotFound = skerr.Fmt("cache: entry does not exist")

// Store is the durable key/value store of artifact results. Implementations
// must make Upsert atomic per key; cross-key transactions are never
// required.
type Store interface {
	// Upsert atomically replaces or inserts the row at params' key,
	// computing FailedRuns from the prior row (if any) per the rule in
	// computeFailedRuns, and returns the written Entry.
	Upsert(ctx context.Context, params UpsertParams) (Entry, error)

	// Get returns the row at (kind, dataset, config, split), or
	// ErrNotFound.
	Get(ctx context.Context, kind, dataset, config, split string) (Entry, error)

	// GetBest returns, among the given kinds, the first successful entry
	// found; failing that, the entry with the highest HTTPStatus; failing
	// that, ErrNotFound. Ties are broken by the order kinds are given in.
	GetBest(ctx context.Context, kinds []string, dataset, config, split string) (Entry, error)

	// HasSome reports whether any row exists for dataset.
	HasSome(ctx context.Context, dataset string) (bool, error)

	// DeleteDataset removes every row for dataset.
	DeleteDataset(ctx context.Context, dataset string) error

	// CountByKindAndStatus returns, for every (kind, isError) pair that has
	// at least one row, how many rows exist across every dataset. Used by
	// collect-cache-metrics to publish success/error gauges per kind.
	CountByKindAndStatus(ctx context.Context) (map[KindStatusKey]int, error)
}

// KindStatusKey groups a CountByKindAndStatus tally.
type KindStatusKey struct {
	Kind    string
	IsError bool
}

// computeFailedRuns implements cache.Upsert's failed_runs rule: it only
// increments when the prior and new rows are both errors at the same
// revision, and resets to 0 on any success or revision change.
func computeFailedRuns(prior *Entry, newRevision string, newHTTPStatus int) int {
	if prior == nil {
		return 0
	}
	if prior.DatasetGitRevision != newRevision {
		return 0
	}
	if prior.HTTPStatus >= 400 && newHTTPStatus >= 400 {
		return prior.FailedRuns + 1
	}
	return 0
}
