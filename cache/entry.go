// Package cache implements the durable result store keyed by
// (kind, dataset, config, split): one row per artifact, written once per
// completed job via an atomic upsert.
package cache

import "time"

// Entry is one cached artifact result. It is authoritative by
// (Kind, Dataset, Config, Split) — at most one row exists per key.
type Entry struct {
	Kind    string
	Dataset string
	Config  string // empty if the step is dataset-scoped
	Split   string // empty if the step is dataset- or config-scoped

	Content []byte // opaque payload, typically JSON
	Details []byte // opaque payload describing an error, may be nil

	HTTPStatus        int
	ErrorCode         string // empty when HTTPStatus < 400
	JobRunnerVersion  int
	DatasetGitRevision string
	Progress          float64
	Partial           bool // true if Content reflects a partial/streamed computation
	FailedRuns        int

	UpdatedAt time.Time
}

// IsError reports whether e represents a failed computation.
func (e *Entry) IsError() bool {
	return e.HTTPStatus >= 400
}

// UpsertParams is the input to Store.Upsert: everything the caller supplies
// about a freshly finished job's result. FailedRuns is computed by the
// Store itself from the prior row, not supplied by the caller.
type UpsertParams struct {
	Kind    string
	Dataset string
	Config  string
	Split   string

	Content           []byte
	HTTPStatus        int
	ErrorCode         string
	Details           []byte
	Progress          float64
	Partial           bool
	JobRunnerVersion  int
	DatasetGitRevision string
}

// key returns the (kind, dataset, config, split) entryKey addressed by
// params.
func (p UpsertParams) key() entryKey {
	return entryKey{kind: p.Kind, dataset: p.Dataset, config: p.Config, split: p.Split}
}

type entryKey struct {
	kind, dataset, config, split string
}
