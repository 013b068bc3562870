package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	crdbgo "github.com/cockroachdb/cockroach-go/v2/crdb"
	_ "github.com/jackc/pgx/v4/stdlib" // registers the "pgx" database/sql driver

	"github.com/datasets-hub/orchestrator/go/now"
	"github.com/datasets-hub/orchestrator/go/skerr"
)

// CRDBStore is a CockroachDB-backed Store, durable across process
// restarts and shared by every worker and service process. Transactional
// writes go through cockroach-go/v2's ExecuteTx, which retries on the
// serialization errors CockroachDB's SERIALIZABLE isolation can surface.
type CRDBStore struct {
	db *sql.DB
}

// OpenCRDBStore opens a connection pool against dsn using pgx's
// database/sql driver.
func OpenCRDBStore(dsn string) (*CRDBStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, skerr.Wrapf(err, "cache: opening connection to %s", dsn)
	}
	return &CRDBStore{db: db}, nil
}

// NewCRDBStoreFromDB wraps an already-open *sql.DB, for callers that share
// one pool across the Queue and CacheStore schemas.
func NewCRDBStoreFromDB(db *sql.DB) *CRDBStore {
	return &CRDBStore{db: db}
}

const cacheResponsesTable = "cache_responses_blue"

// Upsert implements Store.
func (c *CRDBStore) Upsert(ctx context.Context, params UpsertParams) (Entry, error) {
	var entry Entry
	err := crdbgo.ExecuteTx(ctx, c.db, nil, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT http_status, dataset_git_revision, failed_runs FROM %s
			 WHERE kind=$1 AND dataset=$2 AND config=$3 AND split=$4 FOR UPDATE`,
			cacheResponsesTable,
		), params.Kind, params.Dataset, params.Config, params.Split)

		var prior *Entry
		var httpStatus, failedRuns int
		var revision string
		switch scanErr := row.Scan(&httpStatus, &revision, &failedRuns); {
		case errors.Is(scanErr, sql.ErrNoRows):
			prior = nil
		case scanErr != nil:
			return scanErr
		default:
			prior = &Entry{HTTPStatus: httpStatus, DatasetGitRevision: revision, FailedRuns: failedRuns}
		}

		failedRunsNow := computeFailedRuns(prior, params.DatasetGitRevision, params.HTTPStatus)
		updatedAt := now.Now(ctx)

		_, err := tx.ExecContext(ctx, fmt.Sprintf(
			`UPSERT INTO %s
			 (kind, dataset, config, split, content, details, http_status, error_code,
			  job_runner_version, dataset_git_revision, progress, partial, failed_runs, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			cacheResponsesTable,
		),
			params.Kind, params.Dataset, params.Config, params.Split,
			params.Content, params.Details, params.HTTPStatus, params.ErrorCode,
			params.JobRunnerVersion, params.DatasetGitRevision, params.Progress, params.Partial,
			failedRunsNow, updatedAt,
		)
		if err != nil {
			return err
		}

		entry = Entry{
			Kind: params.Kind, Dataset: params.Dataset, Config: params.Config, Split: params.Split,
			Content: params.Content, Details: params.Details, HTTPStatus: params.HTTPStatus,
			ErrorCode: params.ErrorCode, JobRunnerVersion: params.JobRunnerVersion,
			DatasetGitRevision: params.DatasetGitRevision, Progress: params.Progress,
			Partial: params.Partial, FailedRuns: failedRunsNow, UpdatedAt: updatedAt,
		}
		return nil
	})
	if err != nil {
		return Entry{}, skerr.Wrapf(err, "cache: upserting %s", params.Kind)
	}
	return entry, nil
}

// Get implements Store.
func (c *CRDBStore) Get(ctx context.Context, kind, dataset, config, split string) (Entry, error) {
	row := c.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT kind, dataset, config, split, content, details, http_status, error_code,
		        job_runner_version, dataset_git_revision, progress, partial, failed_runs, updated_at
		 FROM %s WHERE kind=$1 AND dataset=$2 AND config=$3 AND split=$4`,
		cacheResponsesTable,
	), kind, dataset, config, split)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, skerr.Wrapf(err, "cache: getting %s,%s,%s,%s", kind, dataset, config, split)
	}
	return entry, nil
}

// GetBest implements Store, matching MemStore.GetBest's semantics: first
// success wins by kinds order; otherwise the highest http_status error.
func (c *CRDBStore) GetBest(ctx context.Context, kinds []string, dataset, config, split string) (Entry, error) {
	if len(kinds) == 0 {
		return Entry{}, ErrNotFound
	}
	placeholders := make([]string, len(kinds))
	args := make([]interface{}, 0, len(kinds)+3)
	for i, kind := range kinds {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args = append(args, kind)
	}
	args = append(args, dataset, config, split)
	query := fmt.Sprintf(
		`SELECT kind, dataset, config, split, content, details, http_status, error_code,
		        job_runner_version, dataset_git_revision, progress, partial, failed_runs, updated_at
		 FROM %s WHERE kind IN (%s) AND dataset=$%d AND config=$%d AND split=$%d`,
		cacheResponsesTable, strings.Join(placeholders, ","), len(kinds)+1, len(kinds)+2, len(kinds)+3,
	)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return Entry{}, skerr.Wrapf(err, "cache: getting best of %v", kinds)
	}
	defer rows.Close()

	byKind := make(map[string]Entry, len(kinds))
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return Entry{}, skerr.Wrapf(err, "cache: scanning best-of row")
		}
		byKind[entry.Kind] = entry
	}
	if err := rows.Err(); err != nil {
		return Entry{}, skerr.Wrapf(err, "cache: iterating best-of rows")
	}

	var bestError *Entry
	for _, kind := range kinds {
		entry, ok := byKind[kind]
		if !ok {
			continue
		}
		if !entry.IsError() {
			return entry, nil
		}
		if bestError == nil || entry.HTTPStatus > bestError.HTTPStatus {
			e := entry
			bestError = &e
		}
	}
	if bestError != nil {
		return *bestError, nil
	}
	return Entry{}, ErrNotFound
}

// HasSome implements Store.
func (c *CRDBStore) HasSome(ctx context.Context, dataset string) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT EXISTS(SELECT 1 FROM %s WHERE dataset=$1)`, cacheResponsesTable,
	), dataset).Scan(&exists)
	if err != nil {
		return false, skerr.Wrapf(err, "cache: checking has_some for %s", dataset)
	}
	return exists, nil
}

// DeleteDataset implements Store.
func (c *CRDBStore) DeleteDataset(ctx context.Context, dataset string) error {
	_, err := c.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE dataset=$1`, cacheResponsesTable), dataset)
	if err != nil {
		return skerr.Wrapf(err, "cache: deleting dataset %s", dataset)
	}
	return nil
}

// CountByKindAndStatus implements Store.
func (c *CRDBStore) CountByKindAndStatus(ctx context.Context) (map[KindStatusKey]int, error) {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT kind, http_status >= 400 AS is_error, count(*) FROM %s GROUP BY kind, is_error`,
		cacheResponsesTable,
	))
	if err != nil {
		return nil, skerr.Wrapf(err, "cache: counting rows by kind and status")
	}
	defer rows.Close()

	counts := make(map[KindStatusKey]int)
	for rows.Next() {
		var kind string
		var isError bool
		var n int
		if err := rows.Scan(&kind, &isError, &n); err != nil {
			return nil, skerr.Wrapf(err, "cache: scanning count row")
		}
		counts[KindStatusKey{Kind: kind, IsError: isError}] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.Kind, &e.Dataset, &e.Config, &e.Split, &e.Content, &e.Details,
		&e.HTTPStatus, &e.ErrorCode, &e.JobRunnerVersion, &e.DatasetGitRevision,
		&e.Progress, &e.Partial, &e.FailedRuns, &e.UpdatedAt,
	)
	return e, err
}
