package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	crdbgo "github.com/cockroachdb/cockroach-go/v2/crdb"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v4/stdlib" // registers the "pgx" database/sql driver

	"github.com/datasets-hub/orchestrator/go/now"
	"github.com/datasets-hub/orchestrator/go/skerr"
	"github.com/datasets-hub/orchestrator/go/sql/sqlutil"
)

const jobsTable = "jobs_blue"

// CRDBQueue is a CockroachDB-backed Queue, the durable coordination point
// shared by every worker process.
type CRDBQueue struct {
	db *sql.DB
}

// OpenCRDBQueue opens a connection pool against dsn using pgx's
// database/sql driver.
func OpenCRDBQueue(dsn string) (*CRDBQueue, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, skerr.Wrapf(err, "queue: opening connection to %s", dsn)
	}
	return &CRDBQueue{db: db}, nil
}

// NewCRDBQueueFromDB wraps an already-open *sql.DB.
func NewCRDBQueueFromDB(db *sql.DB) *CRDBQueue {
	return &CRDBQueue{db: db}
}

// AddJob implements Queue.
func (q *CRDBQueue) AddJob(ctx context.Context, p CreateJobParams) error {
	return q.CreateJobs(ctx, []CreateJobParams{p})
}

// CreateJobs implements Queue.
func (q *CRDBQueue) CreateJobs(ctx context.Context, params []CreateJobParams) error {
	if len(params) == 0 {
		return nil
	}
	return crdbgo.ExecuteTx(ctx, q.db, nil, func(tx *sql.Tx) error {
		return q.createJobsTx(ctx, tx, params)
	})
}

func (q *CRDBQueue) createJobsTx(ctx context.Context, tx *sql.Tx, params []CreateJobParams) error {
	seen := make(map[JobKey]bool, len(params))
	deduped := make([]CreateJobParams, 0, len(params))
	for _, p := range params {
		key := JobKey{Type: p.Type, Dataset: p.Dataset, Revision: p.Revision, Config: p.Config, Split: p.Split}
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, p)
	}

	const numCols = 9
	placeholders := sqlutil.ValuesPlaceholders(numCols, len(deduped))
	args := make([]interface{}, 0, numCols*len(deduped))
	createdAt := now.Now(ctx)
	for _, p := range deduped {
		args = append(args, uuid.NewString(), p.Type, p.Dataset, p.Revision, p.Config, p.Split,
			int(p.Priority), p.Difficulty, createdAt)
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (job_id, type, dataset, revision, config, split, priority, difficulty, created_at)
		 VALUES %s
		 ON CONFLICT (type, dataset, revision, config, split) WHERE status = 'WAITING' DO NOTHING`,
		jobsTable, placeholders,
	)
	_, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return skerr.Wrapf(err, "queue: creating %d job(s)", len(deduped))
	}
	return nil
}

// DeleteJobsByIDs implements Queue.
func (q *CRDBQueue) DeleteJobsByIDs(ctx context.Context, jobIDs []string) error {
	if len(jobIDs) == 0 {
		return nil
	}
	placeholders := sqlutil.ValuesPlaceholders(1, len(jobIDs))
	args := make([]interface{}, len(jobIDs))
	for i, id := range jobIDs {
		args[i] = id
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE job_id IN (SELECT * FROM (VALUES %s) AS t(id))`, jobsTable, placeholders)
	_, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return skerr.Wrapf(err, "queue: deleting %d job(s)", len(jobIDs))
	}
	return nil
}

// DeleteDatasetJobs implements Queue.
func (q *CRDBQueue) DeleteDatasetJobs(ctx context.Context, dataset string) error {
	_, err := q.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE dataset=$1`, jobsTable), dataset)
	if err != nil {
		return skerr.Wrapf(err, "queue: deleting jobs for dataset %s", dataset)
	}
	return nil
}

// GetPendingJobs implements Queue.
func (q *CRDBQueue) GetPendingJobs(ctx context.Context, dataset string) ([]Job, error) {
	query := fmt.Sprintf(
		`SELECT job_id, type, dataset, revision, config, split, priority, difficulty, status,
		        created_at, started_at, last_heartbeat, owner
		 FROM %s WHERE ($1 = '' OR dataset = $1)`,
		jobsTable,
	)
	rows, err := q.db.QueryContext(ctx, query, dataset)
	if err != nil {
		return nil, skerr.Wrapf(err, "queue: getting pending jobs for %q", dataset)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, skerr.Wrapf(err, "queue: scanning job row")
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// StartJob implements Queue.
func (q *CRDBQueue) StartJob(ctx context.Context, owner string, opts StartJobOptions) (JobInfo, error) {
	var info JobInfo
	err := crdbgo.ExecuteTx(ctx, q.db, nil, func(tx *sql.Tx) error {
		query := fmt.Sprintf(
			`SELECT job_id, type, dataset, revision, config, split, priority, difficulty
			 FROM %s
			 WHERE status = 'WAITING'
			   AND ($1::string[] IS NULL OR type = ANY($1))
			   AND ($2::string[] IS NULL OR NOT (type = ANY($2)))
			   AND dataset NOT IN (
			       SELECT dataset FROM %s AS started WHERE started.status = 'STARTED' AND started.type = %s.type
			   )
			 ORDER BY priority DESC, difficulty ASC, created_at ASC
			 LIMIT 1
			 FOR UPDATE`,
			jobsTable, jobsTable, jobsTable,
		)
		row := tx.QueryRowContext(ctx, query, pqStringArrayOrNil(opts.JobTypesOnly), pqStringArrayOrNil(opts.JobTypesBlocked))

		var j Job
		err := row.Scan(&j.JobID, &j.Type, &j.Dataset, &j.Revision, &j.Config, &j.Split, &j.Priority, &j.Difficulty)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEmptyQueue
		}
		if err != nil {
			return err
		}

		t := now.Now(ctx)
		_, err = tx.ExecContext(ctx, fmt.Sprintf(
			`UPDATE %s SET status='STARTED', started_at=$1, last_heartbeat=$1, owner=$2 WHERE job_id=$3`, jobsTable,
		), t, owner, j.JobID)
		if err != nil {
			return err
		}

		info = JobInfo{
			JobID: j.JobID, Type: j.Type, Dataset: j.Dataset, Revision: j.Revision,
			Config: j.Config, Split: j.Split, Priority: j.Priority, Difficulty: j.Difficulty,
		}
		return nil
	})
	if errors.Is(err, ErrEmptyQueue) {
		return JobInfo{}, ErrEmptyQueue
	}
	if err != nil {
		return JobInfo{}, skerr.Wrapf(err, "queue: starting job for owner %s", owner)
	}
	return info, nil
}

// pqStringArrayOrNil returns nil for an empty slice so the SQL "IS NULL"
// branch above short-circuits the filter, matching the "if non-empty"
// semantics of StartJobOptions.
func pqStringArrayOrNil(ss []string) interface{} {
	if len(ss) == 0 {
		return nil
	}
	return ss
}

// FinishJob implements Queue.
func (q *CRDBQueue) FinishJob(ctx context.Context, jobID string) error {
	_, err := q.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE job_id=$1`, jobsTable), jobID)
	if err != nil {
		return skerr.Wrapf(err, "queue: finishing job %s", jobID)
	}
	return nil
}

// Heartbeat implements Queue.
func (q *CRDBQueue) Heartbeat(ctx context.Context, jobID string) error {
	_, err := q.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET last_heartbeat=$1 WHERE job_id=$2`, jobsTable), now.Now(ctx), jobID)
	if err != nil {
		return skerr.Wrapf(err, "queue: heartbeating job %s", jobID)
	}
	return nil
}

// SweepExpiredLeases implements Queue.
func (q *CRDBQueue) SweepExpiredLeases(ctx context.Context, ttl time.Duration) (int, error) {
	t := now.Now(ctx)
	res, err := q.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET status='WAITING', started_at=NULL, last_heartbeat=NULL, owner='', created_at=$1
		 WHERE status='STARTED' AND $1 - last_heartbeat > $2`,
		jobsTable,
	), t, ttl)
	if err != nil {
		return 0, skerr.Wrapf(err, "queue: sweeping expired leases")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, skerr.Wrapf(err, "queue: counting swept leases")
	}
	return int(affected), nil
}

// CountByTypeAndStatus implements Queue.
func (q *CRDBQueue) CountByTypeAndStatus(ctx context.Context) (map[TypeStatusKey]int, error) {
	rows, err := q.db.QueryContext(ctx, fmt.Sprintf(`SELECT type, status, count(*) FROM %s GROUP BY type, status`, jobsTable))
	if err != nil {
		return nil, skerr.Wrapf(err, "queue: counting jobs by type and status")
	}
	defer rows.Close()

	counts := make(map[TypeStatusKey]int)
	for rows.Next() {
		var jobType, statusStr string
		var n int
		if err := rows.Scan(&jobType, &statusStr, &n); err != nil {
			return nil, skerr.Wrapf(err, "queue: scanning count row")
		}
		status := StatusWaiting
		if statusStr == "STARTED" {
			status = StatusStarted
		}
		counts[TypeStatusKey{Type: jobType, Status: status}] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (Job, error) {
	var j Job
	var statusStr string
	var startedAt, lastHeartbeat sql.NullTime
	var owner sql.NullString
	err := row.Scan(&j.JobID, &j.Type, &j.Dataset, &j.Revision, &j.Config, &j.Split,
		&j.Priority, &j.Difficulty, &statusStr, &j.CreatedAt, &startedAt, &lastHeartbeat, &owner)
	if err != nil {
		return Job{}, err
	}
	if statusStr == "STARTED" {
		j.Status = StatusStarted
	} else {
		j.Status = StatusWaiting
	}
	if startedAt.Valid {
		j.StartedAt = &startedAt.Time
	}
	if lastHeartbeat.Valid {
		j.LastHeartbeat = &lastHeartbeat.Time
	}
	j.Owner = owner.String
	return j, nil
}
