package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/datasets-hub/orchestrator/go/now"
	"github.com/datasets-hub/orchestrator/go/skerr"
)

// ErrLockTimeout is returned by GitBranchLock.Acquire once its sleeps
// schedule is exhausted without acquiring the lock. Callers (runners that
// push to a shared branch) surface this as a retryable error to backfill.
var ErrLockTimeout = skerr.Fmt("queue: lock acquisition timed out")

const locksTable = "locks"

// GitBranchLock is the cooperative, persistent named lock described in
// spec.md §4.3's lock.git_branch: at most one owner holds (dataset, branch)
// at a time, with ownership keyed by job_id.
type GitBranchLock struct {
	db *sql.DB
}

// NewGitBranchLock wraps an already-open *sql.DB holding the locks table.
func NewGitBranchLock(db *sql.DB) *GitBranchLock {
	return &GitBranchLock{db: db}
}

func lockKey(dataset, branch string) string {
	return fmt.Sprintf("%s@%s", dataset, branch)
}

// sleepSchedule replays a fixed sequence of durations as a backoff.BackOff,
// then signals backoff.Stop, giving lock.git_branch's "retry with the
// given backoff sequence, raise TimeoutError after exhausting sleeps"
// semantics exactly.
type sleepSchedule struct {
	sleeps []time.Duration
	next   int
}

func (s *sleepSchedule) NextBackOff() time.Duration {
	if s.next >= len(s.sleeps) {
		return backoff.Stop
	}
	d := s.sleeps[s.next]
	s.next++
	return d
}

func (s *sleepSchedule) Reset() { s.next = 0 }

// Acquire attempts to take the named lock for owner, retrying on the given
// sleeps schedule. It returns ErrLockTimeout once sleeps is exhausted.
func (l *GitBranchLock) Acquire(ctx context.Context, dataset, branch, owner string, sleeps []time.Duration) error {
	key := lockKey(dataset, branch)
	operation := func() error {
		res, err := l.db.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (key, owner, created_at) VALUES ($1,$2,$3) ON CONFLICT (key) DO NOTHING`, locksTable),
			key, owner, now.Now(ctx),
		)
		if err != nil {
			return backoff.Permanent(skerr.Wrapf(err, "queue: acquiring lock %s", key))
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return backoff.Permanent(skerr.Wrapf(err, "queue: checking lock acquisition result for %s", key))
		}
		if affected == 0 {
			return fmt.Errorf("queue: lock %s already held", key)
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(&sleepSchedule{sleeps: sleeps}, ctx))
	if err == nil {
		return nil
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return ErrLockTimeout
}

// Release drops the named lock, if owner currently holds it.
func (l *GitBranchLock) Release(ctx context.Context, dataset, branch, owner string) error {
	key := lockKey(dataset, branch)
	_, err := l.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE key=$1 AND owner=$2`, locksTable), key, owner,
	)
	if err != nil {
		return skerr.Wrapf(err, "queue: releasing lock %s", key)
	}
	return nil
}
