package queue

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// MemGitBranchLock is an in-memory GitBranchLock, used in tests. Safe for
// concurrent use.
type MemGitBranchLock struct {
	mu    sync.Mutex
	held  map[string]string // key -> owner
}

// NewMemGitBranchLock returns an empty MemGitBranchLock.
func NewMemGitBranchLock() *MemGitBranchLock {
	return &MemGitBranchLock{held: make(map[string]string)}
}

// Acquire implements the same contract as GitBranchLock.Acquire.
func (l *MemGitBranchLock) Acquire(ctx context.Context, dataset, branch, owner string, sleeps []time.Duration) error {
	key := lockKey(dataset, branch)
	operation := func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if existing, ok := l.held[key]; ok && existing != owner {
			return errLockHeld
		}
		l.held[key] = owner
		return nil
	}
	err := backoff.Retry(operation, backoff.WithContext(&sleepSchedule{sleeps: sleeps}, ctx))
	if err != nil {
		return ErrLockTimeout
	}
	return nil
}

var errLockHeld = fmtError("queue: lock already held")

type fmtError string

func (e fmtError) Error() string { return string(e) }

// Release implements the same contract as GitBranchLock.Release.
func (l *MemGitBranchLock) Release(ctx context.Context, dataset, branch, owner string) error {
	key := lockKey(dataset, branch)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == owner {
		delete(l.held, key)
	}
	return nil
}
