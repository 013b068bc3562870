// Package housekeeping implements administrative maintenance tasks that run
// alongside the orchestrator but outside its core planning loop: pruning
// expired on-disk asset directories left behind by job runners.
package housekeeping

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/datasets-hub/orchestrator/go/now"
	"github.com/datasets-hub/orchestrator/go/skerr"
)

// ExpiredDirectories matches pattern (a glob as accepted by filepath.Glob,
// e.g. "/cache/assets/*/*") and returns the subset of matches that are
// directories last modified more than expiredAfter ago. It performs no
// deletion — actual removal is the caller's concern, run by the
// clean-directory administrative command.
func ExpiredDirectories(ctx context.Context, pattern string, expiredAfter time.Duration) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, skerr.Wrapf(err, "housekeeping: globbing %q", pattern)
	}

	cutoff := now.Now(ctx).Add(-expiredAfter)
	var expired []string
	for _, path := range matches {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, skerr.Wrapf(err, "housekeeping: stat %q", path)
		}
		if !info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			expired = append(expired, path)
		}
	}
	return expired, nil
}

// RemoveExpiredDirectories is ExpiredDirectories followed by os.RemoveAll on
// every match, returning the list actually removed so the caller can log a
// count. A removal failure on one directory does not stop the sweep over
// the rest; it's collected and returned wrapped once all directories have
// been attempted.
func RemoveExpiredDirectories(ctx context.Context, pattern string, expiredAfter time.Duration) ([]string, error) {
	expired, err := ExpiredDirectories(ctx, pattern, expiredAfter)
	if err != nil {
		return nil, err
	}

	var removed []string
	var firstErr error
	for _, path := range expired {
		if err := os.RemoveAll(path); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed = append(removed, path)
	}
	if firstErr != nil {
		return removed, skerr.Wrapf(firstErr, "housekeeping: removing expired directories under %q", pattern)
	}
	return removed, nil
}
