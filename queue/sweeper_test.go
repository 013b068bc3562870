package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datasets-hub/orchestrator/go/cleanup"
)

func TestStartLeaseSweeper_SweepsOnTick(t *testing.T) {
	q := NewMemQueue()
	ctx := context.Background()
	require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "a", Dataset: "d", Revision: "r"}))
	_, err := q.StartJob(ctx, "w", StartJobOptions{})
	require.NoError(t, err)

	StartLeaseSweeper(q, 5*time.Millisecond, 0)
	defer cleanup.Cleanup()

	require.Eventually(t, func() bool {
		jobs, err := q.GetPendingJobs(ctx, "d")
		return err == nil && len(jobs) == 1 && jobs[0].Status == StatusWaiting
	}, time.Second, 5*time.Millisecond)
}
