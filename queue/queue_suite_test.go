package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datasets-hub/orchestrator/go/now"
)

// TestQueue runs the full Queue contract against any implementation.
func TestQueue(t *testing.T, newQueue func() Queue) {
	t.Run("AddJob_Twice_ProducesOneWaitingRow", func(t *testing.T) {
		q := newQueue()
		ctx := context.Background()
		p := CreateJobParams{Type: "dataset-config-names", Dataset: "squad", Revision: "r1", Priority: PriorityNormal}
		require.NoError(t, q.AddJob(ctx, p))
		require.NoError(t, q.AddJob(ctx, p))

		jobs, err := q.GetPendingJobs(ctx, "squad")
		require.NoError(t, err)
		require.Len(t, jobs, 1)
	})

	t.Run("CreateJobs_CollapsesDuplicatesWithinBatch", func(t *testing.T) {
		q := newQueue()
		ctx := context.Background()
		p := CreateJobParams{Type: "config-info", Dataset: "squad", Revision: "r1", Config: "c1"}
		require.NoError(t, q.CreateJobs(ctx, []CreateJobParams{p, p, p}))

		jobs, err := q.GetPendingJobs(ctx, "squad")
		require.NoError(t, err)
		require.Len(t, jobs, 1)
	})

	t.Run("StartJob_EmptyQueue_ReturnsErrEmptyQueueAndNoStateChange", func(t *testing.T) {
		q := newQueue()
		ctx := context.Background()
		_, err := q.StartJob(ctx, "worker-1", StartJobOptions{})
		require.ErrorIs(t, err, ErrEmptyQueue)

		jobs, err := q.GetPendingJobs(ctx, "")
		require.NoError(t, err)
		require.Empty(t, jobs)
	})

	t.Run("StartJob_EnforcesPerDatasetTypeMutualExclusion", func(t *testing.T) {
		q := newQueue()
		ctx := context.Background()
		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "t", Dataset: "d", Revision: "r1"}))
		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "t", Dataset: "d", Revision: "r2"}))

		info, err := q.StartJob(ctx, "worker-1", StartJobOptions{})
		require.NoError(t, err)
		require.Equal(t, "t", info.Type)

		_, err = q.StartJob(ctx, "worker-2", StartJobOptions{})
		require.ErrorIs(t, err, ErrEmptyQueue)
	})

	t.Run("StartJob_OrdersByPriorityThenDifficultyThenAge", func(t *testing.T) {
		q := newQueue()
		tc := now.TimeTravelingContext(time.Unix(1000, 0))
		ctx := tc.WithContext(context.Background())

		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "low", Dataset: "d1", Revision: "r", Priority: PriorityLow, Difficulty: 0}))
		tc.Advance(time.Second)
		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "normal-hard", Dataset: "d2", Revision: "r", Priority: PriorityNormal, Difficulty: 90}))
		tc.Advance(time.Second)
		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "normal-easy", Dataset: "d3", Revision: "r", Priority: PriorityNormal, Difficulty: 10}))
		tc.Advance(time.Second)
		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "high", Dataset: "d4", Revision: "r", Priority: PriorityHigh, Difficulty: 50}))

		info, err := q.StartJob(ctx, "worker-1", StartJobOptions{})
		require.NoError(t, err)
		require.Equal(t, "high", info.Type)

		info, err = q.StartJob(ctx, "worker-1", StartJobOptions{})
		require.NoError(t, err)
		require.Equal(t, "normal-easy", info.Type)

		info, err = q.StartJob(ctx, "worker-1", StartJobOptions{})
		require.NoError(t, err)
		require.Equal(t, "normal-hard", info.Type)

		info, err = q.StartJob(ctx, "worker-1", StartJobOptions{})
		require.NoError(t, err)
		require.Equal(t, "low", info.Type)
	})

	t.Run("StartJob_RespectsJobTypesOnlyAndBlocked", func(t *testing.T) {
		q := newQueue()
		ctx := context.Background()
		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "a", Dataset: "d1", Revision: "r"}))
		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "b", Dataset: "d2", Revision: "r"}))

		info, err := q.StartJob(ctx, "w", StartJobOptions{JobTypesOnly: []string{"b"}})
		require.NoError(t, err)
		require.Equal(t, "b", info.Type)

		_, err = q.StartJob(ctx, "w", StartJobOptions{JobTypesBlocked: []string{"a"}})
		require.ErrorIs(t, err, ErrEmptyQueue)
	})

	t.Run("FinishJob_RemovesRow", func(t *testing.T) {
		q := newQueue()
		ctx := context.Background()
		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "a", Dataset: "d", Revision: "r"}))
		info, err := q.StartJob(ctx, "w", StartJobOptions{})
		require.NoError(t, err)
		require.NoError(t, q.FinishJob(ctx, info.JobID))

		jobs, err := q.GetPendingJobs(ctx, "d")
		require.NoError(t, err)
		require.Empty(t, jobs)
	})

	t.Run("DeleteDatasetJobs_RemovesOnlyThatDataset", func(t *testing.T) {
		q := newQueue()
		ctx := context.Background()
		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "a", Dataset: "d1", Revision: "r"}))
		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "a", Dataset: "d2", Revision: "r"}))
		require.NoError(t, q.DeleteDatasetJobs(ctx, "d1"))

		jobs, err := q.GetPendingJobs(ctx, "")
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		require.Equal(t, "d2", jobs[0].Dataset)
	})

	t.Run("SweepExpiredLeases_ReturnsStaleStartedJobsToWaiting", func(t *testing.T) {
		q := newQueue()
		tc := now.TimeTravelingContext(time.Unix(1000, 0))
		ctx := tc.WithContext(context.Background())

		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "a", Dataset: "d", Revision: "r"}))
		info, err := q.StartJob(ctx, "w", StartJobOptions{})
		require.NoError(t, err)

		tc.Advance(time.Minute)
		swept, err := q.SweepExpiredLeases(ctx, 30*time.Second)
		require.NoError(t, err)
		require.Equal(t, 1, swept)

		jobs, err := q.GetPendingJobs(ctx, "d")
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		require.Equal(t, StatusWaiting, jobs[0].Status)

		_, err = q.StartJob(ctx, "w2", StartJobOptions{})
		require.NoError(t, err)
		_ = info
	})

	t.Run("CountByTypeAndStatus_TalliesAcrossDatasets", func(t *testing.T) {
		q := newQueue()
		ctx := context.Background()
		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "a", Dataset: "d1", Revision: "r"}))
		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "a", Dataset: "d2", Revision: "r"}))
		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "b", Dataset: "d1", Revision: "r"}))
		_, err := q.StartJob(ctx, "w", StartJobOptions{JobTypesOnly: []string{"b"}})
		require.NoError(t, err)

		counts, err := q.CountByTypeAndStatus(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, counts[TypeStatusKey{Type: "a", Status: StatusWaiting}])
		require.Equal(t, 1, counts[TypeStatusKey{Type: "b", Status: StatusStarted}])
		require.Zero(t, counts[TypeStatusKey{Type: "b", Status: StatusWaiting}])
	})

	t.Run("Heartbeat_PreventsSweep", func(t *testing.T) {
		q := newQueue()
		tc := now.TimeTravelingContext(time.Unix(1000, 0))
		ctx := tc.WithContext(context.Background())

		require.NoError(t, q.AddJob(ctx, CreateJobParams{Type: "a", Dataset: "d", Revision: "r"}))
		info, err := q.StartJob(ctx, "w", StartJobOptions{})
		require.NoError(t, err)

		tc.Advance(20 * time.Second)
		require.NoError(t, q.Heartbeat(ctx, info.JobID))
		tc.Advance(20 * time.Second)

		swept, err := q.SweepExpiredLeases(ctx, 30*time.Second)
		require.NoError(t, err)
		require.Equal(t, 0, swept)
	})
}
