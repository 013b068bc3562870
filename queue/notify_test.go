package queue

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	published []string
	failNext  bool
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.failNext {
		cmd.SetErr(context.DeadlineExceeded)
		return cmd
	}
	f.published = append(f.published, channel)
	cmd.SetVal(1)
	return cmd
}

func TestNotifier_WakeWorkers_Publishes(t *testing.T) {
	fake := &fakePublisher{}
	n := &Notifier{client: fake}
	n.WakeWorkers(context.Background())
	require.Equal(t, []string{wakeChannel}, fake.published)
}

func TestNotifier_WakeWorkers_SwallowsPublishError(t *testing.T) {
	fake := &fakePublisher{failNext: true}
	n := &Notifier{client: fake}
	require.NotPanics(t, func() { n.WakeWorkers(context.Background()) })
}

func TestNotifier_NilNotifier_IsNoOp(t *testing.T) {
	var n *Notifier
	require.NotPanics(t, func() { n.WakeWorkers(context.Background()) })
}
