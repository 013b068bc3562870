package queue

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/datasets-hub/orchestrator/go/sklog"
)

const wakeChannel = "orchestrator:wake-workers"

// publisher is the subset of *redis.Client Notifier needs, so tests can
// inject a fake without a running Redis instance.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Notifier publishes a best-effort "new work available" signal whenever a
// job is created, so idle workers subscribed to wakeChannel can skip their
// poll interval. It is never authoritative: a missed or dropped message
// just means a worker waits out its next poll tick against the durable
// Queue, which is where correctness actually lives.
type Notifier struct {
	client publisher
}

// NewNotifier wraps a Redis client.
func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

// WakeWorkers publishes a wake signal. Errors are logged, not returned:
// a failed publish must never fail the caller's job-creation path.
func (n *Notifier) WakeWorkers(ctx context.Context) {
	if n == nil || n.client == nil {
		return
	}
	if err := n.client.Publish(ctx, wakeChannel, "1").Err(); err != nil {
		sklog.Warningf("queue: failed to publish wake signal: %v", err)
	}
}

// subscription is the subset of *redis.PubSub Subscriber needs.
type subscription interface {
	Channel() <-chan *redis.Message
	Close() error
}

// subscriber is the subset of *redis.Client Subscriber needs.
type subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Subscriber lets a worker block until either a wake signal arrives or its
// own poll interval elapses, whichever is first.
type Subscriber struct {
	sub subscription
}

// NewSubscriber subscribes to the wake channel. Call Close when done.
func NewSubscriber(ctx context.Context, client subscriber) *Subscriber {
	return &Subscriber{sub: client.Subscribe(ctx, wakeChannel)}
}

// Wake returns the channel that receives a message per wake signal.
func (s *Subscriber) Wake() <-chan *redis.Message {
	return s.sub.Channel()
}

// Close unsubscribes.
func (s *Subscriber) Close() error {
	return s.sub.Close()
}
