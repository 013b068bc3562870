package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/datasets-hub/orchestrator/cache"
	"github.com/datasets-hub/orchestrator/config"
	"github.com/datasets-hub/orchestrator/go/sklog"
	"github.com/datasets-hub/orchestrator/orchestrator"
	"github.com/datasets-hub/orchestrator/processing"
	"github.com/datasets-hub/orchestrator/queue"
)

// globalFlags holds the flags shared by every subcommand that talks to the
// durable backend.
type globalFlags struct {
	dsn                        string
	minBytesForBonusDifficulty int64
	redisAddr                  string
	hotCacheTTL                time.Duration
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "orchestratorctl",
		Short: "Operate the dataset processing orchestrator",
	}
	root.PersistentFlags().StringVar(&flags.dsn, "crdb-dsn", "", "CockroachDB connection string (postgres://...)")
	root.PersistentFlags().Int64Var(&flags.minBytesForBonusDifficulty, "min-bytes-for-bonus-difficulty", 0,
		"dataset_size threshold, in bytes, above which a step's difficulty bonus applies")
	root.PersistentFlags().StringVar(&flags.redisAddr, "redis-addr", "", "Redis address for the best-effort worker wake-up channel (optional)")
	root.PersistentFlags().DurationVar(&flags.hotCacheTTL, "hot-cache-ttl", 5*time.Second, "read-cache TTL in front of CacheStore.GetBest")

	root.AddCommand(
		newSetRevisionCmd(flags),
		newBackfillCmd(flags),
		newRemoveCmd(flags),
		newCollectQueueMetricsCmd(flags),
		newCollectCacheMetricsCmd(flags),
		newCleanDirectoryCmd(),
	)
	return root
}

// newDependencies opens the CockroachDB-backed Queue and Store against
// flags.dsn and wires an Orchestrator over the production processing graph,
// handing back the raw Queue/Store too for the metrics commands that read
// their aggregate counts directly. The Store is wrapped in a HotCache so
// repeated GetBest calls within one planning pass skip the round trip, and
// if --redis-addr is set the Orchestrator publishes one wake signal after
// every operation that creates at least one job.
func newDependencies(flags *globalFlags) (*orchestrator.Orchestrator, queue.Queue, cache.Store, error) {
	q, err := queue.OpenCRDBQueue(flags.dsn)
	if err != nil {
		return nil, nil, nil, err
	}
	rawStore, err := cache.OpenCRDBStore(flags.dsn)
	if err != nil {
		return nil, nil, nil, err
	}
	var store cache.Store = rawStore
	if flags.hotCacheTTL > 0 {
		store = cache.NewHotCache(rawStore, flags.hotCacheTTL)
	}

	var opts []processing.Option
	if flags.minBytesForBonusDifficulty > 0 {
		opts = append(opts, processing.WithMinBytesForBonusDifficulty(flags.minBytesForBonusDifficulty))
	}
	graph := processing.DefaultGraph(opts...)

	o := orchestrator.New(graph, q, store, config.Default())
	if flags.redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: flags.redisAddr})
		o.SetNotifier(queue.NewNotifier(client))
	}
	return o, q, store, nil
}

// newOrchestrator is newDependencies for callers that only need the facade.
func newOrchestrator(flags *globalFlags) (*orchestrator.Orchestrator, error) {
	o, _, _, err := newDependencies(flags)
	return o, err
}

// sweepExpiredLeases reclaims leases abandoned by crashed workers before a
// planning pass runs, so a dataset that's been stuck behind a dead worker
// doesn't read as "already in flight". There is no long-running daemon in
// this CLI to run queue.StartLeaseSweeper's periodic loop, so each
// job-creating subcommand does one sweep opportunistically instead.
func sweepExpiredLeases(ctx context.Context, q queue.Queue) error {
	swept, err := q.SweepExpiredLeases(ctx, config.Default().LeaseTTL)
	if err != nil {
		return err
	}
	if swept > 0 {
		sklog.Infof("reclaimed %d expired lease(s) before planning", swept)
	}
	return nil
}
