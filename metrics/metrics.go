// Package metrics publishes the orchestrator's queue and cache state as
// Prometheus gauges, for the collect-queue-metrics and collect-cache-metrics
// CLI subcommands to snapshot on a cron schedule.
package metrics

import (
	"context"

	"github.com/datasets-hub/orchestrator/go/metrics2"
	"github.com/datasets-hub/orchestrator/go/skerr"
	"github.com/datasets-hub/orchestrator/go/sklog"

	"github.com/datasets-hub/orchestrator/cache"
	"github.com/datasets-hub/orchestrator/queue"
)

var (
	queueDepth = metrics2.GetGauge("orchestrator_queue_jobs", "type", "status")
	cacheRows  = metrics2.GetGauge("orchestrator_cache_responses", "kind", "status")
)

// CollectQueueMetrics reads q's current (type, status) tallies and sets
// the orchestrator_queue_jobs gauge for each pair found. Pairs that no
// longer have any rows simply stop being reported this cycle; Prometheus'
// staleness handling covers the gap, matching how the rest of this
// package's callers scrape on a short interval.
func CollectQueueMetrics(ctx context.Context, q queue.Queue) error {
	counts, err := q.CountByTypeAndStatus(ctx)
	if err != nil {
		return skerr.Wrapf(err, "metrics: collecting queue metrics")
	}
	for key, n := range counts {
		queueDepth.WithLabelValues(key.Type, key.Status.String()).Set(float64(n))
		sklog.Infof("queue depth: type=%s status=%s count=%d", key.Type, key.Status, n)
	}
	return nil
}

// CollectCacheMetrics reads store's current (kind, isError) tallies and
// sets the orchestrator_cache_responses gauge for each pair, split into
// "ok"/"error" status labels.
func CollectCacheMetrics(ctx context.Context, store cache.Store) error {
	counts, err := store.CountByKindAndStatus(ctx)
	if err != nil {
		return skerr.Wrapf(err, "metrics: collecting cache metrics")
	}
	for key, n := range counts {
		status := "ok"
		if key.IsError {
			status = "error"
		}
		cacheRows.WithLabelValues(key.Kind, status).Set(float64(n))
		sklog.Infof("cache rows: kind=%s status=%s count=%d", key.Kind, status, n)
	}
	return nil
}
