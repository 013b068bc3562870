package main

import (
	"fmt"
	"net/http/httptest"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/datasets-hub/orchestrator/go/sklog"
	"github.com/datasets-hub/orchestrator/metrics"
)

// dumpMetrics renders the process' current Prometheus registry as text,
// the same exposition format a scrape target would serve, so a cron-style
// one-shot run can print a snapshot instead of needing its own HTTP server.
func dumpMetrics() string {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	promhttp.Handler().ServeHTTP(rec, req)
	return rec.Body.String()
}

func newCollectQueueMetricsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect-queue-metrics",
		Short: "Snapshot queue depth by job type and status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, q, _, err := newDependencies(flags)
			if err != nil {
				return err
			}
			if err := metrics.CollectQueueMetrics(cmd.Context(), q); err != nil {
				return err
			}
			sklog.Infof("collect-queue-metrics: done")
			fmt.Print(dumpMetrics())
			return nil
		},
	}
	return cmd
}

func newCollectCacheMetricsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect-cache-metrics",
		Short: "Snapshot cache row counts by kind and error status",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, store, err := newDependencies(flags)
			if err != nil {
				return err
			}
			if err := metrics.CollectCacheMetrics(cmd.Context(), store); err != nil {
				return err
			}
			sklog.Infof("collect-cache-metrics: done")
			fmt.Print(dumpMetrics())
			return nil
		},
	}
	return cmd
}
