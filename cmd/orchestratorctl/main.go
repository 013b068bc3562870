// Command orchestratorctl is the operational CLI over the orchestrator: it
// drives set-revision, backfill and remove against a dataset, reports
// queue/cache metrics, and runs the clean-directory housekeeping sweep.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
