package main

import (
	"fmt"
	"strings"

	"github.com/datasets-hub/orchestrator/queue"
)

// parsePriority accepts "low", "normal" or "high" (case-insensitive),
// defaulting to PriorityNormal for an empty string.
func parsePriority(s string) (queue.Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return queue.PriorityNormal, nil
	case "low":
		return queue.PriorityLow, nil
	case "high":
		return queue.PriorityHigh, nil
	default:
		return 0, fmt.Errorf("orchestratorctl: unknown priority %q (want low, normal or high)", s)
	}
}
