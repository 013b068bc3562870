package planner

import (
	"context"
	"encoding/json"

	"github.com/datasets-hub/orchestrator/artifact"
	"github.com/datasets-hub/orchestrator/cache"
	"github.com/datasets-hub/orchestrator/config"
	"github.com/datasets-hub/orchestrator/processing"
)

// datasetInfoContent is the shape both "dataset-info" and "config-info"
// cache content share: a nested dataset_size field used to decide whether
// a dataset is "big" for bonus-difficulty purposes.
type datasetInfoContent struct {
	DatasetInfo struct {
		DatasetSize int64 `json:"dataset_size"`
	} `json:"dataset_info"`
}

// isDatasetBig reports whether dataset (or, if config is non-empty,
// specifically config) is at or above minBytes, per the "config-info" /
// "dataset-info" cache aggregate. Per spec.md §9's open question, any
// failure to read or parse that aggregate defaults to false rather than
// propagating an error: a missing size is never treated as "big".
func isDatasetBig(ctx context.Context, store cache.Store, dataset, config string, minBytes int64) bool {
	if minBytes <= 0 {
		return false
	}
	kind := "dataset-info"
	if config != "" {
		kind = "config-info"
	}
	entry, err := store.Get(ctx, kind, dataset, config, "")
	if err != nil || entry.IsError() {
		return false
	}
	var parsed datasetInfoContent
	if err := json.Unmarshal(entry.Content, &parsed); err != nil {
		return false
	}
	return parsed.DatasetInfo.DatasetSize >= minBytes
}

// computeDifficulty applies spec.md §8 scenario 5's formula: base
// difficulty, plus a bonus if the step declares one and the dataset is
// big, plus a per-failed-run penalty, clamped to cfg.DefaultDifficultyMax.
func computeDifficulty(cfg config.Config, step *processing.Step, isBig bool, failedRuns int) int {
	d := step.Difficulty
	if step.BonusDifficultyIfDatasetIsBig > 0 && isBig {
		d += step.BonusDifficultyIfDatasetIsBig
	}
	d += failedRuns * cfg.DifficultyBonusByFailedRuns
	return cfg.ClampDifficulty(d)
}

// scopedAddress truncates (config, split) to the components a step of
// input type it actually addresses, dropping whichever tail components it
// operates above.
func scopedAddress(it artifact.InputType, config, split string) (string, string) {
	switch it {
	case artifact.InputTypeDataset:
		return "", ""
	case artifact.InputTypeConfig:
		return config, ""
	default:
		return config, split
	}
}
