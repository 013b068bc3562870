package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/datasets-hub/orchestrator/go/util"
)

// FetchNames reads the best response among kinds for (dataset, config) and
// extracts content[namesField][*][nameField], deduplicating while
// preserving first-seen order. It returns an empty, non-error slice when
// the cache is empty or the content is missing/malformed the expected
// shape — safe fan-out, per the AfterJobPlanner boundary behavior that a
// missing names field produces no child jobs and no error.
func FetchNames(ctx context.Context, store Store, dataset, config string, kinds []string, namesField, nameField string) ([]string, error) {
	entry, err := store.GetBest(ctx, kinds, dataset, config, "")
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if entry.IsError() {
		return nil, nil
	}

	var content map[string]json.RawMessage
	if err := json.Unmarshal(entry.Content, &content); err != nil {
		return nil, nil
	}
	rawList, ok := content[namesField]
	if !ok {
		return nil, nil
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(rawList, &items); err != nil {
		return nil, nil
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		rawName, ok := item[nameField]
		if !ok {
			continue
		}
		var name string
		if err := json.Unmarshal(rawName, &name); err != nil {
			continue
		}
		names = append(names, name)
	}
	return util.DedupPreserveOrder(names), nil
}
