// Package artifact defines the identity of a single cached result: a
// (kind, dataset, revision[, config[, split]]) tuple, and the canonical
// string form used as the artifact's id everywhere else in this repo.
package artifact

import (
	"strings"

	"github.com/datasets-hub/orchestrator/go/skerr"
)

// InputType is the scope at which a ProcessingStep (and therefore the
// artifacts it produces) operates.
type InputType string

const (
	InputTypeDataset InputType = "dataset"
	InputTypeConfig  InputType = "config"
	InputTypeSplit   InputType = "split"
)

// rank orders InputTypes from least to most specific, matching the
// invariant that a split-level step may depend on config- or dataset-level
// parents but not vice-versa.
func (it InputType) rank() int {
	switch it {
	case InputTypeDataset:
		return 0
	case InputTypeConfig:
		return 1
	case InputTypeSplit:
		return 2
	default:
		return -1
	}
}

// MoreSpecificThan returns true if it is strictly more specific than other
// (split > config > dataset).
func (it InputType) MoreSpecificThan(other InputType) bool {
	return it.rank() > other.rank()
}

// ID identifies one artifact: a single cached result for one processing
// step, at one input scope, for one dataset revision.
type ID struct {
	Kind     string
	Dataset  string
	Revision string
	Config   string // empty if not applicable
	Split    string // empty if not applicable
}

// GetID returns the canonical string form of id:
// "kind,dataset,revision[,config[,split]]", with missing tail components
// omitted entirely (not left as empty fields), matching the convention
// fixed by the test scenarios in spec.md §8.
func GetID(kind, dataset, revision, config, split string) string {
	parts := []string{kind, dataset, revision}
	if config != "" {
		parts = append(parts, config)
	}
	if split != "" {
		parts = append(parts, split)
	}
	return strings.Join(parts, ",")
}

// ID returns the canonical id string for i.
func (i ID) ID() string {
	return GetID(i.Kind, i.Dataset, i.Revision, i.Config, i.Split)
}

// ParseID parses a canonical artifact id string back into its components.
// It is the inverse of GetID: ParseID(GetID(...)) == the original fields.
func ParseID(id string) (ID, error) {
	parts := strings.Split(id, ",")
	if len(parts) < 3 || len(parts) > 5 {
		return ID{}, skerr.Fmt("artifact: invalid id %q: expected 3 to 5 comma-separated fields, got %d", id, len(parts))
	}
	result := ID{
		Kind:     parts[0],
		Dataset:  parts[1],
		Revision: parts[2],
	}
	if len(parts) >= 4 {
		result.Config = parts[3]
	}
	if len(parts) == 5 {
		result.Split = parts[4]
	}
	if result.Kind == "" || result.Dataset == "" || result.Revision == "" {
		return ID{}, skerr.Fmt("artifact: invalid id %q: kind, dataset and revision must be non-empty", id)
	}
	return result, nil
}
