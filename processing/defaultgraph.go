package processing

import "github.com/datasets-hub/orchestrator/artifact"

// defaultSpec is the production processing graph: every step a dataset
// revision is decomposed into, from discovering its configs down to the
// per-split artifacts and the final dataset-hub-cache rollup. Step names,
// input types and wiring mirror the dataset viewer service this system
// replaces the backend for.
func defaultSpec() Specification {
	d := artifact.InputTypeDataset
	c := artifact.InputTypeConfig
	s := artifact.InputTypeSplit

	return Specification{
		"dataset-config-names": {InputType: d},

		"config-parquet-and-info": {InputType: c, TriggeredBy: []string{"dataset-config-names"}},
		"config-parquet":          {InputType: c, TriggeredBy: []string{"config-parquet-and-info"}},
		"config-parquet-metadata": {InputType: c, TriggeredBy: []string{"config-parquet"}},
		"config-info":             {InputType: c, TriggeredBy: []string{"config-parquet-and-info"}},
		"config-size":             {InputType: c, TriggeredBy: []string{"config-parquet-and-info"}},

		"config-split-names-from-streaming": {InputType: c, TriggeredBy: []string{"dataset-config-names"}},
		"config-split-names-from-info":      {InputType: c, TriggeredBy: []string{"config-info"}},

		"split-first-rows-from-streaming": {
			InputType:   s,
			TriggeredBy: []string{"config-split-names-from-streaming", "config-split-names-from-info"},
		},
		"split-first-rows-from-parquet": {InputType: s, TriggeredBy: []string{"config-parquet-metadata"}},

		"split-image-url-columns": {
			InputType:   s,
			TriggeredBy: []string{"split-first-rows-from-streaming", "split-first-rows-from-parquet"},
		},
		"split-opt-in-out-urls-scan": {InputType: s, TriggeredBy: []string{"split-image-url-columns"}},
		"split-opt-in-out-urls-count": {
			InputType:   s,
			Difficulty:  20,
			TriggeredBy: []string{"split-opt-in-out-urls-scan"},
		},
		"config-opt-in-out-urls-count": {
			InputType: c,
			TriggeredBy: []string{
				"split-opt-in-out-urls-count",
				"config-split-names-from-info",
				"config-split-names-from-streaming",
			},
		},
		"dataset-opt-in-out-urls-count": {
			InputType:   d,
			TriggeredBy: []string{"config-opt-in-out-urls-count", "dataset-config-names"},
		},

		"split-duckdb-index": {
			InputType:   s,
			Difficulty:  70,
			TriggeredBy: []string{"config-split-names-from-info", "config-split-names-from-streaming", "config-parquet-metadata"},
		},
		"config-duckdb-index-size":  {InputType: c, TriggeredBy: []string{"split-duckdb-index"}},
		"dataset-duckdb-index-size": {InputType: d, TriggeredBy: []string{"config-duckdb-index-size"}},

		"split-descriptive-statistics": {
			InputType:   s,
			Difficulty:  70,
			TriggeredBy: []string{"config-split-names-from-info", "config-split-names-from-streaming"},
		},

		"split-is-valid": {
			InputType: s,
			TriggeredBy: []string{
				"config-size",
				"split-first-rows-from-parquet",
				"split-first-rows-from-streaming",
				"split-duckdb-index",
			},
		},
		"config-is-valid": {
			InputType:   c,
			TriggeredBy: []string{"config-split-names-from-info", "config-split-names-from-streaming", "split-is-valid"},
		},
		"dataset-is-valid": {
			InputType:   d,
			TriggeredBy: []string{"config-is-valid", "dataset-config-names"},
		},

		"dataset-split-names": {
			InputType:   d,
			TriggeredBy: []string{"dataset-config-names", "config-split-names-from-info", "config-split-names-from-streaming"},
		},
		"dataset-parquet": {InputType: d, TriggeredBy: []string{"dataset-config-names", "config-parquet"}},
		"dataset-info":    {InputType: d, TriggeredBy: []string{"dataset-config-names", "config-info"}},
		"dataset-size":    {InputType: d, TriggeredBy: []string{"dataset-config-names", "config-size"}},

		"dataset-hub-cache": {
			InputType:                     d,
			BonusDifficultyIfDatasetIsBig: 20,
			TriggeredBy:                   []string{"dataset-is-valid", "dataset-size"},
		},
	}
}

// DefaultGraph returns the production processing graph. It panics if the
// hard-coded specification fails validation, which would indicate a
// programming error rather than a runtime condition.
func DefaultGraph(opts ...Option) *Graph {
	g, err := NewGraph(defaultSpec(), opts...)
	if err != nil {
		panic(err)
	}
	return g
}
