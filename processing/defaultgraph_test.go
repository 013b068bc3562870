package processing

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func assertStep(t *testing.T, g *Graph, name string, children, parents, ancestors []string) {
	t.Helper()
	sortedCopy := func(in []string) []string {
		out := append([]string(nil), in...)
		sort.Strings(out)
		return out
	}
	require.Equal(t, sortedCopy(children), sortedCopy(g.Children(name)), "children of %s", name)
	require.Equal(t, sortedCopy(parents), sortedCopy(g.Parents(name)), "parents of %s", name)
	require.Equal(t, sortedCopy(ancestors), sortedCopy(g.Ancestors(name)), "ancestors of %s", name)
}

func TestDefaultGraph_DoesNotPanic(t *testing.T) {
	require.NotPanics(t, func() { DefaultGraph() })
}

func TestDefaultGraph_FirstSteps(t *testing.T) {
	g := DefaultGraph()
	require.Equal(t, []string{"dataset-config-names"}, g.FirstSteps())
}

func TestDefaultGraph_Steps(t *testing.T) {
	g := DefaultGraph()

	assertStep(t, g, "dataset-config-names",
		[]string{
			"config-split-names-from-streaming",
			"config-parquet-and-info",
			"dataset-opt-in-out-urls-count",
			"dataset-split-names",
			"dataset-parquet",
			"dataset-info",
			"dataset-size",
			"dataset-is-valid",
		},
		[]string{},
		[]string{},
	)

	assertStep(t, g, "config-parquet-and-info",
		[]string{"config-parquet", "config-info", "config-size"},
		[]string{"dataset-config-names"},
		[]string{"dataset-config-names"},
	)

	assertStep(t, g, "config-split-names-from-info",
		[]string{
			"config-opt-in-out-urls-count",
			"split-first-rows-from-streaming",
			"dataset-split-names",
			"split-duckdb-index",
			"split-descriptive-statistics",
			"config-is-valid",
		},
		[]string{"config-info"},
		[]string{"dataset-config-names", "config-parquet-and-info", "config-info"},
	)

	assertStep(t, g, "config-split-names-from-streaming",
		[]string{
			"split-first-rows-from-streaming",
			"dataset-split-names",
			"config-opt-in-out-urls-count",
			"split-duckdb-index",
			"split-descriptive-statistics",
			"config-is-valid",
		},
		[]string{"dataset-config-names"},
		[]string{"dataset-config-names"},
	)

	assertStep(t, g, "dataset-split-names",
		[]string{},
		[]string{"dataset-config-names", "config-split-names-from-info", "config-split-names-from-streaming"},
		[]string{
			"dataset-config-names",
			"config-parquet-and-info",
			"config-info",
			"config-split-names-from-info",
			"config-split-names-from-streaming",
		},
	)

	assertStep(t, g, "split-first-rows-from-parquet",
		[]string{"split-is-valid", "split-image-url-columns"},
		[]string{"config-parquet-metadata"},
		[]string{"config-parquet", "dataset-config-names", "config-parquet-and-info", "config-parquet-metadata"},
	)

	assertStep(t, g, "split-first-rows-from-streaming",
		[]string{"split-is-valid", "split-image-url-columns"},
		[]string{"config-split-names-from-streaming", "config-split-names-from-info"},
		[]string{
			"dataset-config-names",
			"config-split-names-from-streaming",
			"config-split-names-from-info",
			"config-parquet-and-info",
			"config-info",
		},
	)

	assertStep(t, g, "config-parquet",
		[]string{"config-parquet-metadata", "dataset-parquet"},
		[]string{"config-parquet-and-info"},
		[]string{"dataset-config-names", "config-parquet-and-info"},
	)

	assertStep(t, g, "config-parquet-metadata",
		[]string{"split-first-rows-from-parquet", "split-duckdb-index"},
		[]string{"config-parquet"},
		[]string{"dataset-config-names", "config-parquet-and-info", "config-parquet"},
	)

	assertStep(t, g, "dataset-parquet",
		[]string{},
		[]string{"dataset-config-names", "config-parquet"},
		[]string{"dataset-config-names", "config-parquet-and-info", "config-parquet"},
	)

	assertStep(t, g, "config-info",
		[]string{"dataset-info", "config-split-names-from-info"},
		[]string{"config-parquet-and-info"},
		[]string{"dataset-config-names", "config-parquet-and-info"},
	)

	assertStep(t, g, "dataset-info",
		[]string{},
		[]string{"dataset-config-names", "config-info"},
		[]string{"dataset-config-names", "config-parquet-and-info", "config-info"},
	)

	assertStep(t, g, "config-size",
		[]string{"split-is-valid", "dataset-size"},
		[]string{"config-parquet-and-info"},
		[]string{"dataset-config-names", "config-parquet-and-info"},
	)

	assertStep(t, g, "dataset-size",
		[]string{"dataset-hub-cache"},
		[]string{"dataset-config-names", "config-size"},
		[]string{"dataset-config-names", "config-parquet-and-info", "config-size"},
	)

	assertStep(t, g, "dataset-is-valid",
		[]string{"dataset-hub-cache"},
		[]string{"config-is-valid", "dataset-config-names"},
		[]string{
			"dataset-config-names",
			"config-parquet-and-info",
			"config-info",
			"config-parquet",
			"config-size",
			"config-split-names-from-info",
			"config-parquet-metadata",
			"config-split-names-from-streaming",
			"split-first-rows-from-parquet",
			"split-first-rows-from-streaming",
			"config-is-valid",
			"split-is-valid",
			"split-duckdb-index",
		},
	)

	assertStep(t, g, "split-image-url-columns",
		[]string{"split-opt-in-out-urls-scan"},
		[]string{"split-first-rows-from-streaming", "split-first-rows-from-parquet"},
		[]string{
			"dataset-config-names",
			"config-split-names-from-streaming",
			"config-split-names-from-info",
			"config-info",
			"config-parquet-and-info",
			"config-parquet-metadata",
			"split-first-rows-from-streaming",
			"config-parquet",
			"split-first-rows-from-parquet",
		},
	)

	assertStep(t, g, "split-opt-in-out-urls-scan",
		[]string{"split-opt-in-out-urls-count"},
		[]string{"split-image-url-columns"},
		[]string{
			"dataset-config-names",
			"config-split-names-from-streaming",
			"config-split-names-from-info",
			"config-info",
			"config-parquet-and-info",
			"config-parquet-metadata",
			"split-first-rows-from-streaming",
			"config-parquet",
			"split-first-rows-from-parquet",
			"split-image-url-columns",
		},
	)

	assertStep(t, g, "split-opt-in-out-urls-count",
		[]string{"config-opt-in-out-urls-count"},
		[]string{"split-opt-in-out-urls-scan"},
		[]string{
			"dataset-config-names",
			"config-split-names-from-streaming",
			"split-first-rows-from-streaming",
			"config-split-names-from-info",
			"config-info",
			"config-parquet-and-info",
			"config-parquet-metadata",
			"split-opt-in-out-urls-scan",
			"config-parquet",
			"split-first-rows-from-parquet",
			"split-image-url-columns",
		},
	)

	assertStep(t, g, "config-opt-in-out-urls-count",
		[]string{"dataset-opt-in-out-urls-count"},
		[]string{"split-opt-in-out-urls-count", "config-split-names-from-info", "config-split-names-from-streaming"},
		[]string{
			"dataset-config-names",
			"config-split-names-from-streaming",
			"split-first-rows-from-streaming",
			"config-split-names-from-info",
			"config-info",
			"config-parquet-and-info",
			"config-parquet-metadata",
			"split-opt-in-out-urls-count",
			"split-opt-in-out-urls-scan",
			"config-parquet",
			"split-first-rows-from-parquet",
			"split-image-url-columns",
		},
	)

	assertStep(t, g, "dataset-opt-in-out-urls-count",
		[]string{},
		[]string{"config-opt-in-out-urls-count", "dataset-config-names"},
		[]string{
			"dataset-config-names",
			"config-split-names-from-streaming",
			"split-first-rows-from-streaming",
			"config-split-names-from-info",
			"config-info",
			"config-parquet-and-info",
			"config-parquet-metadata",
			"config-opt-in-out-urls-count",
			"split-opt-in-out-urls-count",
			"split-opt-in-out-urls-scan",
			"config-parquet",
			"split-first-rows-from-parquet",
			"split-image-url-columns",
		},
	)

	assertStep(t, g, "split-duckdb-index",
		[]string{"config-duckdb-index-size", "split-is-valid"},
		[]string{"config-split-names-from-info", "config-split-names-from-streaming", "config-parquet-metadata"},
		[]string{
			"config-split-names-from-info",
			"config-split-names-from-streaming",
			"config-parquet",
			"config-parquet-and-info",
			"config-parquet-metadata",
			"config-info",
			"dataset-config-names",
		},
	)

	assertStep(t, g, "config-duckdb-index-size",
		[]string{"dataset-duckdb-index-size"},
		[]string{"split-duckdb-index"},
		[]string{
			"config-split-names-from-info",
			"config-split-names-from-streaming",
			"config-parquet",
			"config-parquet-and-info",
			"config-parquet-metadata",
			"config-info",
			"dataset-config-names",
			"split-duckdb-index",
		},
	)

	assertStep(t, g, "dataset-duckdb-index-size",
		[]string{},
		[]string{"config-duckdb-index-size"},
		[]string{
			"config-duckdb-index-size",
			"config-split-names-from-info",
			"config-split-names-from-streaming",
			"config-parquet",
			"config-parquet-and-info",
			"config-parquet-metadata",
			"config-info",
			"dataset-config-names",
			"split-duckdb-index",
		},
	)

	assertStep(t, g, "split-descriptive-statistics",
		[]string{},
		[]string{"config-split-names-from-info", "config-split-names-from-streaming"},
		[]string{
			"dataset-config-names",
			"config-parquet-and-info",
			"config-info",
			"config-split-names-from-info",
			"config-split-names-from-streaming",
		},
	)

	assertStep(t, g, "dataset-hub-cache",
		[]string{},
		[]string{"dataset-is-valid", "dataset-size"},
		[]string{
			"config-info",
			"config-is-valid",
			"config-parquet",
			"config-parquet-and-info",
			"config-parquet-metadata",
			"config-size",
			"config-split-names-from-info",
			"config-split-names-from-streaming",
			"dataset-config-names",
			"dataset-is-valid",
			"dataset-size",
			"split-duckdb-index",
			"split-first-rows-from-parquet",
			"split-first-rows-from-streaming",
			"split-is-valid",
		},
	)
}

func TestDefaultGraph_TopologicalSteps_RespectParentOrder(t *testing.T) {
	g := DefaultGraph()
	order := g.TopologicalSteps()
	index := make(map[string]int, len(order))
	for i, name := range order {
		index[name] = i
	}
	for _, name := range order {
		for _, parent := range g.Parents(name) {
			require.Less(t, index[parent], index[name])
		}
	}
}
