package cache

import "github.com/datasets-hub/orchestrator/go/sql/schema"

// tables names every table CRDBStore expects CockroachDB to have, in the
// layout spec.md §6 calls cache_responses_blue.
type tables struct {
	CacheResponsesBlue struct{}
}

// TableNames returns the lower-cased table names CRDBStore depends on.
func TableNames() []string {
	return schema.TableNames(tables{})
}
