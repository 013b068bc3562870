package queue

import "github.com/datasets-hub/orchestrator/go/sql/schema"

// tables names every table CRDBQueue and GitBranchLock expect CockroachDB
// to have for the Queue and its locks.
type tables struct {
	JobsBlue struct{}
	Locks    struct{}
}

// TableNames returns the lower-cased table names CRDBQueue and
// GitBranchLock depend on.
func TableNames() []string {
	return schema.TableNames(tables{})
}
