package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type Jobs struct{}
type CachedResponses struct{}

type Tables struct {
	Jobs            []Jobs
	CachedResponses []CachedResponses
}

func TestTableNames_NonEmptyTables_ReturnsTableNames(t *testing.T) {
	require.Equal(t, []string{"jobs", "cachedresponses"}, TableNames(Tables{}))
}

func TestTableNames_EmptyTables_ReturnsEmptySlice(t *testing.T) {
	require.Empty(t, TableNames(struct{}{}))
}

func TestTableNames_NotAStruct_ReturnsEmptySlice(t *testing.T) {
	require.Empty(t, TableNames(42))
}
