// Package sqlutil holds small helpers shared by the CockroachDB-backed
// Queue and CacheStore implementations.
package sqlutil

import (
	"fmt"
	"strings"
)

// ValuesPlaceholders builds the "($1,$2),($3,$4),..." fragment for a
// multi-row INSERT of numRows rows of numCols columns each, using
// PostgreSQL/CockroachDB's $N positional placeholder syntax.
func ValuesPlaceholders(numCols, numRows int) string {
	if numCols <= 0 || numRows <= 0 {
		panic(fmt.Sprintf("sqlutil: numCols and numRows must be positive, got %d, %d", numCols, numRows))
	}
	var sb strings.Builder
	n := 1
	for row := 0; row < numRows; row++ {
		if row > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(")
		for col := 0; col < numCols; col++ {
			if col > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(fmt.Sprintf("$%d", n))
			n++
		}
		sb.WriteString(")")
	}
	return sb.String()
}
