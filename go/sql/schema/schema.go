// Package schema extracts the set of table names a CockroachDB-backed store
// expects to exist, from a struct whose fields name the tables, mirroring
// the layout the Queue and CacheStore schemas declare for migrations.
package schema

import (
	"reflect"
	"strings"
)

// TableNames returns the lower-cased field names of tables, which must be a
// struct each of whose fields represents one SQL table (the field's name is
// the table name; its type is unused). Returns an empty slice for a struct
// with no fields.
func TableNames(tables interface{}) []string {
	t := reflect.TypeOf(tables)
	if t == nil || t.Kind() != reflect.Struct {
		return []string{}
	}
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		names = append(names, strings.ToLower(t.Field(i).Name))
	}
	return names
}
