// Package assertdeep provides a single deep-equality assertion built on
// go-cmp, used throughout this repo's tests instead of reflect.DeepEqual so
// that failure messages show a structural diff.
package assertdeep

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testingT is the subset of *testing.T used here, so table tests can also
// call Equal from within a subtest helper without importing testing
// directly in non-test files.
type testingT interface {
	Helper()
	Errorf(format string, args ...interface{})
}

var _ testingT = (*testing.T)(nil)

// Equal asserts that expected and actual are deeply equal, printing a
// structural diff on failure.
func Equal(t testingT, expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("values differ (-expected +actual):\n%s", diff)
	}
}
