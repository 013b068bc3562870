// Package testutils holds small shared test helpers: skip markers for slow
// tests and a uniform way to assert that a closer closes cleanly.
package testutils

import (
	"io"
	"os"
	"testing"
)

// SkipIfShort skips t when `go test -short` is set, for tests that need a
// real CockroachDB or Redis instance.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping test that requires an external service in -short mode")
	}
}

// SkipIfNoEnv skips t unless the named environment variable is set,
// matching the pattern used to gate CockroachDB-emulator-backed tests
// behind an opt-in env var in CI.
func SkipIfNoEnv(t *testing.T, envVar string) {
	t.Helper()
	if os.Getenv(envVar) == "" {
		t.Skipf("skipping test: set %s to run against a real backend", envVar)
	}
}

// testingT is the subset of *testing.T that AssertCloses uses.
type testingT interface {
	Helper()
	Errorf(format string, args ...interface{})
}

// AssertCloses closes c and fails t if Close returns an error.
func AssertCloses(t testingT, c io.Closer) {
	t.Helper()
	if err := c.Close(); err != nil {
		t.Errorf("error closing: %s", err)
	}
}
