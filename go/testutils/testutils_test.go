package testutils

import (
	"errors"
	"testing"
)

type fakeCloser struct {
	err error
}

func (f *fakeCloser) Close() error { return f.err }

func TestAssertCloses_NoError_Passes(t *testing.T) {
	AssertCloses(t, &fakeCloser{})
}

func TestSkipIfNoEnv_Unset_Skips(t *testing.T) {
	t.Run("inner", func(t *testing.T) {
		SkipIfNoEnv(t, "DATASETS_HUB_TEST_BACKEND_UNSET_FOR_SURE")
		t.Fatal("should have skipped before reaching here")
	})
}

// recordingT records whether AssertCloses reported an error, so the
// failure can be observed without failing the enclosing test.
type recordingT struct {
	errored bool
}

func (r *recordingT) Helper() {}

func (r *recordingT) Errorf(format string, args ...interface{}) { r.errored = true }

func TestAssertCloses_Error_IsReported(t *testing.T) {
	rt := &recordingT{}
	AssertCloses(rt, &fakeCloser{err: errors.New("boom")})
	if !rt.errored {
		t.Fatal("expected AssertCloses to report the Close error")
	}
}
