package skerr_test

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/datasets-hub/orchestrator/go/skerr"
)

func TestWrap_NilError_ReturnsNil(t *testing.T) {
	require.NoError(t, skerr.Wrap(nil))
}

func TestWrap_PreservesCauseAndLocation(t *testing.T) {
	cause := errors.New("boom")
	err := skerr.Wrap(cause)
	require.Equal(t, cause, skerr.Unwrap(err))
	require.Regexp(t, `boom\. At .*skerr_test\.go:\d+`, err.Error())
}

func TestWrapf_PrependsMessage(t *testing.T) {
	cause := errors.New("disk full")
	err := skerr.Wrapf(cause, "writing job %s", "j1")
	require.Equal(t, cause, skerr.Unwrap(err))
	require.Regexp(t, `writing job j1: disk full\. At .*skerr_test\.go:\d+`, err.Error())
}

func TestFmt_BuildsNewError(t *testing.T) {
	err := skerr.Fmt("dataset %s has %d configs", "squad", 3)
	require.Regexp(t, `dataset squad has 3 configs\. At .*skerr_test\.go:\d+`, err.Error())
}

func TestErrorsIs_FindsWrappedSentinel(t *testing.T) {
	wrapped := skerr.Wrap(io.EOF)
	require.True(t, errors.Is(wrapped, io.EOF))
}

type customError struct{ msg string }

func (c *customError) Error() string { return c.msg }

func TestErrorsAs_ExtractsTypedError(t *testing.T) {
	cause := &customError{msg: "typed failure"}
	wrapped := skerr.Wrapf(cause, "decoding")

	var target *customError
	require.True(t, errors.As(wrapped, &target))
	require.Equal(t, "typed failure", target.msg)
}
