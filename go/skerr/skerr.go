// Package skerr adds call-site context to errors without discarding the
// ability to unwrap back to the original cause via errors.Is/errors.As.
package skerr

import (
	"errors"
	"fmt"
	"runtime"
)

// withContext is an error decorated with the file:line of the call that
// wrapped it and, optionally, a human-readable message.
type withContext struct {
	cause   error
	message string
	file    string
	line    int
}

func (e *withContext) Error() string {
	loc := fmt.Sprintf("%s:%d", e.file, e.line)
	if e.message == "" {
		return fmt.Sprintf("%s. At %s", e.cause.Error(), loc)
	}
	return fmt.Sprintf("%s: %s. At %s", e.message, e.cause.Error(), loc)
}

func (e *withContext) Unwrap() error {
	return e.cause
}

func callerLocation(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown", 0
	}
	return file, line
}

// Wrap returns an error that records the caller's file:line and wraps err.
// It returns nil if err is nil, so it is safe to use as `return
// skerr.Wrap(err)` at the bottom of any function.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	file, line := callerLocation(2)
	return &withContext{cause: err, file: file, line: line}
}

// Wrapf is like Wrap but prepends a formatted message describing the
// context in which err occurred, e.g. skerr.Wrapf(err, "starting job %s",
// jobID).
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	file, line := callerLocation(2)
	return &withContext{cause: err, message: fmt.Sprintf(format, args...), file: file, line: line}
}

// Fmt builds a new error (not wrapping any existing one) from a format
// string, still recording the caller's file:line.
func Fmt(format string, args ...interface{}) error {
	file, line := callerLocation(2)
	return &withContext{cause: fmt.Errorf(format, args...), file: file, line: line}
}

// Unwrap returns the innermost error in err's chain, i.e. the original
// cause before any skerr wrapping was applied.
func Unwrap(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
