// Package sklog is a thin structured-logging façade over zap. Production
// code logs through the package-level Infof/Warningf/Errorf/Fatalf
// functions (printf-style, matching the bulk of the call sites in this
// repo) or through With(...) for structured key/value fields when a log
// line needs to be queried by field (dataset, job type, kind).
package sklog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger
)

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	logger = l.Sugar()
}

// SetLogger replaces the package-level logger. Tests use this to install a
// zaptest.NewLogger or an observer so log output can be asserted on.
func SetLogger(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Infof(format string, args ...interface{})    { get().Infof(format, args...) }
func Warningf(format string, args ...interface{}) { get().Warnf(format, args...) }
func Errorf(format string, args ...interface{})   { get().Errorf(format, args...) }
func Fatalf(format string, args ...interface{})   { get().Fatalf(format, args...) }
func Debugf(format string, args ...interface{})   { get().Debugf(format, args...) }

// With returns a structured logger with the given alternating key/value
// pairs attached to every subsequent log line, e.g.:
//
//	sklog.With("dataset", d, "revision", r).Infow("backfill starting")
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	return get().With(keysAndValues...)
}
