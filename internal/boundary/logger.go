package boundary

import (
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

// Logger returns the logger used for teardown faults: the one given to
// SetLogger, or slog.Default() until then.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// SetLogger replaces the package logger. A nil logger restores slog.Default().
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}
