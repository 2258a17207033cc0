package boundary

import (
	"log/slog"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
)

// Call runs fn as the boundary operation op. A panic inside fn is recovered
// and returned as a *Fault together with the zero value of T.
func Call[T any](op string, fn func() T) (result T, err error) {
	CallCount.WithLabelValues(op).Inc()
	timer := prometheus.NewTimer(CallDuration.WithLabelValues(op))
	defer timer.ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			FaultCount.WithLabelValues(op).Inc()
			var zero T
			result = zero
			err = &Fault{Op: op, Value: r, Stack: debug.Stack()}
		}
	}()

	return fn(), nil
}

// Do is Call for operations without a result.
func Do(op string, fn func()) error {
	_, err := Call(op, func() struct{} {
		fn()
		return struct{}{}
	})
	return err
}

// Teardown runs a destroy-style operation. A fault is logged at Warn on
// the package logger and swallowed; Teardown never panics and never fails.
func Teardown(op string, fn func()) {
	TeardownLog(Logger(), op, fn)
}

// TeardownLog is Teardown reporting faults to log instead of the package
// logger. A nil log falls back to the package logger.
func TeardownLog(log *slog.Logger, op string, fn func()) {
	if err := Do(op, fn); err != nil {
		if log == nil {
			log = Logger()
		}
		log.Warn("teardown fault swallowed",
			"op", op,
			"fault", err.Error(),
		)
	}
}
