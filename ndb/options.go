package ndb

import "log/slog"

// Limits shared by queries, searches and polls.
const (
	// MaxLimit bounds every limit argument. The engine scales limits by up
	// to 10 internally, and MaxLimit*10 still fits an int32.
	MaxLimit = 100_000_000

	// DefaultQueryLimit is used by QueryDefault.
	DefaultQueryLimit = 100

	// DefaultPollLimit is used by Subscription.PollDefault.
	DefaultPollLimit = 100
)

type options struct {
	logger        *slog.Logger
	noteCacheSize int
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger used by the database. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithNoteCacheSize sets how many note payloads the engine caches.
// Non-positive values use the engine default.
func WithNoteCacheSize(n int) Option {
	return func(o *options) {
		o.noteCacheSize = n
	}
}

func checkLimit(op string, n int) error {
	if n <= 0 || n > MaxLimit {
		return invalidArgument(op, "limit must be in (0, %d], got %d", MaxLimit, n)
	}
	return nil
}
