package ndb

import (
	"log/slog"

	"github.com/roach88/ndb/internal/boundary"
	"github.com/roach88/ndb/internal/native"
)

// SetEngineLogger routes engine diagnostics and the teardown warnings of
// filters and builders to l. Engine diagnostics are discarded by default
// and teardown warnings go to slog.Default(); nil restores those defaults.
// Database, transaction and subscription teardown warnings use the
// database's own logger (WithLogger).
func SetEngineLogger(l *slog.Logger) {
	native.SetLogger(l)
	boundary.SetLogger(l)
}
