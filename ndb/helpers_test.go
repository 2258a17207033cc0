package ndb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ndb/internal/testutil"
	"github.com/roach88/ndb/nostr"
)

// openTestDB opens a database in a temp directory, closed at test end.
func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func beginTestTxn(t *testing.T, db *Database) *Transaction {
	t.Helper()
	txn, err := db.BeginTransaction()
	require.NoError(t, err)
	t.Cleanup(func() { txn.Close() })
	return txn
}

func buildTestFilter(t *testing.T, b *FilterBuilder) *Filter {
	t.Helper()
	f, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func ingest(t *testing.T, db *Database, notes ...nostr.Note) {
	t.Helper()
	for _, n := range notes {
		require.NoError(t, db.ProcessEvent(testutil.JSON(n)))
	}
}
