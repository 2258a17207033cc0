package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ndb/internal/testutil"
	"github.com/roach88/ndb/nostr"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// mustWrite stores n and returns its key.
func mustWrite(t *testing.T, s *Store, n nostr.Note) int64 {
	t.Helper()
	key, _, err := s.WriteNote(context.Background(), n, []byte(testutil.JSON(n)))
	require.NoError(t, err)
	return key
}

// beginRead opens a snapshot closed at test end.
func beginRead(t *testing.T, s *Store) *ReadTx {
	t.Helper()
	r, err := s.BeginRead(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}
