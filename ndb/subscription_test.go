package ndb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ndb/internal/testutil"
)

// Scenario C: a subscription sees only notes ingested after it, once.
func TestScenario_SubscribePoll(t *testing.T) {
	db := openTestDB(t)
	fac := testutil.NewEventFactory()
	f := buildTestFilter(t, NewFilterBuilder().Kinds(1))

	sub, err := db.Subscribe(f)
	require.NoError(t, err)
	defer sub.Close()

	keys, err := sub.PollDefault()
	require.NoError(t, err)
	assert.Empty(t, keys)

	ingest(t, db, fac.TextNote("new"))

	keys, err = db.PollForNotes(sub, 10)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	keys, err = sub.Poll(10)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSubscription_IgnoresExistingAndNonMatching(t *testing.T) {
	db := openTestDB(t)
	fac := testutil.NewEventFactory()
	ingest(t, db, fac.TextNote("old"))

	sub, err := db.Subscribe(buildTestFilter(t, NewFilterBuilder().Kinds(1)))
	require.NoError(t, err)
	defer sub.Close()

	ingest(t, db, fac.Note(7, "+"), fac.TextNote("a"), fac.TextNote("b"))

	first, err := sub.Poll(1)
	require.NoError(t, err)
	second, err := sub.Poll(10)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Less(t, first[0], second[0])

	txn := beginTestTxn(t, db)
	n, found, err := db.GetNoteByKey(txn, second[0])
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "b", n.Content)
}

func TestSubscription_OutlivesFilter(t *testing.T) {
	db := openTestDB(t)
	f, err := NewFilterBuilder().Kinds(1).Build()
	require.NoError(t, err)

	sub, err := db.Subscribe(f)
	require.NoError(t, err)
	defer sub.Close()
	require.NoError(t, f.Close())

	ingest(t, db, testutil.NewEventFactory().TextNote("x"))
	keys, err := sub.Poll(10)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestSubscription_CloseIdempotent(t *testing.T) {
	db := openTestDB(t)
	sub, err := db.Subscribe(buildTestFilter(t, NewFilterBuilder()))
	require.NoError(t, err)
	assert.True(t, sub.IsActive())
	assert.NotZero(t, sub.ID())

	require.NoError(t, db.Unsubscribe(sub))
	require.NoError(t, sub.Close())
	assert.False(t, sub.IsActive())
	assert.Zero(t, sub.ID())

	_, err = sub.Poll(10)
	assert.True(t, IsClosedHandleUse(err))
}

func TestSubscription_PollLimitBounds(t *testing.T) {
	db := openTestDB(t)
	sub, err := db.Subscribe(buildTestFilter(t, NewFilterBuilder()))
	require.NoError(t, err)
	defer sub.Close()

	for _, n := range []int{-1, 0, MaxLimit + 1} {
		_, err := sub.Poll(n)
		assert.True(t, IsInvalidArgument(err), "max %d", n)
	}
	_, err = sub.Poll(MaxLimit)
	assert.NoError(t, err)
}

func TestSubscription_AfterDatabaseClose(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	f := buildTestFilter(t, NewFilterBuilder())
	sub, err := db.Subscribe(f)
	require.NoError(t, err)

	require.NoError(t, db.Close())

	_, err = sub.Poll(10)
	assert.True(t, IsClosedHandleUse(err))
	assert.NotPanics(t, func() { sub.Close() })
}

func TestSubscribe_Invalid(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Subscribe(nil)
	assert.True(t, IsInvalidArgument(err))
	_, err = db.PollForNotes(nil, 10)
	assert.True(t, IsInvalidArgument(err))
	assert.NoError(t, db.Unsubscribe(nil))
}
