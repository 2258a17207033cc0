package handle

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_CloseExactlyOnce(t *testing.T) {
	var destroyed atomic.Int32
	g := NewGuard(Handle{ID: 7, Kind: KindFilter}, func(h Handle) {
		assert.Equal(t, int64(7), h.ID)
		destroyed.Add(1)
	})

	assert.True(t, g.IsOpen())
	assert.True(t, g.Close())
	for i := 0; i < 5; i++ {
		assert.False(t, g.Close())
	}
	assert.False(t, g.IsOpen())
	assert.Equal(t, int32(1), destroyed.Load())
}

func TestGuard_ConcurrentClose(t *testing.T) {
	var destroyed atomic.Int32
	g := NewGuard(Handle{ID: 1, Kind: KindDatabase}, func(Handle) { destroyed.Add(1) })

	var wg sync.WaitGroup
	var winners atomic.Int32
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Close() {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.Equal(t, int32(1), destroyed.Load())
}

func TestGuard_UseAfterClose(t *testing.T) {
	g := NewGuard(Handle{ID: 3, Kind: KindTransaction}, func(Handle) {})
	g.Close()

	called := false
	err := g.Use(func(Handle) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called, "closed guard must not forward the handle")
	assert.True(t, errors.Is(err, ErrClosed))

	var ce *ClosedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindTransaction, ce.Kind)
	assert.Equal(t, "transaction is closed", err.Error())

	_, err = g.Handle()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestGuard_CloseWaitsForUse(t *testing.T) {
	inside := make(chan struct{})
	release := make(chan struct{})
	var destroyedAt, usedUntil atomic.Int64

	g := NewGuard(Handle{ID: 9, Kind: KindDatabase}, func(Handle) {
		destroyedAt.Store(time.Now().UnixNano())
	})

	go func() {
		_ = g.Use(func(Handle) error {
			close(inside)
			<-release
			usedUntil.Store(time.Now().UnixNano())
			return nil
		})
	}()

	<-inside
	closed := make(chan struct{})
	go func() {
		g.Close()
		close(closed)
	}()

	time.Sleep(10 * time.Millisecond)
	assert.False(t, g.IsOpen())
	close(release)
	<-closed

	assert.LessOrEqual(t, usedUntil.Load(), destroyedAt.Load())
}

func TestGuard_MutateReplacesHandle(t *testing.T) {
	var destroyed []int64
	g := NewGuard(Handle{ID: 1, Kind: KindFilterBuilder}, func(h Handle) {
		destroyed = append(destroyed, h.ID)
	})

	for next := int64(2); next <= 4; next++ {
		err := g.Mutate(func(old Handle) (Handle, error) {
			assert.Equal(t, next-1, old.ID)
			return Handle{ID: next, Kind: KindFilterBuilder}, nil
		})
		require.NoError(t, err)
	}

	h, err := g.Handle()
	require.NoError(t, err)
	assert.Equal(t, int64(4), h.ID)

	g.Close()
	assert.Equal(t, []int64{4}, destroyed, "only the latest handle is destroyed")
}

func TestGuard_MutateConsumedWithoutReplacement(t *testing.T) {
	destroyCalled := false
	g := NewGuard(Handle{ID: 1, Kind: KindFilterBuilder}, func(Handle) { destroyCalled = true })

	err := g.Mutate(func(Handle) (Handle, error) { return Handle{}, nil })
	assert.ErrorIs(t, err, ErrConsumed)
	assert.False(t, g.IsOpen())

	boom := errors.New("boom")
	g2 := NewGuard(Handle{ID: 1, Kind: KindFilterBuilder}, nil)
	err = g2.Mutate(func(Handle) (Handle, error) { return Handle{}, boom })
	assert.ErrorIs(t, err, boom)

	g.Close()
	assert.False(t, destroyCalled, "a consumed handle is never destroyed twice")
}

func TestGuard_Take(t *testing.T) {
	destroyCalled := false
	g := NewGuard(Handle{ID: 5, Kind: KindFilterBuilder}, func(Handle) { destroyCalled = true })

	h, err := g.Take()
	require.NoError(t, err)
	assert.Equal(t, int64(5), h.ID)
	assert.False(t, g.IsOpen())

	_, err = g.Take()
	assert.ErrorIs(t, err, ErrClosed)

	assert.False(t, g.Close())
	assert.False(t, destroyCalled)
}

func TestGuard_InvalidHandleStartsClosed(t *testing.T) {
	g := NewGuard(Handle{Kind: KindFilter}, func(Handle) { t.Fatal("destroy must not run") })
	assert.False(t, g.IsOpen())
	assert.False(t, g.Close())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "database", KindDatabase.String())
	assert.Equal(t, "filter builder", KindFilterBuilder.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
