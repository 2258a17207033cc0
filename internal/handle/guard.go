package handle

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrConsumed is returned by Mutate when the boundary call consumed the
// current handle without producing a replacement.
var ErrConsumed = errors.New("handle consumed without replacement")

// Guard owns one handle and closes it exactly once.
type Guard struct {
	kind    Kind
	id      atomic.Int64
	closed  atomic.Bool
	mu      sync.RWMutex // held shared by Use/Mutate, exclusively by teardown
	destroy func(Handle)
}

// NewGuard wraps h. destroy is called at most once, with the handle held at
// close time; it is never called for a handle that was taken or consumed.
func NewGuard(h Handle, destroy func(Handle)) *Guard {
	g := &Guard{kind: h.Kind, destroy: destroy}
	g.id.Store(h.ID)
	if !h.Valid() {
		g.closed.Store(true)
	}
	return g
}

// Kind returns the kind of the guarded handle.
func (g *Guard) Kind() Kind {
	return g.kind
}

// IsOpen reports whether the guard has not been closed.
func (g *Guard) IsOpen() bool {
	return !g.closed.Load()
}

// Handle returns the current handle, or a ClosedError.
// The returned value may be destroyed by a concurrent Close; use Use to
// pin it for the duration of a call.
func (g *Guard) Handle() (Handle, error) {
	if g.closed.Load() {
		return Handle{}, &ClosedError{Kind: g.kind}
	}
	return Handle{ID: g.id.Load(), Kind: g.kind}, nil
}

// Use runs fn with the live handle. Close blocks until fn returns.
func (g *Guard) Use(fn func(Handle) error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed.Load() {
		return &ClosedError{Kind: g.kind}
	}
	return fn(Handle{ID: g.id.Load(), Kind: g.kind})
}

// Mutate passes the current handle to fn, which must treat it as consumed,
// and stores the replacement fn returns. If fn returns an invalid handle the
// guard becomes closed without calling destroy, because the old handle no
// longer exists; the error from fn (or ErrConsumed) is returned.
func (g *Guard) Mutate(fn func(Handle) (Handle, error)) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed.Load() {
		return &ClosedError{Kind: g.kind}
	}
	next, err := fn(Handle{ID: g.id.Load(), Kind: g.kind})
	if !next.Valid() {
		g.id.Store(0)
		g.closed.Store(true)
		if err == nil {
			err = ErrConsumed
		}
		return err
	}
	g.id.Store(next.ID)
	return err
}

// Take closes the guard without destroying the handle and returns it.
// Ownership passes to the caller. Fails with a ClosedError if the guard is
// already closed.
func (g *Guard) Take() (Handle, error) {
	if !g.closed.CompareAndSwap(false, true) {
		return Handle{}, &ClosedError{Kind: g.kind}
	}
	g.mu.Lock()
	id := g.id.Swap(0)
	g.mu.Unlock()
	return Handle{ID: id, Kind: g.kind}, nil
}

// Close destroys the handle on the first call and reports whether this call
// did so. Later calls are no-ops.
func (g *Guard) Close() bool {
	if !g.closed.CompareAndSwap(false, true) {
		return false
	}
	g.mu.Lock()
	id := g.id.Swap(0)
	g.mu.Unlock()

	if id != 0 && g.destroy != nil {
		g.destroy(Handle{ID: id, Kind: g.kind})
	}
	return true
}
