package testutil

import "sync"

// DefaultEpoch is the first timestamp a fresh DeterministicClock hands out
// (2024-01-01T00:00:00Z).
const DefaultEpoch int64 = 1704067200

// DeterministicClock provides a thread-safe monotonic created_at source for
// test events.
//
// Every call to Next advances by one second, so events built in sequence
// sort newest-last and the same scenario always produces identical ids.
type DeterministicClock struct {
	mu    sync.Mutex
	epoch int64
	ticks int64
}

// NewDeterministicClock creates a clock whose first Next() returns epoch.
func NewDeterministicClock(epoch int64) *DeterministicClock {
	return &DeterministicClock{epoch: epoch}
}

// Next returns the current timestamp and advances the clock.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.epoch + c.ticks
	c.ticks++
	return ts
}

// Current returns the timestamp the next call to Next() will return.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch + c.ticks
}

// Reset rewinds the clock to its epoch.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
