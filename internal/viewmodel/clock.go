package viewmodel

import "sync/atomic"

// Clock hands out request sequence numbers.
//
// Every fetch takes a number from Next; when the result arrives it is
// applied only if its number is still the latest. Deactivating a screen
// advances the clock so that no outstanding number matches.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// IsLatest reports whether seq is the most recently issued number.
func (c *Clock) IsLatest(seq int64) bool {
	return c.seq.Load() == seq
}
