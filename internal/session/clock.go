package session

import "sync/atomic"

// Clock is a monotonic logical clock numbering applied actions.
//
// Every action applied by a Session is stamped with a strictly increasing
// seq from this clock. The journal is keyed by it, so replay folds actions
// in exactly the order they were applied.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// However, the Session's single-writer design means only one goroutine
// typically calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used to resume a journal after its last recorded seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
