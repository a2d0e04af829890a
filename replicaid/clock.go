package replicaid

import "sync/atomic"

// Lamport is a per-replica monotonically increasing logical counter. It
// never decreases and is never reused.
type Lamport uint64

// Clock is the per-replica logical clock. The zero value is not ready for
// use; construct with NewClock or RestoreClock.
//
// Clock is safe for concurrent use: its two mutators are Tick, a single
// atomic add, and Observe, a compare-and-swap loop, matching the teacher's pattern of
// guarding counters with a narrow, cheap critical section (RGA.clock in
// the teacher package) rather than a full mutex, since a single uint64
// needs no broader exclusion.
type Clock struct {
	counter atomic.Uint64
}

// NewClock starts a fresh logical clock at zero, for a replica with no
// prior persisted high-water mark.
func NewClock() *Clock {
	return &Clock{}
}

// RestoreClock rehydrates a logical clock from a persisted high-water
// mark, so that Tick never returns a value already observed in a prior
// process lifetime for this replica.
func RestoreClock(highWaterMark Lamport) *Clock {
	c := &Clock{}
	c.counter.Store(uint64(highWaterMark))
	return c
}

// Tick increments the clock and returns the new value. It is strictly
// greater than every value previously returned by this Clock, including
// across a RestoreClock rehydration.
func (c *Clock) Tick() Lamport {
	return Lamport(c.counter.Add(1))
}

// HighWaterMark returns the current counter, the greatest of the restored
// floor, every value produced by Tick and every value passed to Observe,
// for persistence alongside the CRDT state.
func (c *Clock) HighWaterMark() Lamport {
	return Lamport(c.counter.Load())
}

// Observe folds an externally-seen Lamport value (e.g. from a merged
// peer delta) into the clock so that subsequent local Ticks stay ahead
// of anything this replica has witnessed, mirroring a standard Lamport
// clock's "max(local, observed)+1" rule without forcing a tick here.
func (c *Clock) Observe(seen Lamport) {
	for {
		cur := c.counter.Load()
		if uint64(seen) <= cur {
			return
		}
		if c.counter.CompareAndSwap(cur, uint64(seen)) {
			return
		}
	}
}
