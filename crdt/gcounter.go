package crdt

import (
	"sync"

	"github.com/cshekharsharma/replicate/replicaid"
)

// GCounter is a state-based grow-only counter CRDT, keying each slot by
// replicaid.ID instead of an opaque node string.
//
// The total value is the sum of every replica's slot; merge takes the
// per-replica maximum, which is conflict-free by construction — HasConflict
// always returns false.
type GCounter struct {
	mu      sync.RWMutex
	replica replicaid.ID
	slots   map[replicaid.ID]uint64
}

// NewGCounter creates a GCounter owned by replica.
func NewGCounter(replica replicaid.ID) *GCounter {
	return &GCounter{replica: replica, slots: make(map[replicaid.ID]uint64)}
}

// GCounterDelta carries one replica's slot value, sufficient to merge
// into a peer.
type GCounterDelta struct {
	Replica replicaid.ID
	Count   uint64
}

// Increment adds delta to this replica's own slot and returns the
// resulting delta to persist and enqueue for sync.
func (c *GCounter) Increment(delta uint64) GCounterDelta {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[c.replica] += delta
	return GCounterDelta{Replica: c.replica, Count: c.slots[c.replica]}
}

// Value returns the sum of every replica's slot, the global total.
func (c *GCounter) Value() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var sum uint64
	for _, v := range c.slots {
		sum += v
	}
	return sum
}

// ReplicaID returns the identity of the replica that owns this counter.
func (c *GCounter) ReplicaID() replicaid.ID {
	return c.replica
}

// ApplyDelta folds one replica's slot into the counter, taking the max
// so the running total only ever moves upward.
func (c *GCounter) ApplyDelta(d GCounterDelta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d.Count > c.slots[d.Replica] {
		c.slots[d.Replica] = d.Count
	}
}

// Merge takes the per-replica max of every slot. Commutative,
// associative, idempotent; never conflicts.
func (c *GCounter) Merge(other *GCounter) {
	other.mu.RLock()
	defer other.mu.RUnlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, v := range other.slots {
		if v > c.slots[id] {
			c.slots[id] = v
		}
	}
}

// HasConflict always returns false: a GCounter merge is conflict-free by
// construction.
func (c *GCounter) HasConflict(*GCounter) bool {
	return false
}
