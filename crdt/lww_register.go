package crdt

import (
	"reflect"
	"sync"

	"github.com/cshekharsharma/replicate/replicaid"
)

// LwwRegisterDelta is the compact state fragment produced by Set and
// consumed by Merge; it is itself a valid LwwRegister state, so
// merge(state, delta) is the same operation as applying the delta
// directly.
type LwwRegisterDelta[T any] struct {
	Value     T
	Timestamp WallTs
	Writer    replicaid.ID
}

// LwwRegister is a single-value last-write-wins register. On equal
// WallTs, the greater ReplicaId wins — a pure function of
// state, never of network arrival order, which is what makes Merge
// commutative.
type LwwRegister[T any] struct {
	mu      sync.RWMutex
	value   T
	ts      WallTs
	writer  replicaid.ID // replica that produced the current value
	replica replicaid.ID // replica that owns this instance
}

// NewLwwRegister creates an empty register owned by replica.
func NewLwwRegister[T any](replica replicaid.ID) *LwwRegister[T] {
	return &LwwRegister[T]{replica: replica, writer: replica}
}

// Set performs a local mutation, stamping the write with now and this
// replica's identity, and returns the delta to persist/enqueue for sync.
func (r *LwwRegister[T]) Set(value T, now WallTs) LwwRegisterDelta[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.value, r.ts, r.writer = value, now, r.replica
	return LwwRegisterDelta[T]{Value: value, Timestamp: now, Writer: r.replica}
}

// Get returns the current value and the timestamp it was written at.
func (r *LwwRegister[T]) Get() (T, WallTs) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value, r.ts
}

// ReplicaID returns the identity of the replica that owns this register.
func (r *LwwRegister[T]) ReplicaID() replicaid.ID {
	return r.replica
}

// ApplyDelta merges a single delta into the register, applying the LWW
// rule: a delta wins if its timestamp is strictly greater, or equal with
// a greater writer ReplicaId.
func (r *LwwRegister[T]) ApplyDelta(d LwwRegisterDelta[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.Timestamp.After(r.ts) || (d.Timestamp == r.ts && d.Writer.Greater(r.writer)) {
		r.value, r.ts, r.writer = d.Value, d.Timestamp, d.Writer
	}
}

// Merge combines other's state into r using the LWW rule. Commutative,
// associative, idempotent.
func (r *LwwRegister[T]) Merge(other *LwwRegister[T]) {
	other.mu.RLock()
	d := LwwRegisterDelta[T]{Value: other.value, Timestamp: other.ts, Writer: other.writer}
	other.mu.RUnlock()
	r.ApplyDelta(d)
}

// HasConflict is advisory: true when both sides have written (non-zero
// timestamp) and disagree on value and writer.
func (r *LwwRegister[T]) HasConflict(other *LwwRegister[T]) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	other.mu.RLock()
	defer other.mu.RUnlock()
	if r.ts == 0 || other.ts == 0 {
		return false
	}
	return !r.writer.Equal(other.writer) && !reflect.DeepEqual(r.value, other.value)
}
