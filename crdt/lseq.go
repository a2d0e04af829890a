package crdt

import (
	"sort"
	"sync"

	"github.com/cshekharsharma/replicate/position"
	"github.com/cshekharsharma/replicate/replicaid"
)

// lseqEntry is one slot of an LSEQ, addressed directly by its PositionId
// rather than by a parent-pointer chain.
type lseqEntry[T any] struct {
	ID      position.ID
	Value   T
	Deleted bool
}

// LSEQDelta is the wire-sized fragment for one inserted or deleted slot.
type LSEQDelta[T any] struct {
	ID      position.ID
	Value   T
	Deleted bool
}

// LSEQ is the ordered-map-keyed-by-PositionId sibling of RGA: RGA keeps
// a linked list in which each element is anchored to the one it was
// inserted after, while LSEQ keeps its slots ordered by PositionId and
// its visible order is plain PositionId order.
// Because every PositionId is already totally ordered and immutable once
// minted, a newly-received slot can be placed directly by comparison —
// unlike RGA, LSEQ needs no parent-pointer chain and no orphan buffering
// for causal consistency.
type LSEQ[T any] struct {
	mu      sync.RWMutex
	replica replicaid.ID
	alloc   *position.Allocator
	entries map[position.ID]*lseqEntry[T]
	order   []position.ID // kept sorted ascending by PositionId
}

// NewLSEQ creates an empty LSEQ owned by replica.
func NewLSEQ[T any](replica replicaid.ID, clock *replicaid.Clock) *LSEQ[T] {
	return &LSEQ[T]{
		replica: replica,
		alloc:   position.NewAllocator(replica, clock),
		entries: make(map[position.ID]*lseqEntry[T]),
	}
}

// Insert appends value at a freshly minted PositionId.
func (l *LSEQ[T]) Insert(value T) LSEQDelta[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.alloc.Next()
	l.place(&lseqEntry[T]{ID: id, Value: value})
	return LSEQDelta[T]{ID: id, Value: value}
}

// Delete tombstones the slot at id. A no-op if id is unknown locally.
func (l *LSEQ[T]) Delete(id position.ID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[id]; ok {
		e.Deleted = true
	}
}

// place inserts e into both the lookup map and the sorted order slice.
// Caller must hold l.mu.
func (l *LSEQ[T]) place(e *lseqEntry[T]) {
	l.entries[e.ID] = e
	idx := sort.Search(len(l.order), func(i int) bool { return e.ID.Less(l.order[i]) })
	l.order = append(l.order, position.Zero)
	copy(l.order[idx+1:], l.order[idx:])
	l.order[idx] = e.ID
	l.alloc.Observe(e.ID)
}

// ApplyDelta merges one remote insert or delete. PositionId is globally
// unique per mint, so a delta for an ID already present can only be a
// delete (deletion is monotone: once tombstoned, stays tombstoned).
func (l *LSEQ[T]) ApplyDelta(d LSEQDelta[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.entries[d.ID]; ok {
		if d.Deleted {
			existing.Deleted = true
		}
		return
	}
	l.place(&lseqEntry[T]{ID: d.ID, Value: d.Value, Deleted: d.Deleted})
}

// Merge folds every slot of other into l.
func (l *LSEQ[T]) Merge(other *LSEQ[T]) {
	other.mu.RLock()
	deltas := make([]LSEQDelta[T], 0, len(other.entries))
	for _, e := range other.entries {
		deltas = append(deltas, LSEQDelta[T]{ID: e.ID, Value: e.Value, Deleted: e.Deleted})
	}
	other.mu.RUnlock()

	for _, d := range deltas {
		l.ApplyDelta(d)
	}
}

// HasConflict always returns false: PositionId is minted once per
// element and never reassigned, so there is no concurrent-write slot for
// two replicas to disagree over.
func (l *LSEQ[T]) HasConflict(*LSEQ[T]) bool { return false }

// ReplicaID returns the identity of the replica that owns this LSEQ.
func (l *LSEQ[T]) ReplicaID() replicaid.ID { return l.replica }

// Values returns the visible sequence (tombstones hidden) in PositionId
// order.
func (l *LSEQ[T]) Values() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, 0, len(l.order))
	for _, id := range l.order {
		if e := l.entries[id]; !e.Deleted {
			out = append(out, e.Value)
		}
	}
	return out
}

// Len returns the number of visible elements.
func (l *LSEQ[T]) Len() int {
	return len(l.Values())
}
