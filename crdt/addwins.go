package crdt

import (
	"sort"
	"sync"

	"github.com/cshekharsharma/replicate/position"
	"github.com/cshekharsharma/replicate/replicaid"
)

// AddWinsDelta carries one element's full record, sufficient to merge
// into a peer.
type AddWinsDelta[T any] struct {
	rec record[T]
}

// addWins is the shared engine behind AddWinsSet and AddWinsList: union
// by element ID, later ModifiedAt wins the value, and a later tombstone
// wins over a concurrent add.
type addWins[T any] struct {
	mu       sync.RWMutex
	replica  replicaid.ID
	elements map[ElementID]record[T]
	ordered  bool
	alloc    *position.Allocator
}

func newAddWins[T any](replica replicaid.ID, ordered bool, clock *replicaid.Clock) *addWins[T] {
	a := &addWins[T]{
		replica:  replica,
		elements: make(map[ElementID]record[T]),
		ordered:  ordered,
	}
	if ordered {
		a.alloc = position.NewAllocator(replica, clock)
	}
	return a
}

func (a *addWins[T]) add(value T, now WallTs) (ElementID, AddWinsDelta[T]) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := NewElementID()
	rec := record[T]{
		ID:           id,
		Value:        value,
		CreatedAt:    now,
		ModifiedAt:   now,
		LastModifier: a.replica,
	}
	if a.ordered {
		rec.Position = a.alloc.Next()
	}
	a.elements[id] = rec
	return id, AddWinsDelta[T]{rec: rec}
}

func (a *addWins[T]) update(id ElementID, value T, now WallTs) (AddWinsDelta[T], bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.elements[id]
	if !ok {
		return AddWinsDelta[T]{}, false
	}
	rec.Value = value
	rec.ModifiedAt = now
	rec.LastModifier = a.replica
	a.elements[id] = rec
	return AddWinsDelta[T]{rec: rec}, true
}

func (a *addWins[T]) remove(id ElementID, now WallTs) (AddWinsDelta[T], bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.elements[id]
	if !ok {
		return AddWinsDelta[T]{}, false
	}
	rec.Tombstone = true
	rec.ModifiedAt = now
	rec.LastModifier = a.replica
	a.elements[id] = rec
	return AddWinsDelta[T]{rec: rec}, true
}

// removePhysical tombstones id and discards its value, the behavior the
// remove-wins family builds on.
// The record's metadata (timestamps, last modifier) is kept so future
// merges can still resolve ties correctly.
func (a *addWins[T]) removePhysical(id ElementID, now WallTs) (AddWinsDelta[T], bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.elements[id]
	if !ok {
		return AddWinsDelta[T]{}, false
	}
	var zero T
	rec.Value = zero
	rec.Tombstone = true
	rec.ModifiedAt = now
	rec.LastModifier = a.replica
	a.elements[id] = rec
	return AddWinsDelta[T]{rec: rec}, true
}

func (a *addWins[T]) applyDelta(d AddWinsDelta[T]) {
	a.mu.Lock()
	defer a.mu.Unlock()
	current, exists := a.elements[d.rec.ID]
	if !exists || recordWins(d.rec, current) {
		a.elements[d.rec.ID] = d.rec
		if a.ordered {
			a.alloc.Observe(d.rec.Position)
		}
	}
}

func (a *addWins[T]) merge(other *addWins[T]) {
	other.mu.RLock()
	incoming := make([]record[T], 0, len(other.elements))
	for _, r := range other.elements {
		incoming = append(incoming, r)
	}
	other.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range incoming {
		current, exists := a.elements[r.ID]
		if !exists || recordWins(r, current) {
			a.elements[r.ID] = r
			if a.ordered {
				a.alloc.Observe(r.Position)
			}
		}
	}
}

func (a *addWins[T]) hasConflict(other *addWins[T]) bool {
	other.mu.RLock()
	defer other.mu.RUnlock()
	a.mu.RLock()
	defer a.mu.RUnlock()
	for id, r := range other.elements {
		if local, ok := a.elements[id]; ok {
			if local.ModifiedAt == r.ModifiedAt && !local.LastModifier.Equal(r.LastModifier) {
				return true
			}
		}
	}
	return false
}

// visible returns every non-tombstoned record, ordered by PositionId if
// this collection is a List, or in no particular order for a Set.
func (a *addWins[T]) visible() []record[T] {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]record[T], 0, len(a.elements))
	for _, r := range a.elements {
		if !r.Tombstone {
			out = append(out, r)
		}
	}
	if a.ordered {
		sort.Slice(out, func(i, j int) bool { return out[i].Position.Less(out[j].Position) })
	}
	return out
}

// all returns every record including tombstones, for diagnostics.
func (a *addWins[T]) all() []record[T] {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]record[T], 0, len(a.elements))
	for _, r := range a.elements {
		out = append(out, r)
	}
	return out
}

func (a *addWins[T]) get(id ElementID) (record[T], bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.elements[id]
	return r, ok && !r.Tombstone
}

// ──────────────────────────────────────────────────────────────────────
// AddWinsSet
// ──────────────────────────────────────────────────────────────────────

// AddWinsSet is an unordered collection where, on concurrent add/remove
// of the same element, the later write (by ModifiedAt, tiebroken by
// ReplicaId) wins — including a later tombstone over a concurrent add,
// and a later re-add over a concurrent tombstone.
type AddWinsSet[T any] struct {
	*addWins[T]
}

// NewAddWinsSet creates an empty set owned by replica.
func NewAddWinsSet[T any](replica replicaid.ID) *AddWinsSet[T] {
	return &AddWinsSet[T]{addWins: newAddWins[T](replica, false, nil)}
}

// Add inserts a new element and returns its ID and the delta to sync.
func (s *AddWinsSet[T]) Add(value T, now WallTs) (ElementID, AddWinsDelta[T]) {
	return s.add(value, now)
}

// Update changes the value of an existing element and reports false if
// id is unknown.
func (s *AddWinsSet[T]) Update(id ElementID, value T, now WallTs) (AddWinsDelta[T], bool) {
	return s.update(id, value, now)
}

// Remove tombstones an element.
func (s *AddWinsSet[T]) Remove(id ElementID, now WallTs) (AddWinsDelta[T], bool) {
	return s.remove(id, now)
}

// Get returns a live (non-tombstoned) element's value.
func (s *AddWinsSet[T]) Get(id ElementID) (T, bool) {
	r, ok := s.get(id)
	return r.Value, ok
}

// Values returns every live element's value, in no particular order.
func (s *AddWinsSet[T]) Values() []T {
	recs := s.visible()
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = r.Value
	}
	return out
}

// Len returns the number of live elements.
func (s *AddWinsSet[T]) Len() int { return len(s.visible()) }

// ApplyDelta merges a single element's delta into the set.
func (s *AddWinsSet[T]) ApplyDelta(d AddWinsDelta[T]) { s.applyDelta(d) }

// ReplicaID returns the identity of the replica that owns this set.
func (s *AddWinsSet[T]) ReplicaID() replicaid.ID { return s.replica }

// Merge unions other's elements into s. Commutative, associative,
// idempotent; |elements(merge(a,b))| >= max(|a|,|b|) counting tombstoned
// records, so the record set only ever grows (the visible set shrinks
// when a later tombstone arrives).
func (s *AddWinsSet[T]) Merge(other *AddWinsSet[T]) { s.merge(other.addWins) }

// HasConflict is advisory.
func (s *AddWinsSet[T]) HasConflict(other *AddWinsSet[T]) bool { return s.hasConflict(other.addWins) }

// ──────────────────────────────────────────────────────────────────────
// AddWinsList
// ──────────────────────────────────────────────────────────────────────

// AddWinsList is an AddWinsSet whose elements additionally carry a
// PositionId, so Values() returns them in the visible sequence order
// instead of an unspecified order.
type AddWinsList[T any] struct {
	*addWins[T]
}

// NewAddWinsList creates an empty list owned by replica.
func NewAddWinsList[T any](replica replicaid.ID, clock *replicaid.Clock) *AddWinsList[T] {
	return &AddWinsList[T]{addWins: newAddWins[T](replica, true, clock)}
}

// Append adds value at the tail of visible order.
func (l *AddWinsList[T]) Append(value T, now WallTs) (ElementID, AddWinsDelta[T]) {
	return l.add(value, now)
}

// Update changes the value of an existing element in place (its
// position is immutable once assigned).
func (l *AddWinsList[T]) Update(id ElementID, value T, now WallTs) (AddWinsDelta[T], bool) {
	return l.update(id, value, now)
}

// Remove tombstones an element.
func (l *AddWinsList[T]) Remove(id ElementID, now WallTs) (AddWinsDelta[T], bool) {
	return l.remove(id, now)
}

// Values returns every live element's value in PositionId order.
func (l *AddWinsList[T]) Values() []T {
	recs := l.visible()
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = r.Value
	}
	return out
}

// Len returns the number of live elements.
func (l *AddWinsList[T]) Len() int { return len(l.visible()) }

// ApplyDelta merges a single element's delta into the list.
func (l *AddWinsList[T]) ApplyDelta(d AddWinsDelta[T]) { l.applyDelta(d) }

// ReplicaID returns the identity of the replica that owns this list.
func (l *AddWinsList[T]) ReplicaID() replicaid.ID { return l.replica }

// Merge unions other's elements into l.
func (l *AddWinsList[T]) Merge(other *AddWinsList[T]) { l.merge(other.addWins) }

// HasConflict is advisory.
func (l *AddWinsList[T]) HasConflict(other *AddWinsList[T]) bool { return l.hasConflict(other.addWins) }
