package crdt

import "github.com/cshekharsharma/replicate/replicaid"

// RemoveWinsSet is an AddWinsSet with one difference: Remove discards
// the element's value immediately, rather than keeping it around in
// case a concurrent add needs to be compared against full content. The
// merge algebra — union by ID, later ModifiedAt wins, tiebreak by
// ReplicaId — is identical, deletions included: a concurrent delete and
// update at the same ModifiedAt resolve by the greater ReplicaId like
// any other tie, so the delete does not win that tie on its own.
type RemoveWinsSet[T any] struct {
	*addWins[T]
}

// NewRemoveWinsSet creates an empty set owned by replica.
func NewRemoveWinsSet[T any](replica replicaid.ID) *RemoveWinsSet[T] {
	return &RemoveWinsSet[T]{addWins: newAddWins[T](replica, false, nil)}
}

// Add inserts a new element.
func (s *RemoveWinsSet[T]) Add(value T, now WallTs) (ElementID, AddWinsDelta[T]) {
	return s.add(value, now)
}

// Update changes an existing element's value.
func (s *RemoveWinsSet[T]) Update(id ElementID, value T, now WallTs) (AddWinsDelta[T], bool) {
	return s.update(id, value, now)
}

// Remove physically deletes an element's value, keeping only enough
// metadata to resolve future merge ties.
func (s *RemoveWinsSet[T]) Remove(id ElementID, now WallTs) (AddWinsDelta[T], bool) {
	return s.removePhysical(id, now)
}

// Get returns a live element's value.
func (s *RemoveWinsSet[T]) Get(id ElementID) (T, bool) {
	r, ok := s.get(id)
	return r.Value, ok
}

// Values returns every live element's value, in no particular order.
func (s *RemoveWinsSet[T]) Values() []T {
	recs := s.visible()
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = r.Value
	}
	return out
}

// Len returns the number of live elements.
func (s *RemoveWinsSet[T]) Len() int { return len(s.visible()) }

// ApplyDelta merges a single element's delta into the set.
func (s *RemoveWinsSet[T]) ApplyDelta(d AddWinsDelta[T]) { s.applyDelta(d) }

// ReplicaID returns the identity of the replica that owns this set.
func (s *RemoveWinsSet[T]) ReplicaID() replicaid.ID { return s.replica }

// Merge unions other's elements into s.
func (s *RemoveWinsSet[T]) Merge(other *RemoveWinsSet[T]) { s.merge(other.addWins) }

// HasConflict is advisory.
func (s *RemoveWinsSet[T]) HasConflict(other *RemoveWinsSet[T]) bool {
	return s.hasConflict(other.addWins)
}

// RemoveWinsList is the ordered counterpart of RemoveWinsSet, the same
// way AddWinsList is the ordered counterpart of AddWinsSet.
type RemoveWinsList[T any] struct {
	*addWins[T]
}

// NewRemoveWinsList creates an empty list owned by replica.
func NewRemoveWinsList[T any](replica replicaid.ID, clock *replicaid.Clock) *RemoveWinsList[T] {
	return &RemoveWinsList[T]{addWins: newAddWins[T](replica, true, clock)}
}

// Append adds value at the tail of visible order.
func (l *RemoveWinsList[T]) Append(value T, now WallTs) (ElementID, AddWinsDelta[T]) {
	return l.add(value, now)
}

// Update changes an existing element's value.
func (l *RemoveWinsList[T]) Update(id ElementID, value T, now WallTs) (AddWinsDelta[T], bool) {
	return l.update(id, value, now)
}

// Remove physically deletes an element's value.
func (l *RemoveWinsList[T]) Remove(id ElementID, now WallTs) (AddWinsDelta[T], bool) {
	return l.removePhysical(id, now)
}

// Values returns every live element's value in PositionId order.
func (l *RemoveWinsList[T]) Values() []T {
	recs := l.visible()
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = r.Value
	}
	return out
}

// Len returns the number of live elements.
func (l *RemoveWinsList[T]) Len() int { return len(l.visible()) }

// ApplyDelta merges a single element's delta into the list.
func (l *RemoveWinsList[T]) ApplyDelta(d AddWinsDelta[T]) { l.applyDelta(d) }

// ReplicaID returns the identity of the replica that owns this list.
func (l *RemoveWinsList[T]) ReplicaID() replicaid.ID { return l.replica }

// Merge unions other's elements into l.
func (l *RemoveWinsList[T]) Merge(other *RemoveWinsList[T]) { l.merge(other.addWins) }

// HasConflict is advisory.
func (l *RemoveWinsList[T]) HasConflict(other *RemoveWinsList[T]) bool {
	return l.hasConflict(other.addWins)
}
