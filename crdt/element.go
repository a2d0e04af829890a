package crdt

import (
	"github.com/cshekharsharma/replicate/position"
	"github.com/cshekharsharma/replicate/replicaid"
	"github.com/google/uuid"
)

// ElementID uniquely identifies one element across every replica that
// ever creates, reads, or deletes it. Backed by a random UUID, the same
// way leptos-sync-core's ElementId/VertexId/NodeId/EdgeId wrap a Uuid.
type ElementID struct {
	u uuid.UUID
}

// NewElementID mints a fresh, globally unique element identifier.
func NewElementID() ElementID {
	return ElementID{u: uuid.New()}
}

func (e ElementID) String() string { return e.u.String() }

// Equal reports whether two IDs identify the same element.
func (e ElementID) Equal(o ElementID) bool { return e.u == o.u }

// record is the common element shape: an ID, a value, the
// creation/modification timestamps, a tombstone flag, and the replica
// that last touched it. Add-wins and remove-wins families both build on
// this; they differ only in what Merge does when a tombstone is
// involved.
type record[T any] struct {
	ID           ElementID
	Value        T
	CreatedAt    WallTs
	ModifiedAt   WallTs
	Tombstone    bool
	LastModifier replicaid.ID
	// Position orders the element within AddWinsList/RemoveWinsList; it
	// is the zero position.ID (unused) for Set variants.
	Position position.ID
}

// recordWins reports whether candidate should replace current under the
// shared add-wins/remove-wins tiebreak: greater ModifiedAt wins; on a
// tie, greater ReplicaId wins.
func recordWins[T any](candidate, current record[T]) bool {
	if candidate.ModifiedAt != current.ModifiedAt {
		return candidate.ModifiedAt.After(current.ModifiedAt)
	}
	return candidate.LastModifier.Greater(current.LastModifier)
}
