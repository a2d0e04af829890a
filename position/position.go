// Package position implements the dense, totally ordered position
// identifiers used by the sequence CRDTs (RGA, LSEQ) and by the
// sibling-ordering layer of the Yjs-style tree.
//
// A PositionId never changes once assigned to an element. LSEQ and the
// ordered add-wins/remove-wins lists derive their visible order purely
// from comparing PositionIds; RGA additionally anchors each element to
// the position it was inserted after and orders by those anchors. Either
// way two replicas can always agree on ordering without coordination.
package position

import (
	"fmt"

	"github.com/cshekharsharma/replicate/replicaid"
)

// ID is the triple (replica, lamport, disambiguator). The total order
// is lexicographic over (Lamport, Disambiguator, ReplicaId).
type ID struct {
	Replica        replicaid.ID
	Lamport        replicaid.Lamport
	Disambiguator  uint64
}

// Zero is never assigned to a real element; sequences use it as the
// virtual "before the first element" anchor.
var Zero ID

// Less implements the total order: lamport first, then disambiguator,
// then replica ID as the final, always-decisive tiebreak.
func (a ID) Less(b ID) bool {
	if a.Lamport != b.Lamport {
		return a.Lamport < b.Lamport
	}
	if a.Disambiguator != b.Disambiguator {
		return a.Disambiguator < b.Disambiguator
	}
	return a.Replica.Less(b.Replica)
}

// Greater is the inverse of Less, for call sites that read better as
// "a sorts after b".
func (a ID) Greater(b ID) bool {
	return b.Less(a)
}

// Equal reports whether a and b identify the same position.
func (a ID) Equal(b ID) bool {
	return a.Lamport == b.Lamport && a.Disambiguator == b.Disambiguator && a.Replica.Equal(b.Replica)
}

// IsZero reports whether id is the virtual pre-sequence anchor.
func (a ID) IsZero() bool {
	return a.Equal(Zero)
}

func (a ID) String() string {
	return fmt.Sprintf("%s/%d/%d", a.Replica.String(), a.Lamport, a.Disambiguator)
}

// Allocator mints new PositionIds for one replica. Minting always uses
// the replica's next Lamport tick, so strict-greater-than-predecessor is
// guaranteed by clock monotonicity alone: a node minted after an
// insert always carries a still-higher Lamport than anything already
// visible to this replica at mint time.
type Allocator struct {
	replica replicaid.ID
	clock   *replicaid.Clock
	disambg uint64
}

// NewAllocator binds an Allocator to one replica's identity and logical
// clock.
func NewAllocator(replica replicaid.ID, clock *replicaid.Clock) *Allocator {
	return &Allocator{replica: replica, clock: clock}
}

// Next mints a new PositionId. Each mint ticks the clock, so two local
// mints never share a Lamport value; Disambiguator is still carried on
// every ID because remote deltas decoded off the wire may collide on
// Lamport and need it to stay within the same total order.
func (a *Allocator) Next() ID {
	a.disambg++
	return ID{
		Replica:       a.replica,
		Lamport:       a.clock.Tick(),
		Disambiguator: a.disambg,
	}
}

// Observe folds a position seen from a peer into the allocator's clock,
// so that subsequently minted positions stay ordered after it.
func (a *Allocator) Observe(p ID) {
	a.clock.Observe(p.Lamport)
}
