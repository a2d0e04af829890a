// Package crdt implements the closed family of mergeable data types:
// registers, counters, maps, sets, sequences, trees, and graphs, each
// satisfying the CRDT laws (commutativity, associativity, idempotence).
//
// Every variant exposes a local mutation API returning a compact delta,
// a Merge operation, and a conflict predicate. Merge is always a pure,
// non-suspending operation over in-memory state: it never performs I/O
// and never blocks.
package crdt

import "github.com/cshekharsharma/replicate/replicaid"

// Type identifies a CRDT variant on the wire (delta.crdt_type) and in
// persisted metadata (meta.crdt_type).
type Type string

const (
	TypeLwwRegister     Type = "LwwRegister"
	TypeLwwMap          Type = "LwwMap"
	TypeGCounter        Type = "GCounter"
	TypeAddWinsSet      Type = "AddWinsSet"
	TypeRemoveWinsSet   Type = "RemoveWinsSet"
	TypeRGA             Type = "RGA"
	TypeLSEQ            Type = "LSEQ"
	TypeYjsTree         Type = "Tree"
	TypeDAG             Type = "Graph"
	TypeCustom          Type = "Custom"
)

// CRDT is the minimal contract every variant in the algebra satisfies:
// merge, an advisory conflict test, and the owning replica.
//
// Merge always succeeds deterministically; HasConflict is advisory only
// and never influences the merge result.
type CRDT[Self any] interface {
	// Merge combines other into the receiver. Commutative, associative,
	// idempotent.
	Merge(other Self)

	// HasConflict is a sound-but-possibly-conservative predicate: it
	// never returns false for a detectable conflict in the variant's
	// class, but may return true more often than a perfectly precise
	// check would.
	HasConflict(other Self) bool

	// ReplicaID returns the identity of the replica that owns this
	// instance.
	ReplicaID() replicaid.ID
}

// Resolver is invoked when HasConflict returns true during a merge. It
// is purely observational: its return value never changes the merge
// result, since doing so would break commutativity.
type Resolver func(kind Type, replicaID replicaid.ID)
