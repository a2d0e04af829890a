package protocol

import "github.com/cshekharsharma/replicate/wire"

// Handler is implemented by the collection runtime so the state
// machine never touches a concrete CRDT type. It is the seam between
// the sync protocol and whatever Collection⟨C⟩ owns the actual algebra.
type Handler interface {
	// CollectionID names the collection this Machine is syncing, carried
	// on every StateSummary/Delta frame.
	CollectionID() string

	// CrdtType names the algebra for the wire delta discriminator.
	CrdtType() wire.CrdtType

	// StateSummary renders a compact vector summary of the current
	// state, sent on entering Syncing and whenever requested.
	StateSummary() []byte

	// DeltaFor computes what this replica owes a peer that reported
	// peerSummary. ok is false when there is nothing to send.
	DeltaFor(peerSummary []byte) (body []byte, ok bool)

	// MergeDelta folds a remote delta into local state. Persistence (if
	// any) happens inside this call, before it returns.
	MergeDelta(body []byte) error

	// Converged reports whether the collection believes itself in sync
	// with every known peer, driving the Syncing → Idle transition.
	Converged() bool
}
