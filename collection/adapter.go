package collection

import (
	"sync"

	"github.com/cshekharsharma/replicate/errs"
	"github.com/cshekharsharma/replicate/wire"
)

// CRDT is the minimal shape a concrete CRDT instantiation must expose to
// be bound into a Collection: a merge of another same-typed state into
// itself. Every CRDT family in the crdt package
// already has a method of exactly this signature.
type CRDT[Self any] interface {
	Merge(other Self)
}

// conflictChecker is implemented by every crdt package type alongside
// Merge; asserted for optionally, since CRDT[Self] itself cannot name it
// without forcing every instantiation to repeat the type parameter.
type conflictChecker[Self any] interface {
	HasConflict(other Self) bool
}

// Codec encodes and decodes a concrete CRDT state to and from bytes for
// the wire and for persistence. Supplied by the caller binding a
// concrete CRDT type into a Collection, since the generic crdt package
// types carry a type parameter (e.g. LwwRegister[string]) this package
// cannot serialize without knowing what T is.
type Codec[S any] struct {
	Encode func(S) ([]byte, error)
	Decode func([]byte) (S, error)
}

// Adapter binds a concrete CRDT state S (e.g. *crdt.LwwRegister[string])
// into the shape the protocol state machine and Collection runtime
// operate on. Because every CRDT family here is a state-based
// CRDT, a "delta" and a "state summary" are the same artifact: the full
// encoded state. Sending the whole state on every sync round is less
// bandwidth-efficient than a true delta-state protocol, but it is always
// correct — merge(state, full_state) is exactly merge(a, b) — and
// nothing requires delta compression.
type Adapter[S CRDT[S]] struct {
	mu       sync.RWMutex
	state    S
	crdtType wire.CrdtType
	codec    Codec[S]

	lastPeerBytes  []byte
	convergedFlag  bool
	conflictNotify func(bool)
}

// NewAdapter wraps state for sync, identifying it on the wire as
// crdtType and using codec to (de)serialize it.
func NewAdapter[S CRDT[S]](state S, crdtType wire.CrdtType, codec Codec[S]) *Adapter[S] {
	return &Adapter[S]{state: state, crdtType: crdtType, codec: codec, convergedFlag: true}
}

// OnConflict registers the advisory callback invoked after a merge where
// HasConflict reported true.
func (a *Adapter[S]) OnConflict(fn func(bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.conflictNotify = fn
}

// State runs f with exclusive access to the wrapped CRDT, for local
// mutation.
func (a *Adapter[S]) State(f func(S)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f(a.state)
	a.convergedFlag = false
}

// ReadState runs f with shared access to the wrapped CRDT, for local
// reads that may proceed concurrently with other reads.
func (a *Adapter[S]) ReadState(f func(S)) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	f(a.state)
}

// CrdtType identifies the algebra on the wire.
func (a *Adapter[S]) CrdtType() wire.CrdtType { return a.crdtType }

// Snapshot encodes the full current state, used both as the
// state_summary vector and as a delta body (see type doc).
func (a *Adapter[S]) Snapshot() ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	b, err := a.codec.Encode(a.state)
	if err != nil {
		return nil, errs.Codec("encode snapshot", err)
	}
	return b, nil
}

// DeltaFor backs collectionHandler's protocol.Handler method of the
// same name: a peer always gets the full
// state unless its reported summary already matches ours byte-for-byte.
func (a *Adapter[S]) DeltaFor(peerSummary []byte) ([]byte, bool) {
	mine, err := a.Snapshot()
	if err != nil {
		return nil, false
	}
	if bytesEqual(mine, peerSummary) {
		return nil, false
	}
	return mine, true
}

// MergeSnapshot decodes body and merges it into the wrapped state,
// invoking the conflict-advisory callback if HasConflict reports true.
func (a *Adapter[S]) MergeSnapshot(body []byte) error {
	other, err := a.codec.Decode(body)
	if err != nil {
		return errs.Codec("decode snapshot", err)
	}

	a.mu.Lock()
	conflict := false
	if cc, ok := any(a.state).(conflictChecker[S]); ok {
		conflict = cc.HasConflict(other)
	}
	a.state.Merge(other)
	a.lastPeerBytes = body
	a.convergedFlag = true
	notify := a.conflictNotify
	a.mu.Unlock()

	if conflict && notify != nil {
		notify(true)
	}
	return nil
}

// Converged reports whether a merge or mutation since the last state
// change has brought this side in line with the last peer state it saw.
func (a *Adapter[S]) Converged() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.convergedFlag
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
