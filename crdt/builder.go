package crdt

import (
	"github.com/cshekharsharma/replicate/errs"
	"github.com/cshekharsharma/replicate/replicaid"
)

// Strategy names one merge algebra a Custom CRDT field can use.
type Strategy int

const (
	StrategyLWW Strategy = iota
	StrategyAddWins
	StrategyRemoveWins
	StrategyGCounter
	StrategyMvRegister
	StrategyRGA
	StrategyLSEQ
	StrategyTree
	StrategyDAG
	// StrategyOpaque is the catch-all arm for a field whose content does
	// not fit one of the structured strategies above; it merges as plain
	// LWW over an opaque byte string.
	StrategyOpaque
)

// field is a tagged union over every strategy's concrete CRDT type. Only
// the member matching Strategy is populated; the rest are nil. A named
// field's value is dispatched through a real tagged union rather than
// by reinterpreting untyped JSON at merge time.
type field struct {
	Strategy Strategy

	lww        *LwwRegister[[]byte]
	addWins    *AddWinsSet[[]byte]
	removeWins *RemoveWinsSet[[]byte]
	gcounter   *GCounter
	mv         *MvRegister[[]byte]
	rga        *RGA[[]byte]
	lseq       *LSEQ[[]byte]
	tree       *Tree[[]byte]
	dag        *DAG[[]byte]
	opaque     *LwwRegister[[]byte]
}

// CustomCRDT is a dynamic-payload builder: a record of named fields,
// each independently merged according to its own declared strategy. It
// is not a new CRDT — every field defers entirely to the strategy's own
// algebra; CustomCRDT only routes.
type CustomCRDT struct {
	replica replicaid.ID
	clock   *replicaid.Clock
	fields  map[string]*field
}

// NewCustomCRDT creates an empty builder-defined value owned by replica.
func NewCustomCRDT(replica replicaid.ID, clock *replicaid.Clock) *CustomCRDT {
	return &CustomCRDT{replica: replica, clock: clock, fields: make(map[string]*field)}
}

// DefineField declares a new field under the given strategy. Calling it
// twice for the same name with a different strategy is a caller bug and
// returns errs.ErrStrategyMismatch.
func (c *CustomCRDT) DefineField(name string, strategy Strategy) error {
	if existing, ok := c.fields[name]; ok {
		if existing.Strategy != strategy {
			return errs.ErrStrategyMismatch
		}
		return nil
	}
	f := &field{Strategy: strategy}
	switch strategy {
	case StrategyLWW:
		f.lww = NewLwwRegister[[]byte](c.replica)
	case StrategyAddWins:
		f.addWins = NewAddWinsSet[[]byte](c.replica)
	case StrategyRemoveWins:
		f.removeWins = NewRemoveWinsSet[[]byte](c.replica)
	case StrategyGCounter:
		f.gcounter = NewGCounter(c.replica)
	case StrategyMvRegister:
		f.mv = NewMvRegister[[]byte](c.replica)
	case StrategyRGA:
		f.rga = NewRGA[[]byte](c.replica, c.clock)
	case StrategyLSEQ:
		f.lseq = NewLSEQ[[]byte](c.replica, c.clock)
	case StrategyTree:
		f.tree = NewTree[[]byte](c.replica, c.clock)
	case StrategyDAG:
		f.dag = NewDAG[[]byte](c.replica)
	case StrategyOpaque:
		f.opaque = NewLwwRegister[[]byte](c.replica)
	default:
		return errs.ErrInvalidOperation
	}
	c.fields[name] = f
	return nil
}

// Field returns the strategy-specific handle for name so the caller can
// mutate it directly (e.g. f, _ := c.Field("title"); f.LWW().Set(...)). Returns
// false if the field has not been defined.
func (c *CustomCRDT) Field(name string) (*field, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// LWW returns the field's LwwRegister handle, or nil if this field is
// not StrategyLWW.
func (f *field) LWW() *LwwRegister[[]byte] { return f.lww }

// AddWins returns the field's AddWinsSet handle, or nil otherwise.
func (f *field) AddWins() *AddWinsSet[[]byte] { return f.addWins }

// RemoveWins returns the field's RemoveWinsSet handle, or nil otherwise.
func (f *field) RemoveWins() *RemoveWinsSet[[]byte] { return f.removeWins }

// GCounter returns the field's GCounter handle, or nil otherwise.
func (f *field) GCounter() *GCounter { return f.gcounter }

// MvRegister returns the field's MvRegister handle, or nil otherwise.
func (f *field) MvRegister() *MvRegister[[]byte] { return f.mv }

// RGA returns the field's RGA handle, or nil otherwise.
func (f *field) RGA() *RGA[[]byte] { return f.rga }

// LSEQ returns the field's LSEQ handle, or nil otherwise.
func (f *field) LSEQ() *LSEQ[[]byte] { return f.lseq }

// Tree returns the field's Tree handle, or nil otherwise.
func (f *field) Tree() *Tree[[]byte] { return f.tree }

// DAG returns the field's DAG handle, or nil otherwise.
func (f *field) DAG() *DAG[[]byte] { return f.dag }

// Opaque returns the field's catch-all LwwRegister handle, used when the
// value does not fit a structured strategy: a tagged union over the
// strategy set plus a catch-all opaque-bytes arm.
func (f *field) Opaque() *LwwRegister[[]byte] { return f.opaque }

// ReplicaID returns the identity of the replica that owns this value.
func (c *CustomCRDT) ReplicaID() replicaid.ID { return c.replica }

// adoptField builds a fresh, empty field under remote's strategy and
// merges remote into it, so a field absent locally is folded in by
// value rather than aliasing remote's live CRDT pointer into c.fields:
// otherwise a later mutation of other would silently corrupt c.
func (c *CustomCRDT) adoptField(remote *field) *field {
	f := &field{Strategy: remote.Strategy}
	switch remote.Strategy {
	case StrategyLWW:
		f.lww = NewLwwRegister[[]byte](c.replica)
		f.lww.Merge(remote.lww)
	case StrategyAddWins:
		f.addWins = NewAddWinsSet[[]byte](c.replica)
		f.addWins.Merge(remote.addWins)
	case StrategyRemoveWins:
		f.removeWins = NewRemoveWinsSet[[]byte](c.replica)
		f.removeWins.Merge(remote.removeWins)
	case StrategyGCounter:
		f.gcounter = NewGCounter(c.replica)
		f.gcounter.Merge(remote.gcounter)
	case StrategyMvRegister:
		f.mv = NewMvRegister[[]byte](c.replica)
		f.mv.Merge(remote.mv)
	case StrategyRGA:
		f.rga = NewRGA[[]byte](c.replica, c.clock)
		f.rga.Merge(remote.rga)
	case StrategyLSEQ:
		f.lseq = NewLSEQ[[]byte](c.replica, c.clock)
		f.lseq.Merge(remote.lseq)
	case StrategyTree:
		f.tree = NewTree[[]byte](c.replica, c.clock)
		f.tree.Merge(remote.tree)
	case StrategyDAG:
		f.dag = NewDAG[[]byte](c.replica)
		f.dag.Merge(remote.dag)
	case StrategyOpaque:
		f.opaque = NewLwwRegister[[]byte](c.replica)
		f.opaque.Merge(remote.opaque)
	}
	return f
}

// Merge dispatches per field to the named strategy. A field present on
// both sides with mismatched strategies fails the whole merge with
// errs.ErrStrategyMismatch rather than silently picking one side.
func (c *CustomCRDT) Merge(other *CustomCRDT) error {
	for name, remote := range other.fields {
		if local, ok := c.fields[name]; ok && local.Strategy != remote.Strategy {
			return errs.ErrStrategyMismatch
		}
	}
	for name, remote := range other.fields {
		local, ok := c.fields[name]
		if !ok {
			c.fields[name] = c.adoptField(remote)
			continue
		}
		if local.Strategy != remote.Strategy {
			return errs.ErrStrategyMismatch
		}
		switch local.Strategy {
		case StrategyLWW:
			local.lww.Merge(remote.lww)
		case StrategyAddWins:
			local.addWins.Merge(remote.addWins)
		case StrategyRemoveWins:
			local.removeWins.Merge(remote.removeWins)
		case StrategyGCounter:
			local.gcounter.Merge(remote.gcounter)
		case StrategyMvRegister:
			local.mv.Merge(remote.mv)
		case StrategyRGA:
			local.rga.Merge(remote.rga)
		case StrategyLSEQ:
			local.lseq.Merge(remote.lseq)
		case StrategyTree:
			local.tree.Merge(remote.tree)
		case StrategyDAG:
			local.dag.Merge(remote.dag)
		case StrategyOpaque:
			local.opaque.Merge(remote.opaque)
		}
	}
	return nil
}

// HasConflict is advisory: true if any field shared by both sides
// reports a conflict under its own strategy.
func (c *CustomCRDT) HasConflict(other *CustomCRDT) bool {
	for name, remote := range other.fields {
		local, ok := c.fields[name]
		if !ok || local.Strategy != remote.Strategy {
			continue
		}
		switch local.Strategy {
		case StrategyLWW:
			if local.lww.HasConflict(remote.lww) {
				return true
			}
		case StrategyAddWins:
			if local.addWins.HasConflict(remote.addWins) {
				return true
			}
		case StrategyRemoveWins:
			if local.removeWins.HasConflict(remote.removeWins) {
				return true
			}
		case StrategyGCounter:
			if local.gcounter.HasConflict(remote.gcounter) {
				return true
			}
		case StrategyMvRegister:
			if local.mv.HasConflict(remote.mv) {
				return true
			}
		case StrategyRGA:
			if local.rga.HasConflict(remote.rga) {
				return true
			}
		case StrategyTree:
			if local.tree.HasConflict(remote.tree) {
				return true
			}
		case StrategyDAG:
			if local.dag.HasConflict(remote.dag) {
				return true
			}
		case StrategyOpaque:
			if local.opaque.HasConflict(remote.opaque) {
				return true
			}
		}
	}
	return false
}
