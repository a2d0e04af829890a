package crdt

import (
	"sync"

	"github.com/cshekharsharma/replicate/position"
	"github.com/cshekharsharma/replicate/replicaid"
)

// rgaNode is one element of the replicated growable array, adapted
// directly from the teacher package's Node (rga.go): a linked-list cell
// keyed by its own PositionId and anchored to the PositionId it was
// inserted after.
type rgaNode[T any] struct {
	ID       position.ID
	ParentID position.ID
	Value    T
	Deleted  bool
	next     *rgaNode[T]
}

// RGADelta is the wire-sized fragment for one inserted or deleted node.
type RGADelta[T any] struct {
	ID       position.ID
	ParentID position.ID
	Value    T
	Deleted  bool
}

// RGA is a Replicated Growable Array for collaborative sequence
// editing. Like the teacher package, it keeps a linked list for
// the linearized view plus a hash map (registry) for O(1) lookup by
// PositionId, and buffers remote nodes whose parent hasn't arrived yet
// so causal order is respected during merge.
type RGA[T any] struct {
	mu             sync.RWMutex
	replica        replicaid.ID
	alloc          *position.Allocator
	registry       map[position.ID]*rgaNode[T]
	root           *rgaNode[T]
	pendingOrphans map[position.ID][]RGADelta[T]
}

// NewRGA creates an empty RGA owned by replica, anchored by a sentinel
// root node at the zero PositionId.
func NewRGA[T any](replica replicaid.ID, clock *replicaid.Clock) *RGA[T] {
	root := &rgaNode[T]{ID: position.Zero}
	return &RGA[T]{
		replica:        replica,
		alloc:          position.NewAllocator(replica, clock),
		registry:       map[position.ID]*rgaNode[T]{position.Zero: root},
		root:           root,
		pendingOrphans: make(map[position.ID][]RGADelta[T]),
	}
}

// Insert creates a new element after parentID (position.Zero for the
// head of the sequence) and integrates it locally.
func (r *RGA[T]) Insert(value T, parentID position.ID) RGADelta[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.alloc.Next()
	node := &rgaNode[T]{ID: id, ParentID: parentID, Value: value}
	r.integrate(node)
	return RGADelta[T]{ID: id, ParentID: parentID, Value: value}
}

// Delete tombstones the element at id. A no-op (not an error) if id is
// unknown locally — it may arrive via a later merge.
func (r *RGA[T]) Delete(id position.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if node, ok := r.registry[id]; ok {
		node.Deleted = true
	}
}

// ApplyDelta merges one remote insert or delete into the RGA, buffering
// it if its parent has not yet been integrated (causal consistency).
func (r *RGA[T]) ApplyDelta(d RGADelta[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.registry[d.ID]; ok {
		if d.Deleted {
			existing.Deleted = true
		}
		return
	}
	r.processRemote(d)
}

func (r *RGA[T]) processRemote(d RGADelta[T]) {
	if _, ok := r.registry[d.ParentID]; !ok {
		r.pendingOrphans[d.ParentID] = append(r.pendingOrphans[d.ParentID], d)
		return
	}
	node := &rgaNode[T]{ID: d.ID, ParentID: d.ParentID, Value: d.Value, Deleted: d.Deleted}
	r.integrate(node)

	if orphans, ok := r.pendingOrphans[d.ID]; ok {
		delete(r.pendingOrphans, d.ID)
		for _, child := range orphans {
			r.processRemote(child)
		}
	}
}

// integrate links newNode into the list after its parent, skipping every
// following node with a greater PositionId (greater concurrent siblings
// and everything inserted after them), so concurrent siblings end up in
// descending PositionId order and every replica converges on the same
// linearization.
func (r *RGA[T]) integrate(newNode *rgaNode[T]) {
	parent := r.registry[newNode.ParentID]

	prev := parent
	current := parent.next
	for current != nil && current.ID.Greater(newNode.ID) {
		prev = current
		current = current.next
	}

	newNode.next = current
	prev.next = newNode
	r.registry[newNode.ID] = newNode
	r.alloc.Observe(newNode.ID)
}

// Merge folds every node of other into r. Commutative, associative,
// idempotent: integration order does not affect the final linearization
// because it is entirely a function of PositionId comparison.
func (r *RGA[T]) Merge(other *RGA[T]) {
	other.mu.RLock()
	deltas := make([]RGADelta[T], 0, len(other.registry))
	for id, n := range other.registry {
		if id.IsZero() {
			continue
		}
		deltas = append(deltas, RGADelta[T]{ID: n.ID, ParentID: n.ParentID, Value: n.Value, Deleted: n.Deleted})
	}
	other.mu.RUnlock()

	for _, d := range deltas {
		r.ApplyDelta(d)
	}
}

// HasConflict is advisory: true if both sides have inserted nodes under
// the same parent concurrently.
func (r *RGA[T]) HasConflict(other *RGA[T]) bool {
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	parents := make(map[position.ID]int)
	for id, n := range r.registry {
		if !id.IsZero() {
			parents[n.ParentID]++
		}
	}
	for id, n := range other.registry {
		if id.IsZero() {
			continue
		}
		if _, ok := r.registry[id]; !ok && parents[n.ParentID] > 0 {
			return true
		}
	}
	return false
}

// ReplicaID returns the identity of the replica that owns this RGA.
func (r *RGA[T]) ReplicaID() replicaid.ID { return r.replica }

// Values returns the visible sequence (tombstones hidden) by walking the
// linked list exactly as the teacher's Value() does for its rune-typed
// RGA. Each element follows the element it was inserted after, with
// concurrent inserts at the same anchor in descending PositionId order;
// the result is not a plain sort by PositionId.
func (r *RGA[T]) Values() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []T
	for n := r.root.next; n != nil; n = n.next {
		if !n.Deleted {
			out = append(out, n.Value)
		}
	}
	return out
}

// Len returns the number of visible elements.
func (r *RGA[T]) Len() int {
	return len(r.Values())
}
