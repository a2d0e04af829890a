package crdt

import (
	"sync"

	"github.com/cshekharsharma/replicate/replicaid"
)

// LwwMapDelta carries the fragment produced by a single Set: the key and
// the per-key LwwRegisterDelta to merge into the peer's copy.
type LwwMapDelta[K comparable, V any] struct {
	Key   K
	Entry LwwRegisterDelta[V]
}

// LwwMap is a keyed map of LWW registers: each key merges
// independently under the same rule as LwwRegister.
type LwwMap[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*LwwRegister[V]
	replica replicaid.ID
}

// NewLwwMap creates an empty map owned by replica.
func NewLwwMap[K comparable, V any](replica replicaid.ID) *LwwMap[K, V] {
	return &LwwMap[K, V]{entries: make(map[K]*LwwRegister[V]), replica: replica}
}

// Set performs a local mutation on one key and returns its delta.
func (m *LwwMap[K, V]) Set(key K, value V, now WallTs) LwwMapDelta[K, V] {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.entries[key]
	if !ok {
		reg = NewLwwRegister[V](m.replica)
		m.entries[key] = reg
	}
	d := reg.Set(value, now)
	return LwwMapDelta[K, V]{Key: key, Entry: d}
}

// Get returns the current value for key and whether the key has an
// entry, from a local Set or from a merge (a key with no entry is
// absent, not merely zero).
func (m *LwwMap[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	reg, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	v, _ := reg.Get()
	return v, true
}

// Keys returns a snapshot of every key with an entry.
func (m *LwwMap[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]K, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}

// ApplyDelta merges a single-key delta into the map.
func (m *LwwMap[K, V]) ApplyDelta(d LwwMapDelta[K, V]) {
	m.mu.Lock()
	reg, ok := m.entries[d.Key]
	if !ok {
		reg = NewLwwRegister[V](m.replica)
		m.entries[d.Key] = reg
	}
	m.mu.Unlock()
	reg.ApplyDelta(d.Entry)
}

// ReplicaID returns the identity of the replica that owns this map.
func (m *LwwMap[K, V]) ReplicaID() replicaid.ID {
	return m.replica
}

// Merge combines other's entries into m, per-key LWW. Commutative,
// associative, idempotent.
func (m *LwwMap[K, V]) Merge(other *LwwMap[K, V]) {
	other.mu.RLock()
	regs := make(map[K]*LwwRegister[V], len(other.entries))
	for k, v := range other.entries {
		regs[k] = v
	}
	other.mu.RUnlock()

	for k, reg := range regs {
		m.mu.Lock()
		local, ok := m.entries[k]
		if !ok {
			local = NewLwwRegister[V](m.replica)
			m.entries[k] = local
		}
		m.mu.Unlock()
		local.Merge(reg)
	}
}

// HasConflict is advisory: true if any shared key conflicts.
func (m *LwwMap[K, V]) HasConflict(other *LwwMap[K, V]) bool {
	other.mu.RLock()
	regs := make(map[K]*LwwRegister[V], len(other.entries))
	for k, v := range other.entries {
		regs[k] = v
	}
	other.mu.RUnlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, reg := range regs {
		if local, ok := m.entries[k]; ok && local.HasConflict(reg) {
			return true
		}
	}
	return false
}
