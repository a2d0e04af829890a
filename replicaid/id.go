// Package replicaid provides replica identity and the per-replica logical
// clock that disambiguates concurrent operations across the CRDT algebra.
//
// A ReplicaId is a 128-bit opaque identifier, bitwise-equal and
// lexicographically ordered the same way across every replica that ever
// sees it; the total order is used as a deterministic tiebreak throughout
// the CRDT merge rules, never as a "preferred" or "authoritative"
// replica.
package replicaid

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ID is a globally unique, 128-bit replica identifier. The zero value is
// not a valid ID; always construct one with New or FromBytes.
type ID struct {
	u uuid.UUID
}

// New produces a random ID backed by uuid.New, a version-4 UUID: 122
// random bits, with the version and variant bits fixed.
func New() ID {
	return ID{u: uuid.New()}
}

// FromBytes restores an ID previously persisted with Bytes.
func FromBytes(b [16]byte) ID {
	return ID{u: uuid.UUID(b)}
}

// Parse restores an ID from its canonical string form (as stored in
// identity/replica_id or embedded in a text wire message).
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, errors.Wrap(err, "replicaid: parse")
	}
	return ID{u: u}, nil
}

// Bytes returns the raw 16-byte representation for durable storage or the
// binary wire codec.
func (id ID) Bytes() [16]byte {
	return [16]byte(id.u)
}

// String returns the canonical (RFC 4122) string form, used in text
// wire messages and persisted metadata.
func (id ID) String() string {
	return id.u.String()
}

// IsZero reports whether id is the zero value (never a valid replica ID).
func (id ID) IsZero() bool {
	return id.u == uuid.Nil
}

// Equal reports bitwise equality.
func (id ID) Equal(other ID) bool {
	return id.u == other.u
}

// Less implements the total lexicographic order over replica IDs used as
// a tiebreak in LWW-family merges: greater ReplicaId wins on equal
// timestamp.
func (id ID) Less(other ID) bool {
	return bytes.Compare(id.u[:], other.u[:]) < 0
}

// Greater is the inverse of Less, spelled out at merge call sites where
// "greater ReplicaId wins" reads more directly than double-negating Less.
func (id ID) Greater(other ID) bool {
	return other.Less(id)
}

// MarshalJSON renders the canonical string form for text wire messages.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.u.String())
}

// UnmarshalJSON parses the canonical string form.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return errors.Wrap(err, "replicaid: unmarshal")
	}
	id.u = u
	return nil
}
