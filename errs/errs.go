// Package errs defines the uniform error taxonomy shared by the
// wire codec, protocol state machine, and collection runtime:
// TransportError, StorageError, CodecError, and ProtocolError. CRDT-level
// errors (ElementNotFound, InvalidPosition, CycleDetected,
// StrategyMismatch, InvalidOperation) live here too, as a closed set of
// sentinels the crdt package returns and callers compare against with
// errors.Is.
//
// Kept orthogonal to every other package: nothing here
// imports replicaid, position, crdt, wire, protocol, or collection, so
// any of those may import errs without a cycle.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind discriminates the taxonomy for callers that want to branch on
// category rather than on a specific sentinel (e.g. the propagation
// policy: codec/transport are recovered locally, storage/crdt/
// protocol are surfaced).
type Kind int

const (
	KindTransport Kind = iota
	KindStorage
	KindCodec
	KindProtocol
	KindCrdt
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStorage:
		return "storage"
	case KindCodec:
		return "codec"
	case KindProtocol:
		return "protocol"
	case KindCrdt:
		return "crdt"
	default:
		return "unknown"
	}
}

// TaxonomyError is the common shape of every non-CRDT error kind: a
// category, an operation name for diagnostics, and the wrapped cause.
type TaxonomyError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *TaxonomyError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *TaxonomyError) Unwrap() error {
	return e.Err
}

// Transport wraps a transport-layer failure (connect/send/receive/
// disconnect). Not fatal: the protocol state machine recovers locally by
// transitioning to Failed and reconnecting.
func Transport(op string, cause error) error {
	return &TaxonomyError{Kind: KindTransport, Op: op, Err: errors.WithStack(cause)}
}

// Storage wraps a storage-layer failure (get/set/delete/keys). Fatal to
// the current operation; surfaced to the caller of mutate/load.
func Storage(op string, cause error) error {
	return &TaxonomyError{Kind: KindStorage, Op: op, Err: errors.WithStack(cause)}
}

// Codec wraps an encode/decode failure. The offending message is
// dropped; the protocol state machine does not retry the same bytes.
func Codec(op string, cause error) error {
	return &TaxonomyError{Kind: KindCodec, Op: op, Err: errors.WithStack(cause)}
}

// Protocol wraps a handshake/version/oversized-message failure that
// transitions the state machine to Failed.
func Protocol(op string, cause error) error {
	return &TaxonomyError{Kind: KindProtocol, Op: op, Err: errors.WithStack(cause)}
}

// IsKind reports whether err (or something it wraps) carries the given
// Kind.
func IsKind(err error, kind Kind) bool {
	var te *TaxonomyError
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}

// CRDT error sentinels. Local and synchronous;
// returned directly to the caller of mutate. Compare with errors.Is.
var (
	ErrElementNotFound  = errors.New("crdt: element not found")
	ErrInvalidPosition  = errors.New("crdt: invalid position")
	ErrCycleDetected    = errors.New("crdt: cycle detected")
	ErrStrategyMismatch = errors.New("crdt: strategy mismatch")
	ErrInvalidOperation = errors.New("crdt: invalid operation")
	// ErrMessageTooLarge is a ProtocolError cause: a message exceeded the
	// wire codec's fixed size limit, wire.MaxMessageSize (1 MiB).
	ErrMessageTooLarge = errors.New("protocol: message too large")
	// ErrVersionMismatch signals an incompatible persisted schema_version
	// or wire protocol_version.
	ErrVersionMismatch = errors.New("protocol: version mismatch")
)
