// Package wire implements the replication protocol's on-the-wire
// messages: a compact binary encoding for deltas and handshakes, and a
// text JSON encoding for control messages, so a browser console can
// inspect presence/heartbeat/ack traffic directly.
package wire

import "time"

// ProtocolVersion is the wire format version carried on every message.
// A receiver seeing a version it doesn't understand fails the handshake
// with a ProtocolError during the handshake.
const ProtocolVersion uint16 = 1

// MaxMessageSize is the default receiver-side cutoff; a message
// larger than this is rejected with errs.ErrMessageTooLarge before it is
// even decoded.
const MaxMessageSize = 1 << 20 // 1 MiB

// MessageType discriminates the wire message types.
type MessageType uint8

const (
	MessageHello MessageType = iota
	MessageWelcome
	MessageStateSummary
	MessageDelta
	MessageHeartbeat
	MessagePeerJoin
	MessagePeerLeave
	MessagePresence
	MessageAck
	MessageBinaryAck
)

func (t MessageType) String() string {
	switch t {
	case MessageHello:
		return "hello"
	case MessageWelcome:
		return "welcome"
	case MessageStateSummary:
		return "state_summary"
	case MessageDelta:
		return "delta"
	case MessageHeartbeat:
		return "heartbeat"
	case MessagePeerJoin:
		return "peer_join"
	case MessagePeerLeave:
		return "peer_leave"
	case MessagePresence:
		return "presence"
	case MessageAck:
		return "ack"
	case MessageBinaryAck:
		return "binary_ack"
	default:
		return "unknown"
	}
}

// CrdtType discriminates the algebra a state_summary or delta message
// carries: LwwRegister, LwwMap, GCounter, RGA, LSEQ, Tree, or Graph.
type CrdtType uint8

const (
	CrdtLwwRegister CrdtType = iota
	CrdtLwwMap
	CrdtGCounter
	CrdtRGA
	CrdtLSEQ
	CrdtTree
	CrdtGraph
)

// ServerInfo describes the peer a replica just completed a handshake
// with.
type ServerInfo struct {
	ServerID     string   `json:"server_id"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

// UserInfo optionally accompanies a peer_join announcement.
type UserInfo struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Hello is sent immediately after transport-up, to begin the handshake.
type Hello struct {
	ProtocolVersion uint16
	ReplicaID       [16]byte
}

// Welcome replies to Hello, completing the handshake.
type Welcome struct {
	PeerID     string     `json:"peer_id"`
	Timestamp  time.Time  `json:"timestamp"`
	ServerInfo ServerInfo `json:"server_info"`
}

// StateSummary lets a peer compute the delta it owes without sending
// full state.
type StateSummary struct {
	CollectionID  string
	CrdtType      CrdtType
	VectorSummary []byte
}

// Delta carries one CRDT delta for a given collection.
type Delta struct {
	CollectionID string
	CrdtType     CrdtType
	Body         []byte
	Timestamp    int64 // ms since epoch
	ReplicaID    [16]byte
}

// Heartbeat is emitted every heartbeat_interval to keep a peer's
// liveness timer from expiring.
type Heartbeat struct {
	ReplicaID string    `json:"replica_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PeerJoin announces a newly-live peer.
type PeerJoin struct {
	ReplicaID string    `json:"replica_id"`
	UserInfo  *UserInfo `json:"user_info,omitempty"`
}

// PeerLeave announces a peer that stopped being live.
type PeerLeave struct {
	ReplicaID string `json:"replica_id"`
}

// Presence is the compact announcement sent to every other peer when one
// peer's liveness transitions.
type Presence struct {
	PeerID    string    `json:"peer_id"`
	Action    string    `json:"action"` // "join" or "leave"
	Timestamp time.Time `json:"timestamp"`
}

// Ack confirms a Delta was merged successfully.
type Ack struct {
	MessageID string    `json:"message_id"`
	ReplicaID string    `json:"replica_id"`
	Timestamp time.Time `json:"timestamp"`
}

// BinaryAck confirms receipt of a binary-encoded message, reported over
// the JSON control channel.
type BinaryAck struct {
	PeerID    string    `json:"peer_id"`
	Size      uint32    `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}
