// Package protocol implements the per-(collection, peer) replication
// state machine: handshake, heartbeat/presence liveness tracking,
// exponential-backoff reconnection, and FIFO-within-peer message
// delivery over a caller-supplied Transport.
package protocol

import "context"

// Transport is the connection contract a Machine drives. An
// implementation MUST preserve message boundaries — Send/Receive operate
// on whole messages, never a byte stream that could be split or
// coalesced — but need not guarantee delivery or ordering across a
// reconnect; the protocol recovers lost state via a fresh StateSummary
// exchange after every reconnect.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
	Send(ctx context.Context, msg []byte) error

	// Receive blocks until at least one message is available, ctx is
	// done, or the transport fails. It may return more than one message
	// at once (e.g. several frames that arrived together); an empty,
	// nil-error result means "nothing yet, try again."
	Receive(ctx context.Context) ([][]byte, error)
}

// ConnectionState is the Transport's own liveness state, distinct from
// the Machine's protocol-level State (a reference implementation's
// transport/websocket.rs keeps these as two separate enums because a
// transport can be physically connected while the sync handshake above
// it hasn't completed, and vice versa during a graceful teardown).
type ConnectionState int

const (
	ConnectionDisconnected ConnectionState = iota
	ConnectionConnecting
	ConnectionConnected
	ConnectionClosing
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionDisconnected:
		return "disconnected"
	case ConnectionConnecting:
		return "connecting"
	case ConnectionConnected:
		return "connected"
	case ConnectionClosing:
		return "closing"
	default:
		return "unknown"
	}
}
