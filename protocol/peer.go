package protocol

import "time"

// PeerStatus is the snapshot a Collection's "peers" operation exposes:
// last seen time, online flag, and last successful sync time.
type PeerStatus struct {
	PeerID   string
	LastSeen time.Time
	IsOnline bool
	LastSync time.Time
}
