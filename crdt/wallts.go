package crdt

import "time"

// WallTs is a millisecond-resolution UTC instant, used only by CRDTs
// that explicitly choose last-write-wins semantics.
type WallTs int64

// Now returns the current wall-clock time as a WallTs.
func Now() WallTs {
	return WallTs(time.Now().UTC().UnixMilli())
}

// FromTime converts a time.Time to WallTs, truncating to millisecond
// resolution and normalizing to UTC.
func FromTime(t time.Time) WallTs {
	return WallTs(t.UTC().UnixMilli())
}

// Time converts back to a time.Time for logging and display.
func (w WallTs) Time() time.Time {
	return time.UnixMilli(int64(w)).UTC()
}

// After reports whether w is strictly later than other.
func (w WallTs) After(other WallTs) bool {
	return w > other
}
