package protocol

import "time"

// Config carries the tunables a Machine needs. The CollectionBuilder in
// the collection package populates this from its own option set;
// Machine itself just consumes it.
type Config struct {
	HeartbeatInterval    time.Duration
	SyncInterval         time.Duration
	ConnectTimeout       time.Duration
	WelcomeTimeout       time.Duration
	MaxReconnectAttempts int
	OutboxSize           int
}

// DefaultConfig returns the default tunables.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval:    30 * time.Second,
		SyncInterval:         5 * time.Second,
		ConnectTimeout:       10 * time.Second,
		WelcomeTimeout:       5 * time.Second,
		MaxReconnectAttempts: 5,
		OutboxSize:           1024,
	}
}

func (c Config) livenessWindow() time.Duration {
	return 3 * c.HeartbeatInterval
}
