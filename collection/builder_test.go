package collection

import (
	"os"
	"testing"
	"time"
)

func TestCollectionBuilder_ProgrammaticOptions(t *testing.T) {
	b := NewCollectionBuilder().
		WithAutoSync(true).
		WithHeartbeatInterval(10 * time.Second).
		WithMaxReconnectAttempts(3)

	opts := b.Options()
	if !opts.AutoSync {
		t.Fatal("expected auto_sync true")
	}
	if opts.HeartbeatInterval.Duration != 10*time.Second {
		t.Fatalf("expected 10s heartbeat, got %v", opts.HeartbeatInterval.Duration)
	}
	if opts.MaxReconnectAttempts != 3 {
		t.Fatalf("expected 3 max reconnect attempts, got %d", opts.MaxReconnectAttempts)
	}
}

func TestCollectionBuilder_WithConfigFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "collection-*.toml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(`auto_sync = true
heartbeat_interval = "15s"
sync_interval = "2s"
max_reconnect_attempts = 7
message_size_limit = 2048
`); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	b, err := NewCollectionBuilder().WithConfigFile(f.Name())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts := b.Options()
	if !opts.AutoSync || opts.HeartbeatInterval.Duration != 15*time.Second ||
		opts.SyncInterval.Duration != 2*time.Second || opts.MaxReconnectAttempts != 7 || opts.MessageSizeLimit != 2048 {
		t.Fatalf("unexpected options after config load: %+v", opts)
	}
}
