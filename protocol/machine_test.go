package protocol

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cshekharsharma/replicate/replicaid"
	"github.com/cshekharsharma/replicate/wire"
)

type fakeHandler struct {
	mu           sync.Mutex
	collectionID string
	value        []byte
	converged    bool
}

func (h *fakeHandler) CollectionID() string    { return h.collectionID }
func (h *fakeHandler) CrdtType() wire.CrdtType { return wire.CrdtLwwRegister }

func (h *fakeHandler) StateSummary() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]byte(nil), h.value...)
}

func (h *fakeHandler) DeltaFor(peerSummary []byte) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if bytes.Equal(h.value, peerSummary) {
		return nil, false
	}
	return append([]byte(nil), h.value...), true
}

// MergeDelta emulates a CRDT merge that treats an empty incoming value
// as "no information" (identity element), so a late-arriving summary
// from a side that hasn't learned the value yet can never regress one
// that already has it — a stand-in for a real CRDT's monotonicity.
func (h *fakeHandler) MergeDelta(body []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(body) > 0 {
		h.value = append([]byte(nil), body...)
	}
	h.converged = true
	return nil
}

func (h *fakeHandler) Converged() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.converged
}

func (h *fakeHandler) Value() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]byte(nil), h.value...)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = 50 * time.Millisecond
	cfg.ConnectTimeout = 200 * time.Millisecond
	cfg.WelcomeTimeout = 200 * time.Millisecond
	cfg.OutboxSize = 16
	return cfg
}

func TestMachine_ConvergesAcrossPipe(t *testing.T) {
	ta, tb := newPipe()
	ha := &fakeHandler{collectionID: "notes", value: []byte("hello-from-a")}
	hb := &fakeHandler{collectionID: "notes"}

	ma := NewMachine(testConfig(), ta, ha, replicaid.New(), zap.NewNop())
	mb := NewMachine(testConfig(), tb, hb, replicaid.New(), zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go ma.Run(ctx)
	go mb.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if bytes.Equal(hb.Value(), []byte("hello-from-a")) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !bytes.Equal(hb.Value(), []byte("hello-from-a")) {
		t.Fatalf("expected b to converge on a's value, got %q", hb.Value())
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := ma.Stop(stopCtx); err != nil {
		t.Fatalf("stop a: %v", err)
	}
	if err := mb.Stop(stopCtx); err != nil {
		t.Fatalf("stop b: %v", err)
	}
}

func TestBackoff_ExponentialWithCap(t *testing.T) {
	if backoff(1) != 100*time.Millisecond {
		t.Fatalf("expected 100ms, got %v", backoff(1))
	}
	if backoff(2) != 200*time.Millisecond {
		t.Fatalf("expected 200ms, got %v", backoff(2))
	}
	if got := backoff(20); got != 30*time.Second {
		t.Fatalf("expected cap 30s, got %v", got)
	}
}
