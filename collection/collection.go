package collection

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cshekharsharma/replicate/protocol"
	"github.com/cshekharsharma/replicate/replicaid"
	"github.com/cshekharsharma/replicate/wire"
)

// ChangeEvent is emitted on a Collection's Subscribe channel after a
// local mutation or a successful peer merge.
type ChangeEvent struct {
	Source string // "mutation" or "merge"
	At     time.Time
}

// Collection⟨S⟩ binds a CRDT state S to a (Storage, Transport) pair and
// is the user-facing surface applications build against. Construct with
// NewCollection.
type Collection[S CRDT[S]] struct {
	id      string
	adapter *Adapter[S]
	storage Storage
	local   replicaid.ID
	logger  *zap.Logger
	opts    Options

	mu       sync.Mutex // single-writer region: load/mutate/merge/persist
	machines map[string]*protocol.Machine

	subMu sync.Mutex
	subs  []chan ChangeEvent

	syncMu     sync.Mutex
	syncCancel context.CancelFunc
	syncWG     sync.WaitGroup

	stateKey string
}

// NewCollection constructs a Collection around state, identified on the
// wire as crdtType and (de)serialized with codec.
func NewCollection[S CRDT[S]](id string, state S, crdtType wire.CrdtType, codec Codec[S], storage Storage, local replicaid.ID, opts Options, logger *zap.Logger) *Collection[S] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[S]{
		id:       id,
		adapter:  NewAdapter(state, crdtType, codec),
		storage:  storage,
		local:    local,
		logger:   logger,
		opts:     opts,
		machines: make(map[string]*protocol.Machine),
		stateKey: "state/" + id + "/crdt",
	}
}

// Load hydrates the in-memory CRDT from Storage; a no-op if nothing has
// been persisted yet. After it returns, the in-memory state equals the
// persisted state.
func (c *Collection[S]) Load(ctx context.Context) error {
	b, ok, err := c.storage.Get(ctx, c.stateKey)
	if err != nil {
		return wrapStorageErr("load", err)
	}
	if !ok {
		return nil
	}
	return c.adapter.MergeSnapshot(b)
}

// Mutate runs f atomically against the wrapped CRDT, persists the result
// before returning, and wakes every peer's protocol machine so the
// change propagates without waiting for the quiescent resync interval.
func (c *Collection[S]) Mutate(ctx context.Context, f func(S)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.adapter.State(f)
	if err := c.persistLocked(ctx); err != nil {
		return err
	}
	c.notifySubs(ChangeEvent{Source: "mutation", At: time.Now()})
	c.wakePeers()
	return nil
}

// Read runs f against the wrapped CRDT under a read lock; may proceed
// concurrently with other reads but not with a mutation.
func (c *Collection[S]) Read(f func(S)) {
	c.adapter.ReadState(f)
}

func (c *Collection[S]) persistLocked(ctx context.Context) error {
	b, err := c.adapter.Snapshot()
	if err != nil {
		return err
	}
	if err := c.storage.Set(ctx, c.stateKey, b); err != nil {
		return wrapStorageErr("persist", err)
	}
	return nil
}

// Subscribe returns a lazy, restartable-from-now sequence of change
// events. An event is dropped silently for a subscriber whose buffer
// (16 events) is full — Subscribe is a notification stream, not a
// durable log.
func (c *Collection[S]) Subscribe() <-chan ChangeEvent {
	ch := make(chan ChangeEvent, 16)
	c.subMu.Lock()
	c.subs = append(c.subs, ch)
	c.subMu.Unlock()
	return ch
}

func (c *Collection[S]) notifySubs(ev ChangeEvent) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// AddPeer registers a peer this collection should sync with over
// transport, returning its protocol.Machine (not yet running — call
// StartSync to drive it, or Run it directly for fine-grained control).
func (c *Collection[S]) AddPeer(peerID string, transport protocol.Transport) *protocol.Machine {
	m := protocol.NewMachine(c.opts.protocolConfig(), transport, &collectionHandler[S]{c: c}, c.local, c.logger)
	c.mu.Lock()
	c.machines[peerID] = m
	c.mu.Unlock()
	return m
}

// StartSync starts the protocol state machine for every known peer.
// Safe to call once; a second call while already running is a no-op.
func (c *Collection[S]) StartSync(ctx context.Context) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	if c.syncCancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.syncCancel = cancel

	c.mu.Lock()
	machines := make([]*protocol.Machine, 0, len(c.machines))
	for _, m := range c.machines {
		machines = append(machines, m)
	}
	c.mu.Unlock()

	for _, m := range machines {
		m := m
		c.syncWG.Add(1)
		go func() {
			defer c.syncWG.Done()
			if err := m.Run(runCtx); err != nil && err != context.Canceled {
				c.logger.Warn("protocol machine exited", zap.Error(err))
			}
		}()
	}
}

// StopSync stops the protocol state machine for every known peer and
// waits for their tasks to exit.
func (c *Collection[S]) StopSync(ctx context.Context) {
	c.syncMu.Lock()
	cancel := c.syncCancel
	c.syncCancel = nil
	c.syncMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()

	c.mu.Lock()
	machines := make([]*protocol.Machine, 0, len(c.machines))
	for _, m := range c.machines {
		machines = append(machines, m)
	}
	c.mu.Unlock()
	for _, m := range machines {
		_ = m.Stop(ctx)
	}
	c.syncWG.Wait()
}

// ForceSync wakes every peer machine so it re-offers a fresh
// StateSummary on its next opportunity, rather than waiting for the
// quiescent resync interval.
func (c *Collection[S]) ForceSync() {
	c.wakePeers()
}

func (c *Collection[S]) wakePeers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.machines {
		m.NotifyLocalMutation()
	}
}

// Peers snapshots every known peer's liveness.
func (c *Collection[S]) Peers() map[string]protocol.PeerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]protocol.PeerStatus, len(c.machines))
	for id, m := range c.machines {
		out[id] = m.Status()
	}
	return out
}

// collectionHandler adapts a Collection to protocol.Handler, so the
// state machine never needs to know S.
type collectionHandler[S CRDT[S]] struct {
	c *Collection[S]
}

func (h *collectionHandler[S]) CollectionID() string   { return h.c.id }
func (h *collectionHandler[S]) CrdtType() wire.CrdtType { return h.c.adapter.CrdtType() }

func (h *collectionHandler[S]) StateSummary() []byte {
	b, err := h.c.adapter.Snapshot()
	if err != nil {
		return nil
	}
	return b
}

func (h *collectionHandler[S]) DeltaFor(peerSummary []byte) ([]byte, bool) {
	return h.c.adapter.DeltaFor(peerSummary)
}

func (h *collectionHandler[S]) MergeDelta(body []byte) error {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	if err := h.c.adapter.MergeSnapshot(body); err != nil {
		return err
	}
	if err := h.c.persistLocked(context.Background()); err != nil {
		return err
	}
	h.c.notifySubs(ChangeEvent{Source: "merge", At: time.Now()})
	return nil
}

func (h *collectionHandler[S]) Converged() bool { return h.c.adapter.Converged() }
