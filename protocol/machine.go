package protocol

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cshekharsharma/replicate/errs"
	"github.com/cshekharsharma/replicate/replicaid"
	"github.com/cshekharsharma/replicate/wire"
)

// Machine drives one instance of the replication state machine for a single
// (collection, peer) pair. Create one per peer a Collection knows about;
// run it with Run, stop it with Stop.
type Machine struct {
	cfg       Config
	transport Transport
	handler   Handler
	local     replicaid.ID
	logger    *zap.Logger

	mu       sync.Mutex
	state    State
	attempt  int
	peerID   string
	lastSeen time.Time
	lastSync time.Time
	online   bool

	outbox chan []byte
	stopCh chan struct{}
	doneCh chan struct{}
	notify chan struct{} // local mutation or peer-delta wakeup, Idle → Syncing

	stopOnce sync.Once
}

// NewMachine constructs a Machine bound to transport and handler. local
// is this replica's own identity, sent in Hello.
func NewMachine(cfg Config, transport Transport, handler Handler, local replicaid.ID, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		cfg:       cfg,
		transport: transport,
		handler:   handler,
		local:     local,
		logger:    logger,
		state:     Disconnected,
		outbox:    make(chan []byte, cfg.OutboxSize),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		notify:    make(chan struct{}, 1),
	}
}

// State returns the current machine state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status snapshots this peer's liveness for the collection's "peers"
// operation.
func (m *Machine) Status() PeerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return PeerStatus{PeerID: m.peerID, LastSeen: m.lastSeen, IsOnline: m.online, LastSync: m.lastSync}
}

func (m *Machine) setState(s State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()
	if prev != s {
		m.logger.Debug("protocol state transition", zap.String("from", prev.String()), zap.String("to", s.String()))
	}
}

// NotifyLocalMutation wakes an Idle machine so it re-enters Syncing and
// offers a fresh StateSummary on a local mutation or an incoming peer
// Delta. Non-blocking: a pending wakeup already queued is enough.
func (m *Machine) NotifyLocalMutation() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Enqueue queues msg for transmission, blocking (never dropping) while
// the outbox is full, so further local mutations block until it drains.
func (m *Machine) Enqueue(ctx context.Context, msg []byte) error {
	select {
	case m.outbox <- msg:
		return nil
	case <-ctx.Done():
		return errs.Transport("enqueue", ctx.Err())
	case <-m.stopCh:
		return errs.Transport("enqueue", context.Canceled)
	}
}

// Stop requests the machine to release its transport and return to
// Disconnected, then waits for Run to exit. Safe to call more than once
// or before Run has started.
func (m *Machine) Stop(ctx context.Context) error {
	m.stopOnce.Do(func() { close(m.stopCh) })
	select {
	case <-m.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes the state machine until ctx is cancelled or Stop is
// called. Intended to be started with `go machine.Run(ctx)`.
func (m *Machine) Run(ctx context.Context) error {
	defer close(m.doneCh)
	defer func() {
		m.setState(Disconnecting)
		m.teardown(context.Background())
	}()

	m.setState(Connecting)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.stopCh:
			return nil
		default:
		}

		switch m.State() {
		case Connecting:
			if !m.runConnecting(ctx) {
				return nil
			}
		case AwaitingWelcome, Syncing, Idle:
			if !m.runConnected(ctx) {
				return nil
			}
		case Failed:
			if !m.runBackoff(ctx) {
				return nil
			}
		case Disconnected, Disconnecting:
			return nil
		}
	}
}

func (m *Machine) teardown(ctx context.Context) {
	if m.transport.IsConnected() {
		if err := m.transport.Disconnect(ctx); err != nil {
			m.logger.Warn("transport disconnect failed", zap.Error(err))
		}
	}
	m.setState(Disconnected)
}

// runConnecting attempts the transport connect + Hello handshake
// (Disconnected → Connecting → AwaitingWelcome). Returns false if
// the caller should stop the whole Run loop (stop/ctx cancellation).
func (m *Machine) runConnecting(ctx context.Context) bool {
	connectCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()

	err := m.transport.Connect(connectCtx)
	select {
	case <-m.stopCh:
		return false
	default:
	}
	if err != nil {
		m.logger.Warn("transport connect failed", zap.Error(err))
		m.setState(Failed)
		return true
	}

	hello := wire.EncodeHello(wire.Hello{ProtocolVersion: wire.ProtocolVersion, ReplicaID: m.local.Bytes()})
	if err := m.transport.Send(connectCtx, hello); err != nil {
		m.logger.Warn("hello send failed", zap.Error(err))
		m.setState(Failed)
		return true
	}
	m.setState(AwaitingWelcome)
	return true
}

func (m *Machine) runBackoff(ctx context.Context) bool {
	m.mu.Lock()
	m.attempt++
	attempt := m.attempt
	m.mu.Unlock()

	if attempt > m.cfg.MaxReconnectAttempts {
		m.logger.Warn("max reconnect attempts exceeded, surfacing permanent failure",
			zap.Int("attempts", attempt-1))
		return false
	}
	delay := backoff(attempt)
	m.logger.Debug("reconnecting after backoff", zap.Duration("delay", delay), zap.Int("attempt", attempt))

	select {
	case <-time.After(delay):
		m.setState(Connecting)
		return true
	case <-ctx.Done():
		return false
	case <-m.stopCh:
		return false
	}
}
