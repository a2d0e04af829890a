package protocol

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cshekharsharma/replicate/errs"
	"github.com/cshekharsharma/replicate/wire"
)

// runConnected drives AwaitingWelcome → Syncing ⇄ Idle for one live
// transport session: it owns the receive loop, the outbox drain, the
// heartbeat ticker, and the liveness timer, until the session ends
// (Failed, stop, or ctx cancellation). Returns false if Run should stop
// entirely.
func (m *Machine) runConnected(ctx context.Context) bool {
	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	recvCh := make(chan []byte, 64)
	recvErrCh := make(chan error, 1)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		m.receiveLoop(sessCtx, recvCh, recvErrCh)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.sendLoop(sessCtx)
	}()
	defer wg.Wait()

	m.mu.Lock()
	m.lastSeen = time.Now()
	m.online = true
	m.mu.Unlock()

	heartbeat := time.NewTicker(m.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	welcomeDeadline := time.NewTimer(m.cfg.WelcomeTimeout)
	defer welcomeDeadline.Stop()

	liveness := time.NewTimer(m.cfg.livenessWindow())
	defer liveness.Stop()

	resync := time.NewTicker(m.cfg.SyncInterval)
	defer resync.Stop()

	resetLiveness := func() {
		if !liveness.Stop() {
			select {
			case <-liveness.C:
			default:
			}
		}
		liveness.Reset(m.cfg.livenessWindow())
	}

	for {
		select {
		case <-ctx.Done():
			return false
		case <-m.stopCh:
			return false

		case err := <-recvErrCh:
			m.logger.Warn("transport receive failed", zap.Error(err))
			m.markOffline()
			m.setState(Failed)
			return true

		case frame := <-recvCh:
			resetLiveness()
			m.mu.Lock()
			m.lastSeen = time.Now()
			m.online = true
			m.mu.Unlock()
			if !m.handleFrame(sessCtx, frame) {
				m.setState(Failed)
				return true
			}

		case <-welcomeDeadline.C:
			if m.State() == AwaitingWelcome {
				m.logger.Warn("welcome handshake timed out")
				m.markOffline()
				m.setState(Failed)
				return true
			}

		case <-heartbeat.C:
			hb := wire.Heartbeat{ReplicaID: m.local.String(), Timestamp: time.Now().UTC()}
			body, err := wire.EncodeControl(wire.MessageHeartbeat, m.local.String(), time.Now().UTC(), hb)
			if err == nil {
				_ = m.Enqueue(sessCtx, body)
			}

		case <-liveness.C:
			m.logger.Info("peer liveness window expired", zap.String("peer", m.peerID))
			m.markOffline()
			m.setState(Failed)
			return true

		case <-m.notify:
			if m.State() == Idle {
				m.setState(Syncing)
				m.sendStateSummary(sessCtx)
			}

		case <-resync.C:
			// Upper bound on quiescent-state resync: even with no local
			// mutation or incoming delta, periodically re-offer a
			// StateSummary so a missed convergence eventually self-heals.
			if m.State() == Idle {
				m.setState(Syncing)
				m.sendStateSummary(sessCtx)
			}
		}
	}
}

func (m *Machine) markOffline() {
	m.mu.Lock()
	m.online = false
	m.mu.Unlock()
}

func (m *Machine) receiveLoop(ctx context.Context, out chan<- []byte, errCh chan<- error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		frames, err := m.transport.Receive(ctx)
		if err != nil {
			select {
			case errCh <- err:
			case <-ctx.Done():
			}
			return
		}
		for _, f := range frames {
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (m *Machine) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-m.outbox:
			if err := m.transport.Send(ctx, msg); err != nil {
				m.logger.Warn("send failed", zap.Error(err))
			}
		}
	}
}

// handleFrame dispatches one received frame by wire type. Returns false
// on a decode/protocol failure severe enough to fail the session
// (oversized message, version mismatch); codec errors for a single
// malformed frame are logged and the frame is dropped, never retried.
func (m *Machine) handleFrame(ctx context.Context, frame []byte) bool {
	if len(frame) > wire.MaxMessageSize {
		m.logger.Warn("failing session on oversized frame", zap.Error(errs.Protocol("receive", errs.ErrMessageTooLarge)))
		return false
	}
	if t, isBinary := wire.PeekType(frame); isBinary {
		switch t {
		case wire.MessageHello:
			h, err := wire.DecodeHello(frame)
			if err != nil {
				m.logger.Warn("dropping malformed hello", zap.Error(err))
				return true
			}
			if h.ProtocolVersion != wire.ProtocolVersion {
				m.logger.Warn("failing session on protocol version mismatch", zap.Uint16("peer_version", h.ProtocolVersion),
					zap.Error(errs.Protocol("hello", errs.ErrVersionMismatch)))
				return false
			}
			m.onHello(ctx, h)
		case wire.MessageStateSummary:
			s, err := wire.DecodeStateSummary(frame)
			if err != nil {
				m.logger.Warn("dropping malformed state_summary", zap.Error(err))
				return true
			}
			m.onStateSummary(ctx, s)
		case wire.MessageDelta:
			d, err := wire.DecodeDelta(frame)
			if err != nil {
				m.logger.Warn("dropping malformed delta", zap.Error(err))
				return true
			}
			m.onDelta(ctx, d)
		default:
			m.logger.Warn("dropping unexpected binary frame", zap.String("type", t.String()))
		}
		return true
	}

	control, err := wire.DecodeControl(frame)
	if err != nil {
		m.logger.Warn("dropping malformed control frame", zap.Error(err))
		return true
	}
	switch control.Type {
	case wire.MessageWelcome:
		var w wire.Welcome
		if err := wire.DecodeBody(control.Body, &w); err != nil {
			m.logger.Warn("dropping malformed welcome", zap.Error(err))
			return true
		}
		m.onWelcome(ctx, w)
	case wire.MessageHeartbeat:
		// Heartbeat's only effect is resetting liveness, already done by
		// the caller before dispatch.
	case wire.MessageAck:
		// Advisory only; nothing to do.
	case wire.MessagePeerJoin, wire.MessagePeerLeave, wire.MessagePresence:
		// Presence/topology announcements from the remote side; the
		// collection runtime observes liveness through Status() instead
		// of these, so no action is required here.
	default:
		m.logger.Warn("dropping unknown control message", zap.String("type", control.Type.String()))
	}
	return true
}

// onHello answers a peer's handshake with Welcome, regardless of this
// side's own state: two Machines talking directly to each other (no
// distinguished server) each play both roles, so receiving a Hello
// always gets a reply.
func (m *Machine) onHello(ctx context.Context, h wire.Hello) {
	if h.ProtocolVersion != wire.ProtocolVersion {
		m.logger.Warn("peer protocol version mismatch", zap.Uint16("peer_version", h.ProtocolVersion))
	}
	welcome := wire.Welcome{
		PeerID:    m.local.String(),
		Timestamp: time.Now().UTC(),
		ServerInfo: wire.ServerInfo{
			ServerID: m.local.String(),
			Version:  "1",
		},
	}
	body, err := wire.EncodeControl(wire.MessageWelcome, m.local.String(), time.Now().UTC(), welcome)
	if err != nil {
		m.logger.Warn("encode welcome failed", zap.Error(err))
		return
	}
	_ = m.Enqueue(ctx, body)
}

func (m *Machine) onWelcome(ctx context.Context, w wire.Welcome) {
	if m.State() != AwaitingWelcome {
		return
	}
	m.mu.Lock()
	m.peerID = w.PeerID
	m.attempt = 0
	m.mu.Unlock()
	m.setState(Syncing)
	m.sendStateSummary(ctx)
}

func (m *Machine) sendStateSummary(ctx context.Context) {
	summary := wire.StateSummary{
		CollectionID:  m.handler.CollectionID(),
		CrdtType:      m.handler.CrdtType(),
		VectorSummary: m.handler.StateSummary(),
	}
	body, err := wire.EncodeStateSummary(summary)
	if err != nil {
		m.logger.Warn("encode state_summary failed", zap.Error(err))
		return
	}
	_ = m.Enqueue(ctx, body)
}

func (m *Machine) onStateSummary(ctx context.Context, s wire.StateSummary) {
	body, ok := m.handler.DeltaFor(s.VectorSummary)
	if !ok {
		m.maybeIdle()
		return
	}
	delta := wire.Delta{
		CollectionID: m.handler.CollectionID(),
		CrdtType:     m.handler.CrdtType(),
		Body:         body,
		Timestamp:    time.Now().UnixMilli(),
		ReplicaID:    m.local.Bytes(),
	}
	encoded, err := wire.EncodeDelta(delta)
	if err != nil {
		m.logger.Warn("encode delta failed", zap.Error(err))
		return
	}
	_ = m.Enqueue(ctx, encoded)
}

func (m *Machine) onDelta(ctx context.Context, d wire.Delta) {
	if err := m.handler.MergeDelta(d.Body); err != nil {
		m.logger.Warn("merge delta failed", zap.Error(err))
		return
	}
	m.mu.Lock()
	m.lastSync = time.Now()
	m.mu.Unlock()

	ack := wire.Ack{MessageID: "", ReplicaID: m.local.String(), Timestamp: time.Now().UTC()}
	body, err := wire.EncodeControl(wire.MessageAck, m.local.String(), time.Now().UTC(), ack)
	if err == nil {
		_ = m.Enqueue(ctx, body)
	}
	m.maybeIdle()
}

func (m *Machine) maybeIdle() {
	if m.State() == Syncing && m.handler.Converged() {
		m.setState(Idle)
	}
}
