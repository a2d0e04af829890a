package collection

import (
	"context"
	"sync"
)

// pipeTransport is an in-memory protocol.Transport for tests, mirroring
// the one protocol's own tests use: whatever is Send on one end arrives
// via Receive on the other.
type pipeTransport struct {
	mu        sync.Mutex
	connected bool
	out       chan []byte
	in        <-chan []byte
}

func newPipe() (a, b *pipeTransport) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	a = &pipeTransport{out: ab, in: ba}
	b = &pipeTransport{out: ba, in: ab}
	return a, b
}

func (p *pipeTransport) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = true
	return nil
}

func (p *pipeTransport) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
	return nil
}

func (p *pipeTransport) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *pipeTransport) Send(ctx context.Context, msg []byte) error {
	select {
	case p.out <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeTransport) Receive(ctx context.Context) ([][]byte, error) {
	select {
	case m := <-p.in:
		out := [][]byte{m}
		for {
			select {
			case m2 := <-p.in:
				out = append(out, m2)
				continue
			default:
			}
			break
		}
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
