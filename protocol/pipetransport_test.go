package protocol

import (
	"context"
	"sync"
)

// pipeTransport is an in-memory Transport for tests: messages written
// with Send on one end arrive via Receive on the paired end. Connect/
// Disconnect just flip a boolean; there is no real network underneath.
type pipeTransport struct {
	mu        sync.Mutex
	connected bool
	out       chan []byte
	in        <-chan []byte
}

// newPipe builds two cross-wired transports.
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
		// Drain whatever else is immediately available so FIFO batches
		// arrive together, mirroring a real transport's read-ready burst.
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
