package handshake

import (
	"context"
	"errors"
	"sync"
)

// ErrChannelClosed is an exported constant or variable used by the
// session engine. It reports a token request on a closed channel.
var ErrChannelClosed = errors.New("handshake channel closed")

// Pipe links an embedded engine to a host living in the same process.
// The embedded side uses it as a [Channel]; the host side watches
// [Pipe.Requests] and answers with [Pipe.Deliver].
type Pipe struct {
	requests chan struct{}
	replies  chan Reply

	mu     sync.Mutex
	closed bool
}

// NewPipe describes the newpipe operation and its observable behavior.
// It returns a connected in-process channel pair.
func NewPipe() *Pipe {
	return &Pipe{
		requests: make(chan struct{}, 8),
		replies:  make(chan Reply, 8),
	}
}

// RequestToken describes the requesttoken operation and its observable
// behavior. The request signal is dropped, not blocked on, when the
// host side has stopped draining.
func (p *Pipe) RequestToken(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrChannelClosed
	}

	select {
	case p.requests <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return nil
}

// Replies exposes the embedded-side reply stream.
func (p *Pipe) Replies() <-chan Reply {
	return p.replies
}

// Requests exposes the host-side view of incoming token requests.
func (p *Pipe) Requests() <-chan struct{} {
	return p.requests
}

// Deliver pushes one reply to the embedded side. Delivering twice is
// legal; the consumer treats the second reply as a duplicate. Delivery
// on a closed or saturated pipe is dropped.
func (p *Pipe) Deliver(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	select {
	case p.replies <- Reply{Token: token}:
	default:
	}
}

// Close describes the close operation and its observable behavior.
// Closing twice is a no-op.
func (p *Pipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.replies)
	return nil
}
