package handshake

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPipeRequestAndReply(t *testing.T) {
	p := NewPipe()
	defer p.Close()

	if err := p.RequestToken(context.Background()); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	select {
	case <-p.Requests():
	case <-time.After(time.Second):
		t.Fatal("host side never saw the request")
	}

	p.Deliver("tok-host")
	select {
	case r := <-p.Replies():
		if r.Token != "tok-host" {
			t.Fatalf("expected tok-host, got %q", r.Token)
		}
	case <-time.After(time.Second):
		t.Fatal("no reply delivered")
	}
}

func TestPipeDuplicateDelivery(t *testing.T) {
	p := NewPipe()
	defer p.Close()

	if err := p.RequestToken(context.Background()); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	p.Deliver("tok-1")
	p.Deliver("tok-1")

	for i := 0; i < 2; i++ {
		select {
		case r := <-p.Replies():
			if r.Token != "tok-1" {
				t.Fatalf("reply %d: got %q", i, r.Token)
			}
		case <-time.After(time.Second):
			t.Fatalf("reply %d never arrived", i)
		}
	}
}

func TestPipeCloseSemantics(t *testing.T) {
	p := NewPipe()
	if err := p.RequestToken(context.Background()); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}

	if err := p.RequestToken(context.Background()); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("expected ErrChannelClosed, got %v", err)
	}

	// Delivery after close is dropped, and the stream reads closed.
	p.Deliver("tok-late")
	if _, open := <-p.Replies(); open {
		t.Fatal("expected reply stream to be closed")
	}
}

func TestPipeSaturatedRepliesDrop(t *testing.T) {
	p := NewPipe()
	defer p.Close()

	for i := 0; i < 64; i++ {
		p.Deliver("tok")
	}
	// The buffer holds 8; the rest must have been dropped without
	// blocking the deliverer. Drain what is there.
	n := 0
	for {
		select {
		case <-p.Replies():
			n++
		default:
			if n != 8 {
				t.Fatalf("expected 8 buffered replies, drained %d", n)
			}
			return
		}
	}
}
