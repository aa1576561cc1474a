package handshake

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func startHost(t *testing.T, source TokenSource) (string, *Host) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "h.sock")
	h, err := ListenHost(path, source, zerolog.Nop())
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return path, h
}

func dialTestSocket(t *testing.T, path string) *SocketChannel {
	t.Helper()

	c, err := DialSocket(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitReply(t *testing.T, replies <-chan Reply) Reply {
	t.Helper()

	select {
	case r, ok := <-replies:
		if !ok {
			t.Fatal("reply stream closed before a reply arrived")
		}
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
	}
	return Reply{}
}

func drainUntilClosed(t *testing.T, replies <-chan Reply) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, open := <-replies:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("stream never closed")
		}
	}
}

func TestSocketRoundTrip(t *testing.T) {
	path, _ := startHost(t, func(context.Context) (string, error) {
		return "tok-host", nil
	})
	c := dialTestSocket(t, path)

	if err := c.RequestToken(context.Background()); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if r := waitReply(t, c.Replies()); r.Token != "tok-host" {
		t.Fatalf("expected tok-host, got %q", r.Token)
	}
}

func TestSocketAnonymousHostRepliesEmpty(t *testing.T) {
	path, _ := startHost(t, func(context.Context) (string, error) {
		return "", nil
	})
	c := dialTestSocket(t, path)

	if err := c.RequestToken(context.Background()); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if r := waitReply(t, c.Replies()); r.Token != "" {
		t.Fatalf("expected empty token, got %q", r.Token)
	}
}

func TestSocketSourceFailureSendsNoReply(t *testing.T) {
	var calls atomic.Int64
	path, _ := startHost(t, func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("identity service down")
		}
		return "tok-recovered", nil
	})
	c := dialTestSocket(t, path)

	if err := c.RequestToken(context.Background()); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if err := c.RequestToken(context.Background()); err != nil {
		t.Fatalf("second request failed: %v", err)
	}

	// The failed first request produces nothing; the only reply on the
	// stream is the second one.
	if r := waitReply(t, c.Replies()); r.Token != "tok-recovered" {
		t.Fatalf("expected tok-recovered, got %q", r.Token)
	}
}

func TestSocketRepeatRequestsShareStream(t *testing.T) {
	path, _ := startHost(t, func(context.Context) (string, error) {
		return "tok-host", nil
	})
	c := dialTestSocket(t, path)

	for i := 0; i < 2; i++ {
		if err := c.RequestToken(context.Background()); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}

	waitReply(t, c.Replies())
	waitReply(t, c.Replies())
}

func TestSocketCloseEndsStream(t *testing.T) {
	path, _ := startHost(t, func(context.Context) (string, error) {
		return "tok", nil
	})

	c, err := DialSocket(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if err := c.RequestToken(context.Background()); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	waitReply(t, c.Replies())

	if err := c.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}

	drainUntilClosed(t, c.Replies())

	if err := c.RequestToken(context.Background()); !errors.Is(err, ErrChannelClosed) {
		t.Fatalf("expected ErrChannelClosed, got %v", err)
	}
}

func TestHostCloseHangsUpClients(t *testing.T) {
	path, h := startHost(t, func(context.Context) (string, error) {
		return "tok", nil
	})
	c := dialTestSocket(t, path)

	if err := c.RequestToken(context.Background()); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	waitReply(t, c.Replies())

	if err := h.Close(); err != nil {
		t.Fatalf("host close failed: %v", err)
	}

	drainUntilClosed(t, c.Replies())
}

func TestListenHostReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.sock")

	h1, err := ListenHost(path, func(context.Context) (string, error) { return "", nil }, zerolog.Nop())
	if err != nil {
		t.Fatalf("first listen failed: %v", err)
	}
	_ = h1.Close()

	h2, err := ListenHost(path, func(context.Context) (string, error) { return "", nil }, zerolog.Nop())
	if err != nil {
		t.Fatalf("expected rebind over stale socket, got %v", err)
	}
	_ = h2.Close()
}

func TestListenHostRejectsNilSource(t *testing.T) {
	if _, err := ListenHost(filepath.Join(t.TempDir(), "h.sock"), nil, zerolog.Nop()); err == nil {
		t.Fatal("expected nil source to be rejected")
	}
}
