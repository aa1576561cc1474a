package handshake

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/goSession/token"
)

// TokenSource returns the host's current session token. An empty token
// with a nil error means the host is anonymous; the embedded side then
// settles anonymous too instead of waiting out its timeout.
type TokenSource func(ctx context.Context) (string, error)

// Host answers token requests from embedded contexts over a unix
// socket. One goroutine per connection; connections live until the
// embedded side hangs up or the host closes.
type Host struct {
	listener net.Listener
	source   TokenSource
	log      zerolog.Logger

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
}

// ListenHost describes the listenhost operation and its observable
// behavior. A stale socket file from a previous run is removed before
// binding.
func ListenHost(path string, source TokenSource, log zerolog.Logger) (*Host, error) {
	if source == nil {
		return nil, errors.New("token source cannot be nil")
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove stale handshake socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen handshake socket: %w", err)
	}

	h := &Host{
		listener: ln,
		source:   source,
		log:      log,
		conns:    make(map[net.Conn]struct{}),
	}
	go h.acceptLoop()
	return h, nil
}

func (h *Host) acceptLoop() {
	for {
		conn, err := h.listener.Accept()
		if err != nil {
			if !h.isClosed() {
				h.log.Warn().Err(err).Msg("handshake host: accept failed")
			}
			return
		}
		if !h.track(conn) {
			conn.Close()
			return
		}
		go h.serveConn(conn)
	}
}

func (h *Host) serveConn(conn net.Conn) {
	defer h.untrack(conn)
	defer conn.Close()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		var msg wireMessage
		if err := json.Unmarshal(sc.Bytes(), &msg); err != nil {
			h.log.Warn().Err(err).Msg("handshake host: dropping malformed frame")
			continue
		}
		if msg.Type != typeRequestToken {
			continue
		}

		tok, err := h.source(context.Background())
		if err != nil {
			// No reply on source failure. The embedded side times out
			// and settles anonymous, which is the safe outcome.
			h.log.Warn().Err(err).Msg("handshake host: token source failed")
			continue
		}

		frame, err := json.Marshal(wireMessage{Type: typeToken, Token: tok})
		if err != nil {
			h.log.Error().Err(err).Msg("handshake host: encode reply failed")
			continue
		}
		frame = append(frame, '\n')
		if _, err := conn.Write(frame); err != nil {
			h.log.Warn().Err(err).Msg("handshake host: write reply failed")
			return
		}
		h.log.Debug().
			Str("token_fp", token.Fingerprint(tok)).
			Msg("handshake host: served token request")
	}
}

func (h *Host) track(conn net.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[conn] = struct{}{}
	return true
}

func (h *Host) untrack(conn net.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

func (h *Host) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Close describes the close operation and its observable behavior. It
// stops accepting, hangs up every live connection, and is safe to call
// twice.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	conns := make([]net.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	err := h.listener.Close()
	for _, c := range conns {
		c.Close()
	}
	return err
}
