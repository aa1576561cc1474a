package handshake

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Wire frames are newline-delimited JSON. The protocol has two frame
// types and no versioning; both ends tolerate unknown types by
// skipping them.
type wireMessage struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

const (
	typeRequestToken = "request_token"
	typeToken        = "token"
)

// SocketChannel is a [Channel] over a unix socket to a running host
// process. One reader goroutine owns the reply stream; it starts at
// dial time and exits when the connection closes.
type SocketChannel struct {
	conn    net.Conn
	log     zerolog.Logger
	replies chan Reply

	mu     sync.Mutex
	closed bool
}

// DialSocket connects to the host listening at path.
func DialSocket(path string, log zerolog.Logger) (*SocketChannel, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial handshake socket: %w", err)
	}

	c := &SocketChannel{
		conn:    conn,
		log:     log,
		replies: make(chan Reply, 8),
	}
	go c.readLoop()
	return c, nil
}

func (c *SocketChannel) readLoop() {
	// Only the read loop sends on replies, so only it may close them.
	defer close(c.replies)

	sc := bufio.NewScanner(c.conn)
	for sc.Scan() {
		var msg wireMessage
		if err := json.Unmarshal(sc.Bytes(), &msg); err != nil {
			c.log.Warn().Err(err).Msg("handshake: dropping malformed frame")
			continue
		}
		if msg.Type != typeToken {
			continue
		}
		select {
		case c.replies <- Reply{Token: msg.Token}:
		default:
			c.log.Warn().Msg("handshake: reply buffer full, dropping reply")
		}
	}
}

// RequestToken describes the requesttoken operation and its observable
// behavior. It writes one request frame; replies land on the shared
// stream from [SocketChannel.Replies].
func (c *SocketChannel) RequestToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		defer func() { _ = c.conn.SetWriteDeadline(time.Time{}) }()
	}

	frame, err := json.Marshal(wireMessage{Type: typeRequestToken})
	if err != nil {
		return fmt.Errorf("encode token request: %w", err)
	}
	frame = append(frame, '\n')
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("send token request: %w", err)
	}
	return nil
}

// Replies exposes the reply stream. It is fixed at dial time; late and
// duplicate replies keep landing here until the channel closes.
func (c *SocketChannel) Replies() <-chan Reply {
	return c.replies
}

// Close describes the close operation and its observable behavior.
// Closing twice is a no-op.
func (c *SocketChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}
