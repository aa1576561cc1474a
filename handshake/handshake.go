package handshake

import "context"

// Reply is one answer from the host context. An empty token means the
// host has no live session either.
type Reply struct {
	Token string
}

// Channel describes the embedded side of the host handshake and its
// observable behavior.
//
// RequestToken asks the host for its current token. Replies arrive on
// the stream returned by Replies, which is fixed for the channel's
// lifetime; consumers subscribe before requesting so no reply can slip
// past. The stream may carry duplicates and may deliver after the
// caller has given up; consumers keep the first outcome and treat the
// rest as bookkeeping. The stream closes when the channel closes.
type Channel interface {
	RequestToken(ctx context.Context) error
	Replies() <-chan Reply
	Close() error
}

// Carrier describes the transient launch-parameter token source. The
// token is removed on first take so no later reader can observe it.
type Carrier interface {
	TakeToken() (string, bool)
}
