package goSession

import "errors"

var (
	// ErrManagerClosed is an exported constant or variable used by the session engine.
	ErrManagerClosed = errors.New("session manager closed")
	// ErrAlreadyStarted is an exported constant or variable used by the session engine.
	ErrAlreadyStarted = errors.New("token handshake already started")
	// ErrRefreshTimeout is an exported constant or variable used by the session engine.
	ErrRefreshTimeout = errors.New("token refresh timed out")
)
