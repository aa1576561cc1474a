package store

import (
	"context"
	"errors"
)

// ErrUnavailable is an exported constant or variable used by the session
// engine. It reports that the backing store could not be reached; the
// stored token may still exist.
var ErrUnavailable = errors.New("token store unavailable")

// TokenStore describes the persistence slot for the session token and
// its observable behavior. Implementations hold at most one token per
// logical session and must treat absence as ("", nil), not an error.
type TokenStore interface {
	// Get returns the stored token, or the empty string when none is
	// stored. Errors are reserved for backend failures.
	Get(ctx context.Context) (string, error)

	// Set replaces the stored token.
	Set(ctx context.Context, token string) error

	// Clear removes the stored token. Clearing an empty store is a
	// no-op, not an error.
	Clear(ctx context.Context) error
}
