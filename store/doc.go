// Package store persists the session token between process runs.
//
// A TokenStore holds at most one token. The lifecycle manager reads it
// during handshake (host contexts only), writes it when a handshake
// settles with a live token, and clears it on expiry, logout, and
// explicit unauthenticated verdicts.
//
// Three backends ship with the package:
//
//   - Memory: process-local, for tests and embedded contexts that never
//     persist.
//   - File: a small JSON document on disk, written atomically.
//   - Redis: a single key with optional TTL, for processes that share
//     the session with other instances.
//
// # What this package must NOT do
//
// The store never inspects the token. It does not decode claims, check
// expiry, or judge validity; it is a dumb slot. Backends must never log
// the token value. A missing token is not an error: Get returns the
// empty string and a nil error.
package store
