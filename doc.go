// Package goSession manages one logical user session across execution
// contexts: it acquires the bearer token through a prioritized
// handshake, keeps it fresh ahead of expiry, resolves the identity
// behind it, and gates navigation by role until logout or expiry ends
// the session.
//
// The package is designed for concurrent client and host workloads:
// Manager methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Manager], [Builder],
// [Config], and value types (SessionState, Settlement, SessionReport,
// MetricsSnapshot, etc.). Transports, codecs, and policy evaluation
// live in narrow subpackages (handshake, token, store, guard, role,
// cache, clock); audit dispatch and metric storage live under
// internal/ and are never exported directly.
//
// # What this package must NOT do
//
//   - Log, audit, or report token values; only fingerprints leave the
//     manager.
//   - Redirect during the indeterminate window before the handshake
//     settles and identity resolution finishes.
//   - Adopt a token in memory before it is persisted to the store.
//   - Import any sub-package that re-imports goSession (no import
//     cycles).
//
// # Concurrency contract
//
// One Manager owns one session. State transitions are serialized by a
// single owner and notified in order; asynchronous results (handshake
// replies, resolver and refresher returns, timer fires) are applied
// only if the session they were computed for still exists.
package goSession
