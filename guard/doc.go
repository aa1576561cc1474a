// Package guard decides whether a session may enter a route target.
//
// Decisions are pure: [Decide] consumes a route target, a session
// [Snapshot], a validated [Policy], and the role hierarchy, and returns
// either pass-through or a redirect target. It performs no I/O and keeps
// no state, so callers may evaluate it on every navigation without
// coordination.
//
// # Settlement gate
//
// Until the session handshake has settled and identity loading has
// finished, every target is allowed. Redirecting on a half-built
// snapshot would bounce users off routes they are entitled to; the
// route layer re-evaluates once the snapshot changes.
//
// # Policy shape
//
// A policy names the landing route, the public prefixes, the guarded
// prefix rules with their minimum roles, and a per-role home route used
// for silent correction. Overlapping prefixes are a configuration
// error: [Policy.Validate] rejects them outright rather than ranking
// them at runtime.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import goSession, store, or handshake.
//   - Mutate the snapshot or policy it is handed.
package guard
