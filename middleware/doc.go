// Package middleware exposes HTTP adapters that translate request handling
// into goSession.Manager calls: route guarding on navigation and session
// teardown on logout.
//
// # Guards
//
//   - [Guard] — evaluates the route policy for every request path and
//     redirects denied sessions to the policy's correction target.
//   - [LogoutHandler] — ends the session and redirects to the landing route.
//
// Guard injects the session state observed at decision time into the request
// context; handlers read it back with [SessionFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Manager calls. It does NOT
// implement session logic itself — all decisions are delegated to
// Manager.Guard and Manager.Logout.
//
// # What this package must NOT do
//
//   - Read or parse tokens (the manager owns the token lifecycle).
//   - Serve error pages for denials (denied requests are redirected, never
//     rejected).
//   - Cache guard decisions across requests.
package middleware
