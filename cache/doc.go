// Package cache holds credential-scoped read models between
// navigations.
//
// Anything derived from who the user is — profile documents, trainer
// rosters, booking lists — may be cached here and served without a
// round trip. The session engine purges the whole cache whenever the
// session token changes hands, so a cached entry can never outlive the
// credential it was fetched under.
//
// The implementation wraps ristretto. Admission and eviction are
// ristretto's; this package only fixes the key type and adds the
// purge-everything operation the engine needs.
//
// # What this package must NOT do
//
//   - Key entries by token. Keys are resource names; the purge-on-
//     token-change rule is what scopes them, selective invalidation by
//     credential is not supported.
//   - Decide when to purge; that is the engine's invalidator.
package cache
