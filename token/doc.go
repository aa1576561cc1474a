// Package token decodes the expiry claim of an otherwise opaque bearer token.
//
// The token is never validated here: [DecodeExpiry] reads the exp claim
// without checking the signature, and any malformed input yields not-ok
// instead of an error. The identity resolver is the authorization source of
// truth; this package only answers "when does this credential think it
// expires" for the lifecycle monitor.
//
// # What this package must NOT do
//
//   - Verify signatures or reject tokens (fail open on decode problems).
//   - Log or return raw token values ([Fingerprint] exists for that).
//   - Import any other package from this module.
package token
