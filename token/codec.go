package token

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DecodeExpiry extracts the exp claim from a bearer token without verifying
// its signature. It never panics. ok is false for anything that is not three
// dot-separated base64url segments with a JSON claims segment carrying a
// numeric exp: wrong segment count, bad encoding, bad JSON, missing or
// malformed claim.
//
// Callers treat not-ok as non-expiring, not as invalid. Locking a user out
// because of a parsing bug is worse than deferring to the resolver's own
// authorization check.
func DecodeExpiry(tok string) (time.Time, bool) {
	if tok == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

// Fingerprint returns a short one-way identifier for a token, safe for logs
// and audit events. Raw token values must never reach either.
func Fingerprint(tok string) string {
	if tok == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:6])
}
