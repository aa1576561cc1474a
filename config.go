package goSession

import (
	"errors"
	"time"
)

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Handshake HandshakeConfig
	Refresh   RefreshConfig
	Store     StoreConfig
	Logout    LogoutConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
HANDSHAKE CONFIG
====================================
*/

// HandshakeConfig defines a public type used by goSession APIs.
//
// HandshakeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HandshakeConfig struct {
	// Timeout bounds the wait for a host reply in embedded contexts.
	// Expiry of the timer settles the session as anonymous; it is not
	// an error.
	Timeout time.Duration
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig defines a public type used by goSession APIs.
//
// RefreshConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RefreshConfig struct {
	// ExpiryWindow is how far before token expiry a refresh is
	// attempted. A token whose remaining lifetime is inside the window
	// is refreshed once; a refresh failure ends the session.
	ExpiryWindow time.Duration

	// Timeout bounds a single refresh exchange. A refresh that has not
	// resolved by then counts as failed.
	Timeout time.Duration
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig defines a public type used by goSession APIs.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	// OpTimeout bounds background token store calls (expiry purge,
	// refresh persistence, logout purge) that do not run under a
	// caller-supplied context deadline.
	OpTimeout time.Duration
}

/*
====================================
LOGOUT CONFIG
====================================
*/

// LogoutConfig defines a public type used by goSession APIs.
//
// LogoutConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LogoutConfig struct {
	// RevokeTimeout bounds the best-effort remote invalidation call.
	RevokeTimeout time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by goSession APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by goSession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The returned config passes [Config.Validate] unchanged. Audit and
// metrics start disabled; recording is opt-in.
//
//	Docs: docs/config.md
func DefaultConfig() Config {
	return Config{
		Handshake: HandshakeConfig{
			Timeout: 3 * time.Second,
		},
		Refresh: RefreshConfig{
			ExpiryWindow: 7 * 24 * time.Hour,
			Timeout:      30 * time.Second,
		},
		Store: StoreConfig{
			OpTimeout: 5 * time.Second,
		},
		Logout: LogoutConfig{
			RevokeTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// cloneConfig keeps the boundary idiom even though Config currently has
// no reference fields.
func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Handshake
	if c.Handshake.Timeout <= 0 {
		return errors.New("Handshake Timeout must be > 0")
	}

	// Refresh
	if c.Refresh.ExpiryWindow <= 0 {
		return errors.New("Refresh ExpiryWindow must be > 0")
	}
	if c.Refresh.Timeout <= 0 {
		return errors.New("Refresh Timeout must be > 0")
	}

	// Store
	if c.Store.OpTimeout <= 0 {
		return errors.New("Store OpTimeout must be > 0")
	}

	// Logout
	if c.Logout.RevokeTimeout <= 0 {
		return errors.New("Logout RevokeTimeout must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Enabled is true")
	}

	return nil
}
