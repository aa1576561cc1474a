package goSession

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
)

// AccountStatus represents the lifecycle state of a marketplace account.
//
//	Docs: docs/identity.md
type AccountStatus uint8

const (
	// AccountActive is an exported constant or variable used by the session engine.
	AccountActive AccountStatus = iota
	// AccountPendingVerification is an exported constant or variable used by the session engine.
	AccountPendingVerification
	// AccountDisabled is an exported constant or variable used by the session engine.
	AccountDisabled
	// AccountLocked is an exported constant or variable used by the session engine.
	AccountLocked
	// AccountDeleted is an exported constant or variable used by the session engine.
	AccountDeleted
)

// String describes the string operation and its observable behavior.
func (s AccountStatus) String() string {
	switch s {
	case AccountActive:
		return "active"
	case AccountPendingVerification:
		return "pending_verification"
	case AccountDisabled:
		return "disabled"
	case AccountLocked:
		return "locked"
	case AccountDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Identity is the resolved owner of the current token. It is derived
// from the token by the [IdentityResolver] and never persisted
// independently of it.
//
//	Docs: docs/identity.md
type Identity struct {
	UserID  string
	Role    string
	Status  AccountStatus
	Profile map[string]string
}

// SettleSource identifies which acquisition source won the token
// handshake.
//
//	Docs: docs/handshake.md
type SettleSource uint8

const (
	// SourceNone is an exported constant or variable used by the session engine.
	SourceNone SettleSource = iota
	// SourceCarrier is an exported constant or variable used by the session engine.
	SourceCarrier
	// SourceStored is an exported constant or variable used by the session engine.
	SourceStored
	// SourceHost is an exported constant or variable used by the session engine.
	SourceHost
	// SourceTimeout is an exported constant or variable used by the session engine.
	SourceTimeout
)

// String describes the string operation and its observable behavior.
func (s SettleSource) String() string {
	switch s {
	case SourceCarrier:
		return "carrier"
	case SourceStored:
		return "stored"
	case SourceHost:
		return "host"
	case SourceTimeout:
		return "timeout"
	default:
		return "none"
	}
}

// Settlement is the terminal handshake event, delivered exactly once
// per manager. An anonymous settlement carries an empty Token.
//
//	Docs: docs/handshake.md
type Settlement struct {
	Token  string
	Source SettleSource
}

// SessionState is the single owned session value. Copies are handed
// out by [Manager.State] and to subscribers; transitions happen only
// inside the manager.
//
// Version increments on every transition, which lets asynchronous
// results detect that the session they were computed for no longer
// exists.
//
//	Docs: docs/lifecycle.md
type SessionState struct {
	Token             string
	HandshakeComplete bool
	Identity          *Identity
	IdentityLoading   bool
	Version           uint64
}

// Authenticated reports whether an identity has been established for
// the current token. A token alone is not authentication; the resolver
// is the source of truth.
func (s SessionState) Authenticated() bool {
	return s.Identity != nil
}

// Listener receives session state copies after each transition.
// Listeners run on the manager's notification goroutine and must not
// block.
type Listener func(SessionState)

// IdentityResolver exchanges a token for the identity it belongs to.
// Returning (nil, nil) means the backend explicitly rejected the token;
// a non-nil error means the exchange itself failed and nothing is known.
//
//	Docs: docs/identity.md
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// IdentityResolverFunc adapts a function to the [IdentityResolver]
// interface.
type IdentityResolverFunc func(ctx context.Context, token string) (*Identity, error)

// Resolve describes the resolve operation and its observable behavior.
func (f IdentityResolverFunc) Resolve(ctx context.Context, token string) (*Identity, error) {
	return f(ctx, token)
}

// Refresher exchanges a near-expiry token for a fresh one.
//
//	Docs: docs/lifecycle.md
type Refresher interface {
	Refresh(ctx context.Context, token string) (string, error)
}

// RefresherFunc adapts a function to the [Refresher] interface.
type RefresherFunc func(ctx context.Context, token string) (string, error)

// Refresh describes the refresh operation and its observable behavior.
func (f RefresherFunc) Refresh(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// SessionRevoker invalidates a token on the backend during logout.
// Revocation is best effort; failures are logged and swallowed.
type SessionRevoker interface {
	Revoke(ctx context.Context, token string) error
}

// SessionRevokerFunc adapts a function to the [SessionRevoker]
// interface.
type SessionRevokerFunc func(ctx context.Context, token string) error

// Revoke describes the revoke operation and its observable behavior.
func (f SessionRevokerFunc) Revoke(ctx context.Context, token string) error {
	return f(ctx, token)
}

// CredentialCache is any cache whose entries were read under the
// previous credential and must be dropped wholesale when the
// credential changes. The cache package ships a ristretto-backed
// implementation.
//
//	Docs: docs/cache.md
type CredentialCache interface {
	PurgeAll()
}

// SessionReport is a read-only snapshot of the manager's posture,
// returned by [Manager.Introspect]. It never contains the token value.
//
//	Docs: docs/introspection.md
type SessionReport struct {
	Settled          bool
	Source           SettleSource
	TokenFingerprint string
	TokenExpiry      time.Time
	TokenExpiryKnown bool
	Authenticated    bool
	Role             string
	IdentityLoading  bool
	RefreshInFlight  bool
	RefreshCount     uint64
	AuditDropped     uint64
	StateVersion     uint64
}

// AuditEvent is a structured audit record emitted by the manager.
//
//	Docs: docs/audit.md
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the manager's audit
// dispatcher.
//
//	Docs: docs/audit.md
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
//
//	Docs: docs/audit.md
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to
// an [io.Writer].
//
//	Docs: docs/audit.md
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
//
//	Docs: docs/audit.md
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
//
//	Docs: docs/audit.md
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter or histogram bucket in the
// in-process metrics system.
//
//	Docs: docs/metrics.md
type MetricID = internalmetrics.MetricID

const (
	// MetricHandshakeSettled is an exported constant or variable used by the session engine.
	MetricHandshakeSettled = MetricID(internalmetrics.MetricHandshakeSettled)
	// MetricSettleCarrier is an exported constant or variable used by the session engine.
	MetricSettleCarrier = MetricID(internalmetrics.MetricSettleCarrier)
	// MetricSettleStored is an exported constant or variable used by the session engine.
	MetricSettleStored = MetricID(internalmetrics.MetricSettleStored)
	// MetricSettleHost is an exported constant or variable used by the session engine.
	MetricSettleHost = MetricID(internalmetrics.MetricSettleHost)
	// MetricSettleTimeout is an exported constant or variable used by the session engine.
	MetricSettleTimeout = MetricID(internalmetrics.MetricSettleTimeout)
	// MetricSettleNone is an exported constant or variable used by the session engine.
	MetricSettleNone = MetricID(internalmetrics.MetricSettleNone)
	// MetricDuplicateReply is an exported constant or variable used by the session engine.
	MetricDuplicateReply = MetricID(internalmetrics.MetricDuplicateReply)
	// MetricResolveSuccess is an exported constant or variable used by the session engine.
	MetricResolveSuccess = MetricID(internalmetrics.MetricResolveSuccess)
	// MetricResolveUnauthenticated is an exported constant or variable used by the session engine.
	MetricResolveUnauthenticated = MetricID(internalmetrics.MetricResolveUnauthenticated)
	// MetricResolveFailure is an exported constant or variable used by the session engine.
	MetricResolveFailure = MetricID(internalmetrics.MetricResolveFailure)
	// MetricStaleResultDiscarded is an exported constant or variable used by the session engine.
	MetricStaleResultDiscarded = MetricID(internalmetrics.MetricStaleResultDiscarded)
	// MetricRefreshSuccess is an exported constant or variable used by the session engine.
	MetricRefreshSuccess = MetricID(internalmetrics.MetricRefreshSuccess)
	// MetricRefreshFailure is an exported constant or variable used by the session engine.
	MetricRefreshFailure = MetricID(internalmetrics.MetricRefreshFailure)
	// MetricRefreshTimeout is an exported constant or variable used by the session engine.
	MetricRefreshTimeout = MetricID(internalmetrics.MetricRefreshTimeout)
	// MetricTokenExpired is an exported constant or variable used by the session engine.
	MetricTokenExpired = MetricID(internalmetrics.MetricTokenExpired)
	// MetricCachePurged is an exported constant or variable used by the session engine.
	MetricCachePurged = MetricID(internalmetrics.MetricCachePurged)
	// MetricGuardRedirect is an exported constant or variable used by the session engine.
	MetricGuardRedirect = MetricID(internalmetrics.MetricGuardRedirect)
	// MetricLogout is an exported constant or variable used by the session engine.
	MetricLogout = MetricID(internalmetrics.MetricLogout)
	// MetricRevokeFailure is an exported constant or variable used by the session engine.
	MetricRevokeFailure = MetricID(internalmetrics.MetricRevokeFailure)
	// MetricStoreFailure is an exported constant or variable used by the session engine.
	MetricStoreFailure = MetricID(internalmetrics.MetricStoreFailure)
	// MetricHandshakeLatency is an exported constant or variable used by the session engine.
	MetricHandshakeLatency = MetricID(internalmetrics.MetricHandshakeLatency)

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters and optional latency histograms.
//
//	Docs: docs/metrics.md
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
//
//	Docs: docs/metrics.md
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
//
//	Docs: docs/metrics.md
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
