package goSession

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/goSession/clock"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/handshake"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/store"
)

// Builder defines a public type used by goSession APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	store     store.TokenStore
	channel   handshake.Channel
	carrier   handshake.Carrier
	resolver  IdentityResolver
	refresher Refresher
	revoker   SessionRevoker
	cache     CredentialCache
	policy    *guard.Policy
	hierarchy *role.Hierarchy
	clk       clock.Clock
	log       *zerolog.Logger
	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore describes the withstore operation and its observable behavior.
//
// WithStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithStore(s store.TokenStore) *Builder {
	b.store = s
	return b
}

// WithChannel describes the withchannel operation and its observable behavior.
//
// WithChannel does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Configuring a channel makes the manager embedded: the handshake asks
// the host for the token instead of adopting the stored one.
func (b *Builder) WithChannel(ch handshake.Channel) *Builder {
	b.channel = ch
	return b
}

// WithCarrier describes the withcarrier operation and its observable behavior.
//
// WithCarrier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCarrier(c handshake.Carrier) *Builder {
	b.carrier = c
	return b
}

// WithResolver describes the withresolver operation and its observable behavior.
//
// WithResolver does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithResolver(r IdentityResolver) *Builder {
	b.resolver = r
	return b
}

// WithRefresher describes the withrefresher operation and its observable behavior.
//
// WithRefresher does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRefresher(r Refresher) *Builder {
	b.refresher = r
	return b
}

// WithRevoker describes the withrevoker operation and its observable behavior.
//
// WithRevoker does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRevoker(r SessionRevoker) *Builder {
	b.revoker = r
	return b
}

// WithCredentialCache describes the withcredentialcache operation and its observable behavior.
//
// WithCredentialCache does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCredentialCache(c CredentialCache) *Builder {
	b.cache = c
	return b
}

// WithPolicy describes the withpolicy operation and its observable behavior.
//
// WithPolicy does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithPolicy(p *guard.Policy) *Builder {
	b.policy = p
	return b
}

// WithHierarchy describes the withhierarchy operation and its observable behavior.
//
// WithHierarchy does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithHierarchy(h *role.Hierarchy) *Builder {
	b.hierarchy = h
	return b
}

// WithClock describes the withclock operation and its observable behavior.
//
// WithClock does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithClock(c clock.Clock) *Builder {
	b.clk = c
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	b.log = &l
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("token store required")
	}
	if b.resolver == nil {
		return nil, errors.New("identity resolver required")
	}
	if b.policy == nil {
		return nil, errors.New("route policy required")
	}

	// -------- ROLE HIERARCHY --------
	hierarchy := b.hierarchy
	if hierarchy == nil {
		hierarchy = role.Default()
	}

	// -------- ROUTE POLICY --------
	if err := b.policy.Validate(hierarchy); err != nil {
		return nil, err
	}

	clk := b.clk
	if clk == nil {
		clk = clock.Real()
	}

	log := zerolog.Nop()
	if b.log != nil {
		log = *b.log
	}

	m := &Manager{
		config:    cfg,
		store:     b.store,
		channel:   b.channel,
		carrier:   b.carrier,
		resolver:  b.resolver,
		refresher: b.refresher,
		revoker:   b.revoker,
		cache:     b.cache,
		policy:    b.policy,
		hierarchy: hierarchy,
		clock:     clk,
		log:       log,
		settledCh: make(chan struct{}),
		listeners: make(map[uint64]Listener),
	}

	m.owner = newStateOwner(m.handleChange)
	m.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	m.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return m, nil
}
