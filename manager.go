package goSession

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/MrEthical07/goSession/clock"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/handshake"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/store"
)

// Manager defines a public type used by goSession APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// A Manager owns exactly one logical session: it acquires the token
// through the handshake, keeps it fresh, resolves the identity behind
// it, and gates navigation until logout or expiry ends the session.
type Manager struct {
	config Config

	owner     *stateOwner
	store     store.TokenStore
	channel   handshake.Channel
	carrier   handshake.Carrier
	resolver  IdentityResolver
	refresher Refresher
	revoker   SessionRevoker
	cache     CredentialCache
	policy    *guard.Policy
	hierarchy *role.Hierarchy
	clock     clock.Clock
	log       zerolog.Logger
	audit     *internalaudit.Dispatcher
	metrics   *Metrics

	runCtx    context.Context
	runCancel context.CancelFunc

	started    atomic.Bool
	closed     atomic.Bool
	accepted   atomic.Bool
	refreshing atomic.Bool

	// resolveAttempted limits identity resolution to one exchange per
	// run. A failed exchange leaves the session anonymous instead of
	// hammering a backend that just proved unreachable.
	resolveAttempted atomic.Bool

	// settlement is written exactly once, before settledCh closes.
	settledCh  chan struct{}
	settlement Settlement
	startedAt  time.Time

	timerMu         sync.Mutex
	handshakeTimer  *clock.Timer
	monitorTimer    *clock.Timer
	refreshWatchdog *clock.Timer

	refreshCount atomic.Uint64

	listenerMu  sync.RWMutex
	listeners   map[uint64]Listener
	listenerSeq uint64

	// loggedUndecodable is the fingerprint of the token already logged
	// as non-expiring, so the fail-open path logs once per token.
	undecodableMu     sync.Mutex
	loggedUndecodable string

	closeOnce sync.Once
}

// State describes the state operation and its observable behavior.
//
// State does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) State() SessionState {
	return m.owner.current()
}

// Subscribe describes the subscribe operation and its observable behavior.
//
// Subscribe does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The listener receives a state copy after every transition, in
// transition order, on the manager's notification goroutine. It must
// not block. The returned function deregisters it.
func (m *Manager) Subscribe(fn Listener) (cancel func()) {
	if fn == nil {
		return func() {}
	}

	m.listenerMu.Lock()
	m.listenerSeq++
	id := m.listenerSeq
	m.listeners[id] = fn
	m.listenerMu.Unlock()

	return func() {
		m.listenerMu.Lock()
		delete(m.listeners, id)
		m.listenerMu.Unlock()
	}
}

// AwaitSettlement describes the awaitsettlement operation and its observable behavior.
//
// AwaitSettlement may return an error when input validation, dependency calls, or security checks fail.
//
// It blocks until the handshake delivers its terminal event and then
// returns that event; once settled it returns immediately on every
// subsequent call. Closing the manager before settlement delivers an
// anonymous settlement with SourceNone.
func (m *Manager) AwaitSettlement(ctx context.Context) (Settlement, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-m.settledCh:
		return m.settlement, nil
	case <-ctx.Done():
		return Settlement{}, ctx.Err()
	}
}

// Guard describes the guard operation and its observable behavior.
//
// Guard does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// It evaluates the route policy against the current session state.
// Every navigation must call it; decisions are never cached.
func (m *Manager) Guard(target string) guard.Decision {
	s := m.owner.current()

	snap := guard.Snapshot{
		Settled:         s.HandshakeComplete,
		IdentityLoading: s.IdentityLoading,
		Authenticated:   s.Identity != nil,
	}
	if s.Identity != nil {
		snap.Role = s.Identity.Role
	}

	d := guard.Decide(target, snap, m.policy, m.hierarchy)
	if !d.Allow {
		m.metricInc(MetricGuardRedirect)
		m.emitAudit(AuditEvent{
			EventType: auditEventGuardRedirect,
			Role:      snap.Role,
			Success:   true,
			Metadata: map[string]string{
				"target":   target,
				"redirect": d.RedirectTo,
			},
		})
		m.log.Debug().
			Str("target", target).
			Str("redirect", d.RedirectTo).
			Str("role", snap.Role).
			Msg("route redirected")
	}
	return d
}

// Close describes the close operation and its observable behavior.
//
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Close stops timers, tears down the handshake channel, unblocks
// settlement waiters, and flushes the audit dispatcher. It is
// idempotent.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		m.stopTimers()
		if m.runCancel != nil {
			m.runCancel()
		}
		if m.channel != nil {
			if err := m.channel.Close(); err != nil {
				m.log.Debug().Err(err).Msg("handshake channel close failed")
			}
		}
		if m.accepted.CompareAndSwap(false, true) {
			m.settlement = Settlement{Source: SourceNone}
			close(m.settledCh)
			m.metricInc(MetricSettleNone)
		}
		m.audit.Close()
	})
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) AuditDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.audit.Dropped()
}

// RefreshCount describes the refreshcount operation and its observable behavior.
//
// RefreshCount does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) RefreshCount() uint64 {
	if m == nil {
		return 0
	}
	return m.refreshCount.Load()
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}

func (m *Manager) metricObserve(id MetricID, d time.Duration) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Observe(id, d)
}

func (m *Manager) settled() bool {
	select {
	case <-m.settledCh:
		return true
	default:
		return false
	}
}

// purgeStore clears the durable token under the store op timeout.
// Purge failures are logged and counted, never surfaced: local
// teardown must not hang on a broken backend.
func (m *Manager) purgeStore(ctx context.Context, reason string) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.config.Store.OpTimeout)
	defer cancel()

	if err := m.store.Clear(ctx); err != nil {
		m.metricInc(MetricStoreFailure)
		m.log.Warn().Err(err).Str("reason", reason).Msg("token store purge failed")
	}
}

func (m *Manager) stopTimers() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.handshakeTimer != nil {
		m.handshakeTimer.Stop()
		m.handshakeTimer = nil
	}
	if m.monitorTimer != nil {
		m.monitorTimer.Stop()
		m.monitorTimer = nil
	}
	if m.refreshWatchdog != nil {
		m.refreshWatchdog.Stop()
		m.refreshWatchdog = nil
	}
}

// handleChange is the single hook pipeline behind every state
// transition: invalidate caches keyed by the old credential, let the
// monitor reclassify, kick identity resolution, then fan out to
// subscribers. Runs on the notification drainer, never under the state
// lock.
func (m *Manager) handleChange(change stateChange) {
	m.invalidateOnTokenChange(change)
	m.classify(change.next)
	m.maybeResolve(change.next)
	m.notifyListeners(change.next)
}

func (m *Manager) notifyListeners(s SessionState) {
	m.listenerMu.RLock()
	fns := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenerMu.RUnlock()

	for _, fn := range fns {
		fn(s)
	}
}
