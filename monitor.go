package goSession

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/token"
)

// classify re-evaluates the session's lifecycle position: Valid,
// Expiring-soon, or Expired. It runs on every state transition and on
// the boundary timer, never on a poll, and only once token and
// identity are both established with no refresh in flight.
func (m *Manager) classify(s SessionState) {
	m.stopMonitorTimer()

	if m.closed.Load() {
		return
	}
	if s.Token == "" || s.Identity == nil || s.IdentityLoading || m.refreshing.Load() {
		return
	}

	exp, ok := token.DecodeExpiry(s.Token)
	if !ok {
		// Fail open: an undecodable expiry never ends a session the
		// resolver accepted. Only the resolver or logout can.
		m.logUndecodable(s.Token)
		return
	}

	now := m.clock.Now()
	remaining := exp.Sub(now)

	switch {
	case remaining <= 0:
		m.expire(s, exp)
	case remaining < m.config.Refresh.ExpiryWindow:
		if m.refresher == nil {
			// Nothing can renew the token; wake again at expiry.
			m.armMonitorTimer(remaining)
			return
		}
		m.beginRefresh(s)
	default:
		// Valid. Wake at the moment the token enters the refresh
		// window; the extra nanosecond lands the fire strictly inside
		// it.
		m.armMonitorTimer(remaining - m.config.Refresh.ExpiryWindow + 1)
	}
}

func (m *Manager) armMonitorTimer(d time.Duration) {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.closed.Load() {
		return
	}
	m.monitorTimer = m.clock.AfterFunc(d, func() {
		m.classify(m.owner.current())
	})
}

func (m *Manager) stopMonitorTimer() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.monitorTimer != nil {
		m.monitorTimer.Stop()
		m.monitorTimer = nil
	}
}

// logUndecodable logs the fail-open decision once per token.
func (m *Manager) logUndecodable(tok string) {
	fp := token.Fingerprint(tok)

	m.undecodableMu.Lock()
	seen := m.loggedUndecodable == fp
	if !seen {
		m.loggedUndecodable = fp
	}
	m.undecodableMu.Unlock()

	if seen {
		return
	}
	m.log.Warn().Str("token_fp", fp).Msg("token expiry undecodable, treating as non-expiring")
}

// expire ends the session for a token past its expiry. The version
// check claims the transition before the durable purge runs, so a
// classification of an already-superseded state can never wipe a newer
// token from the store. A crash between the two steps leaves an
// expired token durable; the next start rehydrates and re-expires it.
func (m *Manager) expire(s SessionState, exp time.Time) {
	fp := token.Fingerprint(s.Token)

	if _, ok := m.owner.applyIf(s.Version, func(st *SessionState) {
		st.Token = ""
		st.Identity = nil
		st.IdentityLoading = false
	}); !ok {
		return
	}

	m.purgeStore(m.runCtx, "token expired")

	m.metricInc(MetricTokenExpired)
	m.emitAudit(AuditEvent{
		EventType: auditEventTokenExpired,
		TokenFP:   fp,
		Success:   false,
		Metadata:  map[string]string{"expired_at": exp.UTC().Format(time.RFC3339)},
	})
	m.log.Info().Str("token_fp", fp).Time("expired_at", exp).Msg("session expired")
}

// beginRefresh starts the single-flight refresh exchange. A watchdog
// forces the failure path if the refresher has not resolved within the
// refresh timeout; whichever side finishes first wins and the other
// becomes a no-op.
func (m *Manager) beginRefresh(s SessionState) {
	if !m.refreshing.CompareAndSwap(false, true) {
		return
	}

	oldTok := s.Token
	version := s.Version
	fp := token.Fingerprint(oldTok)

	rctx, cancel := context.WithCancel(m.runCtx)

	var once sync.Once
	finish := func(newTok string, err error) {
		once.Do(func() {
			cancel()
			m.finishRefresh(oldTok, version, newTok, err)
		})
	}

	watchdog := m.clock.AfterFunc(m.config.Refresh.Timeout, func() {
		finish("", ErrRefreshTimeout)
	})
	m.timerMu.Lock()
	m.refreshWatchdog = watchdog
	m.timerMu.Unlock()

	m.log.Debug().Str("token_fp", fp).Msg("token refresh started")

	go func() {
		newTok, err := m.refresher.Refresh(rctx, oldTok)
		watchdog.Stop()
		finish(newTok, err)
	}()
}

func (m *Manager) finishRefresh(oldTok string, version uint64, newTok string, err error) {
	oldFP := token.Fingerprint(oldTok)

	if err == nil && newTok == "" {
		err = errors.New("refresher returned an empty token")
	}
	if err != nil {
		m.refreshFailed(oldFP, version, err)
		return
	}

	// Persist before adoption, the same rule the handshake follows.
	sctx, cancel := context.WithTimeout(m.runCtx, m.config.Store.OpTimeout)
	if serr := m.store.Set(sctx, newTok); serr != nil {
		m.metricInc(MetricStoreFailure)
		m.log.Warn().Err(serr).Msg("refreshed token store write failed")
	}
	cancel()

	if _, ok := m.owner.applyIf(version, func(st *SessionState) {
		st.Token = newTok
	}); !ok {
		// The session moved on while the exchange ran, most likely a
		// logout. The fresh token just written must not survive it.
		m.metricInc(MetricStaleResultDiscarded)
		m.purgeStore(m.runCtx, "stale refresh result")
		m.refreshing.Store(false)
		return
	}

	m.refreshCount.Add(1)
	m.metricInc(MetricRefreshSuccess)
	m.emitAudit(AuditEvent{
		EventType: auditEventTokenRefreshed,
		TokenFP:   token.Fingerprint(newTok),
		Success:   true,
		Metadata:  map[string]string{"previous_fp": oldFP},
	})
	m.log.Info().
		Str("token_fp", token.Fingerprint(newTok)).
		Str("previous_fp", oldFP).
		Msg("token refreshed")

	// The transition above ran with the refresh flag still set, which
	// kept its own classification pass inert. Clear the flag and
	// reclassify so the fresh token gets its boundary timer.
	m.refreshing.Store(false)
	m.classify(m.owner.current())
}

// refreshFailed is the fail-closed path: a token that could not be
// refreshed is treated as already expired. No retry.
func (m *Manager) refreshFailed(oldFP string, version uint64, err error) {
	m.metricInc(MetricRefreshFailure)
	if errors.Is(err, ErrRefreshTimeout) {
		m.metricInc(MetricRefreshTimeout)
	}

	m.purgeStore(m.runCtx, "refresh failed")

	if _, ok := m.owner.applyIf(version, func(st *SessionState) {
		st.Token = ""
		st.Identity = nil
		st.IdentityLoading = false
	}); !ok {
		m.metricInc(MetricStaleResultDiscarded)
	}

	m.emitAudit(AuditEvent{
		EventType: auditEventTokenRefreshFailed,
		TokenFP:   oldFP,
		Success:   false,
		Error:     err.Error(),
	})
	m.log.Warn().Err(err).Str("token_fp", oldFP).Msg("token refresh failed, session ended")

	m.refreshing.Store(false)
}
