package goSession

import "github.com/MrEthical07/goSession/token"

// maybeResolve kicks identity resolution when a settled session has a
// token but no identity yet. The resolver runs off the notification
// goroutine; its result is applied only if the session it was resolved
// for still exists. At most one exchange happens per run: after a
// transport failure the session stays anonymous and the stored token
// waits for the next start.
func (m *Manager) maybeResolve(s SessionState) {
	if !m.settled() || m.closed.Load() {
		return
	}
	if s.Token == "" || s.Identity != nil || s.IdentityLoading {
		return
	}
	if !m.resolveAttempted.CompareAndSwap(false, true) {
		return
	}

	ns, ok := m.owner.applyIf(s.Version, func(st *SessionState) {
		st.IdentityLoading = true
	})
	if !ok {
		// The session moved on before the loading mark landed. Give the
		// attempt back; the newer state decides whether to resolve.
		m.resolveAttempted.Store(false)
		return
	}

	go m.resolve(ns.Token, ns.Version)
}

func (m *Manager) resolve(tok string, version uint64) {
	fp := token.Fingerprint(tok)

	id, err := m.resolver.Resolve(m.runCtx, tok)

	switch {
	case err != nil:
		// Transport failure. Nothing is known about the token: the
		// session stays anonymous for this process, but the stored
		// token survives so the next start can retry the exchange.
		m.metricInc(MetricResolveFailure)
		if _, ok := m.owner.applyIf(version, func(st *SessionState) {
			st.IdentityLoading = false
		}); !ok {
			m.metricInc(MetricStaleResultDiscarded)
			return
		}
		m.emitAudit(AuditEvent{
			EventType: auditEventIdentityFailure,
			TokenFP:   fp,
			Success:   false,
			Error:     err.Error(),
		})
		m.log.Warn().Err(err).Str("token_fp", fp).Msg("identity resolution failed")

	case id == nil:
		// Explicit unauthenticated: the backend rejected the token.
		// It must not be offered again on the next start, so the
		// durable copy goes first.
		m.metricInc(MetricResolveUnauthenticated)
		m.purgeStore(m.runCtx, "resolver rejection")
		if _, ok := m.owner.applyIf(version, func(st *SessionState) {
			st.Token = ""
			st.IdentityLoading = false
		}); !ok {
			m.metricInc(MetricStaleResultDiscarded)
			return
		}
		m.emitAudit(AuditEvent{
			EventType: auditEventIdentityRejected,
			TokenFP:   fp,
			Success:   false,
		})
		m.log.Info().Str("token_fp", fp).Msg("token rejected by resolver")

	default:
		m.metricInc(MetricResolveSuccess)
		if _, ok := m.owner.applyIf(version, func(st *SessionState) {
			st.Identity = id
			st.IdentityLoading = false
		}); !ok {
			m.metricInc(MetricStaleResultDiscarded)
			return
		}
		m.emitAudit(AuditEvent{
			EventType: auditEventIdentityResolved,
			UserID:    id.UserID,
			Role:      id.Role,
			TokenFP:   fp,
			Success:   true,
		})
		m.log.Info().
			Str("user_id", id.UserID).
			Str("role", id.Role).
			Str("status", id.Status.String()).
			Msg("identity resolved")
	}
}
