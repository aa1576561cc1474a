package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/token"
)

// Logout describes the logout operation and its observable behavior.
//
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Teardown runs in a fixed order: durable and cached credentials are
// purged first, then the in-memory state is reset, then the backend is
// asked, best effort, to revoke the token. The returned route is the
// public landing destination; the caller navigates there regardless of
// backend outcomes. Logout is idempotent.
func (m *Manager) Logout(ctx context.Context) string {
	if m == nil {
		return ""
	}
	if ctx == nil {
		ctx = context.Background()
	}

	prior := m.owner.current()

	// (1) No credential may survive in durable or cached form.
	m.purgeStore(ctx, "logout")
	if m.cache != nil {
		m.cache.PurgeAll()
		m.metricInc(MetricCachePurged)
	}

	// (2) Reset the in-memory state. The version advance makes every
	// in-flight async result stale. Settlement is per process, so
	// HandshakeComplete survives: reopening the indeterminate window
	// would make the guard wave the logged-out user through.
	m.owner.apply(func(st *SessionState) {
		st.Token = ""
		st.Identity = nil
		st.IdentityLoading = false
	})

	// (3) Best-effort remote invalidation, bounded and swallowed.
	if prior.Token != "" && m.revoker != nil {
		rctx, cancel := context.WithTimeout(ctx, m.config.Logout.RevokeTimeout)
		err := m.revoker.Revoke(rctx, prior.Token)
		cancel()
		if err != nil {
			m.metricInc(MetricRevokeFailure)
			m.emitAudit(AuditEvent{
				EventType: auditEventLogoutRevokeFailed,
				TokenFP:   token.Fingerprint(prior.Token),
				Success:   false,
				Error:     err.Error(),
			})
			m.log.Warn().
				Err(err).
				Str("token_fp", token.Fingerprint(prior.Token)).
				Msg("remote session revoke failed")
		}
	}

	m.metricInc(MetricLogout)
	event := AuditEvent{
		EventType: auditEventLogout,
		TokenFP:   token.Fingerprint(prior.Token),
		Success:   true,
	}
	if prior.Identity != nil {
		event.UserID = prior.Identity.UserID
		event.Role = prior.Identity.Role
	}
	m.emitAudit(event)
	m.log.Info().Msg("logged out")

	// (4) Where the caller should land.
	return m.policy.Landing
}
