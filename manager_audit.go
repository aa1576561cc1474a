package goSession

import "context"

const (
	auditEventHandshakeSettled   = "handshake_settled"
	auditEventDuplicateReply     = "handshake_duplicate_reply"
	auditEventIdentityResolved   = "identity_resolved"
	auditEventIdentityRejected   = "identity_unauthenticated"
	auditEventIdentityFailure    = "identity_resolve_failure"
	auditEventTokenRefreshed     = "token_refreshed"
	auditEventTokenRefreshFailed = "token_refresh_failed"
	auditEventTokenExpired       = "token_expired"
	auditEventCachePurged        = "cache_purged"
	auditEventGuardRedirect      = "guard_redirect"
	auditEventLogout             = "logout"
	auditEventLogoutRevokeFailed = "logout_revoke_failed"
)

// emitAudit stamps the timestamp and hands the event to the async
// dispatcher. Callers fill everything else; TokenFP must already be a
// fingerprint, never a token value.
func (m *Manager) emitAudit(event AuditEvent) {
	if m == nil || m.audit == nil {
		return
	}

	event.Timestamp = m.clock.Now().UTC()

	ctx := m.runCtx
	if ctx == nil {
		ctx = context.Background()
	}
	m.audit.Emit(ctx, event)
}
