package goSession

// invalidateOnTokenChange drops every cached read keyed under the
// previous credential when the token is replaced by a different one.
// First acquisition (empty to token) and logout (token to empty) never
// purge here: nothing was cached under a new credential yet, and
// logout runs its own purge as part of its fixed ordering.
func (m *Manager) invalidateOnTokenChange(change stateChange) {
	if m.cache == nil {
		return
	}

	prev, next := change.prev.Token, change.next.Token
	if prev == "" || next == "" || prev == next {
		return
	}

	m.cache.PurgeAll()
	m.metricInc(MetricCachePurged)
	m.emitAudit(AuditEvent{
		EventType: auditEventCachePurged,
		Success:   true,
	})
	m.log.Debug().Msg("credential cache purged on token change")
}
