package goSession

import "github.com/MrEthical07/goSession/token"

// Introspect describes the introspect operation and its observable behavior.
//
// Introspect does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The report is a diagnostic snapshot of the session posture. It
// carries the token fingerprint and decoded expiry, never token
// material.
func (m *Manager) Introspect() SessionReport {
	if m == nil {
		return SessionReport{}
	}

	s := m.owner.current()

	report := SessionReport{
		Settled:         s.HandshakeComplete,
		Authenticated:   s.Identity != nil,
		IdentityLoading: s.IdentityLoading,
		RefreshInFlight: m.refreshing.Load(),
		RefreshCount:    m.refreshCount.Load(),
		AuditDropped:    m.audit.Dropped(),
		StateVersion:    s.Version,
	}
	if m.settled() {
		report.Source = m.settlement.Source
	}
	if s.Identity != nil {
		report.Role = s.Identity.Role
	}
	if s.Token != "" {
		report.TokenFingerprint = token.Fingerprint(s.Token)
		if exp, ok := token.DecodeExpiry(s.Token); ok {
			report.TokenExpiry = exp
			report.TokenExpiryKnown = true
		}
	}
	return report
}
