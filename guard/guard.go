package guard

import "github.com/MrEthical07/goSession/role"

// Snapshot carries the slice of session state a route decision needs.
// The engine builds one per evaluation; guard never reads live state.
type Snapshot struct {
	// Settled reports that the token handshake has produced an outcome,
	// including the anonymous one.
	Settled bool

	// IdentityLoading reports that an identity resolve is in flight for
	// the current token.
	IdentityLoading bool

	// Authenticated reports that a resolved identity is present.
	Authenticated bool

	// Role is the resolved identity's role name. Empty when
	// unauthenticated.
	Role string
}

// Decision is the outcome of one route evaluation.
type Decision struct {
	// Allow reports that the session may enter the target.
	Allow bool

	// RedirectTo names the route to send the session to instead. Set
	// exactly when Allow is false.
	RedirectTo string
}

func allow() Decision {
	return Decision{Allow: true}
}

func redirect(to string) Decision {
	return Decision{RedirectTo: to}
}

// Decide evaluates one route target against the session snapshot.
//
// The order of checks is fixed: unsettled sessions pass everything,
// public targets pass everyone, unauthenticated sessions bounce to the
// landing route, insufficient ranks are corrected to their own role
// home, and everything else passes. A target matching no rule and no
// public prefix is guarded with no role requirement.
//
// Decide assumes pol passed [Policy.Validate]; it does not re-check.
func Decide(target string, snap Snapshot, pol *Policy, h *role.Hierarchy) Decision {
	if target == "" {
		target = "/"
	}

	// Never redirect off a half-built snapshot. The route layer
	// re-evaluates when the session settles.
	if !snap.Settled || snap.IdentityLoading {
		return allow()
	}

	if pol.isPublic(target) {
		return allow()
	}

	if !snap.Authenticated {
		return redirect(pol.Landing)
	}

	rule, ok := pol.matchRule(target)
	if !ok {
		return allow()
	}

	if h.AtLeast(snap.Role, rule.MinRole) {
		return allow()
	}

	// Silent correction: an under-ranked member lands on their own
	// role's home, not an error page.
	return redirect(pol.homeFor(snap.Role))
}
