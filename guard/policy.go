package guard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goSession/role"
)

// Rule guards one route prefix behind a minimum role rank.
type Rule struct {
	Prefix  string `yaml:"prefix"`
	MinRole string `yaml:"min_role"`
}

// Policy defines a public type used by goSession APIs.
//
// Policy instances are intended to be configured during initialization
// and then treated as immutable unless documented otherwise. Call
// [Policy.Validate] once before handing the policy to the engine.
type Policy struct {
	// Landing receives unauthenticated sessions bounced off guarded
	// targets. It must itself be public.
	Landing string `yaml:"landing"`

	// Public lists prefixes reachable by any session, settled or not.
	Public []string `yaml:"public"`

	// Rules lists guarded prefixes. A target matching none of them is
	// still guarded: it requires authentication but no particular role.
	Rules []Rule `yaml:"rules"`

	// Homes maps a role name to the route a member of that role is
	// corrected to after an insufficient-rank attempt. Roles without an
	// entry fall back to Landing.
	Homes map[string]string `yaml:"homes"`
}

// Validate checks the policy against the role hierarchy. It must pass
// before the policy is used for decisions; [Decide] assumes a validated
// policy and does not re-check.
func (p *Policy) Validate(h *role.Hierarchy) error {
	if p == nil {
		return errors.New("policy is nil")
	}
	if h == nil {
		return errors.New("role hierarchy is nil")
	}

	if p.Landing == "" {
		return errors.New("landing route cannot be empty")
	}
	if err := checkRoute(p.Landing); err != nil {
		return fmt.Errorf("landing route: %w", err)
	}

	prefixes := make([]string, 0, len(p.Public)+len(p.Rules))
	for _, pub := range p.Public {
		if err := checkRoute(pub); err != nil {
			return fmt.Errorf("public prefix %q: %w", pub, err)
		}
		prefixes = append(prefixes, pub)
	}
	for _, r := range p.Rules {
		if err := checkRoute(r.Prefix); err != nil {
			return fmt.Errorf("rule prefix %q: %w", r.Prefix, err)
		}
		if r.MinRole == "" {
			return fmt.Errorf("rule prefix %q: min role cannot be empty", r.Prefix)
		}
		if _, ok := h.Rank(r.MinRole); !ok {
			return fmt.Errorf("rule prefix %q: unknown min role %q", r.Prefix, r.MinRole)
		}
		prefixes = append(prefixes, r.Prefix)
	}

	// Overlap between any two prefixes makes a target's classification
	// ambiguous. That is a configuration error, never resolved at
	// decision time.
	for i := 0; i < len(prefixes); i++ {
		for j := i + 1; j < len(prefixes); j++ {
			if pathHasPrefix(prefixes[i], prefixes[j]) || pathHasPrefix(prefixes[j], prefixes[i]) {
				return fmt.Errorf("overlapping prefixes %q and %q", prefixes[i], prefixes[j])
			}
		}
	}

	if !p.isPublic(p.Landing) {
		return errors.New("landing route must match a public prefix")
	}

	for name, home := range p.Homes {
		if _, ok := h.Rank(name); !ok {
			return fmt.Errorf("home for unknown role %q", name)
		}
		if err := checkRoute(home); err != nil {
			return fmt.Errorf("home route for role %q: %w", name, err)
		}
	}

	return nil
}

func checkRoute(route string) error {
	if route == "" {
		return errors.New("route cannot be empty")
	}
	if !strings.HasPrefix(route, "/") {
		return errors.New("route must start with /")
	}
	if len(route) > 1 && strings.HasSuffix(route, "/") {
		return errors.New("route must not end with /")
	}
	return nil
}

// pathHasPrefix reports a segment-aware prefix match: "/admin" covers
// "/admin" and "/admin/users" but never "/administrator".
func pathHasPrefix(target, prefix string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(target, prefix) {
		return false
	}
	return len(target) == len(prefix) || target[len(prefix)] == '/'
}

func (p *Policy) isPublic(target string) bool {
	for _, pub := range p.Public {
		if pathHasPrefix(target, pub) {
			return true
		}
	}
	return false
}

// matchRule returns the rule guarding target. Validation guarantees at
// most one can match.
func (p *Policy) matchRule(target string) (Rule, bool) {
	for _, r := range p.Rules {
		if pathHasPrefix(target, r.Prefix) {
			return r, true
		}
	}
	return Rule{}, false
}

// homeFor returns the correction target for a role, falling back to the
// landing route when the role has no configured home.
func (p *Policy) homeFor(name string) string {
	if home, ok := p.Homes[name]; ok {
		return home
	}
	return p.Landing
}
