package handshake

import (
	"fmt"
	"net/url"
	"sync"
)

// ParamKey is the launch parameter a host plants the session token
// under when spawning an embedded context.
const ParamKey = "session_token"

// Params wraps a set of launch parameters and serves as the transient
// token carrier. Params instances are intended to be built once at
// startup from the raw launch query.
type Params struct {
	mu     sync.Mutex
	values url.Values
}

// ParseParams builds a carrier from a raw query string, typically the
// query of the URL the embedded context was launched with.
func ParseParams(rawQuery string) (*Params, error) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("parse launch params: %w", err)
	}
	return NewParams(values), nil
}

// NewParams builds a carrier from already-parsed values. The values are
// cloned; the caller's map is never scrubbed or retained.
func NewParams(values url.Values) *Params {
	cloned := make(url.Values, len(values))
	for k, v := range values {
		cloned[k] = append([]string(nil), v...)
	}
	return &Params{values: cloned}
}

// TakeToken returns the carried token and scrubs it. The second take
// and every take after it report no token, whatever the first found.
func (p *Params) TakeToken() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.values.Has(ParamKey) {
		return "", false
	}
	tok := p.values.Get(ParamKey)
	p.values.Del(ParamKey)
	if tok == "" {
		return "", false
	}
	return tok, true
}

// Snapshot returns a copy of the remaining launch parameters. The
// carrier key is never included, taken or not; snapshots are safe to
// log and to echo into navigation state.
func (p *Params) Snapshot() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make(url.Values, len(p.values))
	for k, v := range p.values {
		if k == ParamKey {
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}
