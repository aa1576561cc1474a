package goSession

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/goSession/clock"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/store"
)

// Shared fixtures for the manager tests. Everything here runs on a
// FakeClock so handshake timeouts, expiry boundaries and refresh
// watchdogs fire only when a test advances time explicitly.

var testEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

var tokenSeq atomic.Uint64

// mintTestToken issues a signed HS256 token whose exp claim sits ttl
// away from the fake clock's current instant. A negative ttl produces
// an already-expired token. The jti claim keeps every mint unique so
// old/new token comparisons never collide.
func mintTestToken(t testing.TB, clk clock.Clock, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "user-1",
		"exp": clk.Now().Add(ttl).Unix(),
		"jti": fmt.Sprintf("jti-%d", tokenSeq.Add(1)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("helper-test-key"))
	if err != nil {
		t.Fatalf("mint token failed: %v", err)
	}
	return tok
}

func testPolicy() *guard.Policy {
	return &guard.Policy{
		Landing: "/welcome",
		Public:  []string{"/welcome", "/help"},
		Rules: []guard.Rule{
			{Prefix: "/client", MinRole: "client"},
			{Prefix: "/trainer", MinRole: "trainer"},
			{Prefix: "/admin", MinRole: "admin"},
		},
		Homes: map[string]string{
			"client":  "/client/home",
			"trainer": "/trainer/schedule",
		},
	}
}

func testIdentity(roleName string) *Identity {
	return &Identity{UserID: "user-1", Role: roleName, Status: AccountActive}
}

// recordingStore is a TokenStore that tracks every mutation and can be
// primed with failures per operation.
type recordingStore struct {
	mu       sync.Mutex
	token    string
	sets     []string
	clears   int
	getErr   error
	setErr   error
	clearErr error
}

func newRecordingStore(initial string) *recordingStore {
	return &recordingStore{token: initial}
}

func (s *recordingStore) Get(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.token, nil
}

func (s *recordingStore) Set(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets = append(s.sets, token)
	if s.setErr != nil {
		return s.setErr
	}
	s.token = token
	return nil
}

func (s *recordingStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	if s.clearErr != nil {
		return s.clearErr
	}
	s.token = ""
	return nil
}

func (s *recordingStore) current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *recordingStore) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sets)
}

func (s *recordingStore) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

// stubResolver resolves to a fixed identity/error pair. When gate is
// set, Resolve blocks until the gate closes so tests can hold a
// resolution in flight.
type stubResolver struct {
	mu    sync.Mutex
	calls int
	id    *Identity
	err   error
	gate  chan struct{}
}

func (r *stubResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	r.mu.Lock()
	r.calls++
	gate := r.gate
	r.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id, r.err
}

func (r *stubResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// stubRefresher mints replacement tokens through next. A set gate
// holds the exchange in flight until the test releases it.
type stubRefresher struct {
	mu    sync.Mutex
	calls int
	next  func(old string) (string, error)
	gate  chan struct{}
}

func (r *stubRefresher) Refresh(ctx context.Context, token string) (string, error) {
	r.mu.Lock()
	r.calls++
	gate := r.gate
	next := r.next
	r.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if next == nil {
		return "", nil
	}
	return next(token)
}

func (r *stubRefresher) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type stubRevoker struct {
	mu     sync.Mutex
	calls  int
	tokens []string
	err    error
	hook   func(token string)
}

func (r *stubRevoker) Revoke(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.tokens = append(r.tokens, token)
	if r.hook != nil {
		r.hook(token)
	}
	return r.err
}

func (r *stubRevoker) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *stubRevoker) lastToken() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tokens) == 0 {
		return ""
	}
	return r.tokens[len(r.tokens)-1]
}

type countingCache struct {
	purges atomic.Int64
}

func (c *countingCache) PurgeAll() {
	c.purges.Add(1)
}

// buildTestManager assembles a manager on a FakeClock with a memory
// store, a static client resolver, the shared test policy and metrics
// enabled. mods run against the builder before Build so individual
// tests can swap any collaborator.
func buildTestManager(t *testing.T, mods ...func(*Builder)) (*Manager, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(testEpoch)
	b := New().
		WithStore(store.NewMemory()).
		WithResolver(&stubResolver{id: testIdentity("client")}).
		WithPolicy(testPolicy()).
		WithHierarchy(role.Default()).
		WithClock(clk)
	for _, mod := range mods {
		mod(b)
	}
	// After the mods: a test swapping the whole Config must not silently
	// turn the counters back off.
	b.WithMetricsEnabled(true)
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m, clk
}

func startManager(t *testing.T, m *Manager) {
	t.Helper()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
}

func awaitSettled(t *testing.T, m *Manager) Settlement {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := m.AwaitSettlement(ctx)
	if err != nil {
		t.Fatalf("AwaitSettlement failed: %v", err)
	}
	return st
}

// waitForState blocks until pred holds for a delivered or current
// session state. Subscribing first and then checking the current state
// closes the gap where the transition lands between the two.
func waitForState(t *testing.T, m *Manager, pred func(SessionState) bool) SessionState {
	t.Helper()
	done := make(chan SessionState, 1)
	var once sync.Once
	cancel := m.Subscribe(func(s SessionState) {
		if pred(s) {
			once.Do(func() { done <- s })
		}
	})
	defer cancel()

	if s := m.State(); pred(s) {
		return s
	}
	select {
	case s := <-done:
		return s
	case <-time.After(2 * time.Second):
		t.Fatalf("state condition not reached, current %+v", m.State())
		return SessionState{}
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func waitForMetric(t *testing.T, m *Manager, id MetricID, want uint64) {
	t.Helper()
	waitFor(t, func() bool {
		return m.MetricsSnapshot().Counters[id] >= want
	}, fmt.Sprintf("metric %d never reached %d", id, want))
}

func metricCount(m *Manager, id MetricID) uint64 {
	return m.MetricsSnapshot().Counters[id]
}
