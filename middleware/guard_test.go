package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/store"
)

func mintToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "user-9", "exp": time.Now().Add(ttl).Unix()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("middleware-test-key"))
	if err != nil {
		t.Fatalf("mint token failed: %v", err)
	}
	return tok
}

func buildSessionManager(t *testing.T, roleName string) *goSession.Manager {
	t.Helper()
	st := store.NewMemory()
	if err := st.Set(context.Background(), mintToken(t, 30*24*time.Hour)); err != nil {
		t.Fatalf("seed store failed: %v", err)
	}
	resolver := goSession.IdentityResolverFunc(func(context.Context, string) (*goSession.Identity, error) {
		return &goSession.Identity{UserID: "user-9", Role: roleName, Status: goSession.AccountActive}, nil
	})
	pol := &guard.Policy{
		Landing: "/welcome",
		Public:  []string{"/welcome"},
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

	m, err := goSession.New().
		WithStore(st).
		WithResolver(resolver).
		WithPolicy(pol).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(m.Close)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.State().Identity == nil && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if m.State().Identity == nil {
		t.Fatal("identity never resolved")
	}
	return m
}

func TestGuardInjectsSessionAndServes(t *testing.T) {
	m := buildSessionManager(t, "trainer")

	var sawRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := SessionFromContext(r.Context())
		if !ok {
			t.Error("session missing from request context")
			return
		}
		sawRole = s.Identity.Role
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	Guard(m)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trainer/schedule", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if sawRole != "trainer" {
		t.Fatalf("context session role = %q, want trainer", sawRole)
	}
}

func TestGuardRedirectsUnderRankedNavigation(t *testing.T) {
	m := buildSessionManager(t, "client")

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("denied navigation reached the handler")
	})

	rec := httptest.NewRecorder()
	Guard(m)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/panel", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/client/home" {
		t.Fatalf("Location = %q, want /client/home", loc)
	}
}

func TestGuardWithoutManagerFailsClosed(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("request served without a session manager")
	})

	rec := httptest.NewRecorder()
	Guard(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/client/home", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestLogoutHandlerClearsSessionAndRedirects(t *testing.T) {
	m := buildSessionManager(t, "client")

	rec := httptest.NewRecorder()
	LogoutHandler(m).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/welcome" {
		t.Fatalf("Location = %q, want /welcome", loc)
	}
	if s := m.State(); s.Token != "" || s.Identity != nil {
		t.Fatalf("session survived the logout handler: %+v", s)
	}
}

func TestLogoutHandlerWithoutManagerFailsClosed(t *testing.T) {
	rec := httptest.NewRecorder()
	LogoutHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
