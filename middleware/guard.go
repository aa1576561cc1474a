package middleware

import (
	"context"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

type sessionContextKey struct{}

func SessionFromContext(ctx context.Context) (goSession.SessionState, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(goSession.SessionState)
	return s, ok
}

// Guard returns middleware that evaluates the manager's route policy
// against the request path on every request. Denied requests are
// redirected, never rejected: the decision names the route the session
// belongs on instead.
func Guard(manager *goSession.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				http.Error(w, "session unavailable", http.StatusServiceUnavailable)
				return
			}

			d := manager.Guard(r.URL.Path)
			if !d.Allow {
				http.Redirect(w, r, d.RedirectTo, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, manager.State())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
