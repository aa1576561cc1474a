package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

// LogoutHandler returns a handler that ends the session and redirects to
// the landing route the logout reports.
//
//	Docs: docs/middleware.md, docs/logout.md
func LogoutHandler(manager *goSession.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if manager == nil {
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
			return
		}

		landing := manager.Logout(r.Context())
		http.Redirect(w, r, landing, http.StatusSeeOther)
	})
}
