package session

import (
	"net/http"

	"nexus/cmd/identity"
)

// Middleware attaches the logged-in principal, if any, to the request context.
// An expired session is cleared before the handler runs.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.get(r)
		p, ok := m.principal(s)
		if !ok {
			if _, had := s.Values[keyID]; had {
				_ = m.Clear(w, r)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireRole lets through only principals logged in as role. Anyone else is
// sent to loginURL with a flash asking them to log in.
func (m *Manager) RequireRole(role identity.Role, loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				p, ok = m.Load(r)
			}
			if !ok || !p.Has(role) {
				_ = m.AddFlash(w, r, FlashError, "Please log in to access this page.")
				http.Redirect(w, r, loginURL, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
