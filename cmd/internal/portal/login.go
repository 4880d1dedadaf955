package portal

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nexus/cmd/identity"
	"nexus/cmd/internal/auth/session"
	"nexus/cmd/internal/auth/throttle"
	"nexus/cmd/internal/metrics"
)

// loginView backs the per-role login form.
type loginView struct {
	Role   identity.Role
	Action string
	Email  string
}

func (h *Handler) loginForm(role identity.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusOK, "login", view{
			Title: role.Label() + " Login",
			Data:  loginView{Role: role, Action: loginPath(role)},
		})
	}
}

func (h *Handler) login(role identity.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			h.loginFailed(w, r, role, http.StatusBadRequest, "", "The form could not be read.")
			return
		}
		email := strings.TrimSpace(r.PostFormValue("email"))

		now := h.now()
		ipKey := throttle.IPKey(clientIP(r))
		acctKey := throttle.AccountKey(role.String(), strings.ToLower(email))
		if wait, blocked := h.throttled(now, ipKey, acctKey); blocked {
			metrics.ObserveLogin(role.String(), "throttled")
			h.log.Warn("auth.login.throttled", "role", role.String(), "ip", clientIP(r))
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			h.loginFailed(w, r, role, http.StatusTooManyRequests, email,
				"Too many failed login attempts. Please try again later.")
			return
		}

		p, err := h.auth.Login(r.Context(), role, email, r.PostFormValue("password"))
		if errors.Is(err, session.ErrNotRegistered) || errors.Is(err, session.ErrBadCredentials) {
			h.throttle.Fail(now, ipKey, acctKey)
		}
		switch {
		case err == nil:
			h.throttle.Reset(acctKey)
		case errors.Is(err, session.ErrNotRegistered):
			h.loginFailed(w, r, role, http.StatusUnauthorized, email,
				fmt.Sprintf("No %s account is registered with this email.", strings.ToLower(role.Label())))
			return
		case errors.Is(err, session.ErrBadCredentials):
			h.loginFailed(w, r, role, http.StatusUnauthorized, email, "Incorrect email or password.")
			return
		case identity.IsInvalidInput(err):
			h.loginFailed(w, r, role, http.StatusBadRequest, email, "Please enter your email and password.")
			return
		default:
			h.fail(w, r, err)
			return
		}

		if err := h.sessions.Establish(w, r, p); err != nil {
			h.fail(w, r, err)
			return
		}
		h.flash(w, r, session.FlashSuccess, fmt.Sprintf("Welcome back, %s!", p.Name))
		h.redirect(w, r, dashboardPath(role))
	}
}

// throttled returns the longest wait among the blocked keys.
func (h *Handler) throttled(now time.Time, keys ...string) (time.Duration, bool) {
	var (
		wait    time.Duration
		blocked bool
	)
	for _, k := range keys {
		if b, d := h.throttle.Blocked(k, now); b {
			blocked = true
			wait = max(wait, d)
		}
	}
	return wait, blocked
}

// clientIP strips the port RemoteAddr may carry. RealIP upstream has
// already applied forwarding headers.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// loginFailed ends any existing login before re-rendering the form: a failed
// attempt always leaves the session anonymous.
func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, role identity.Role, status int, email, msg string) {
	if _, ok := session.FromContext(r.Context()); ok {
		if err := h.sessions.Clear(w, r); err != nil {
			h.log.Warn("portal.session.clear_failed", "err", err)
		}
		r = r.WithContext(session.WithPrincipal(r.Context(), session.Principal{}))
	}
	h.render(w, r, status, "login", view{
		Title:  role.Label() + " Login",
		Errors: []string{msg},
		Data:   loginView{Role: role, Action: loginPath(role), Email: email},
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(w, r); err != nil {
		h.log.Warn("portal.logout.failed", "err", err)
	}
	h.redirect(w, r, "/")
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home", view{Title: "Nexus College Portal"})
}
