// Package portal serves the college portal web UI: registration, per-role
// login, dashboards, ID cards and the admin table tools.
package portal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"nexus/cmd/identity"
	"nexus/cmd/internal/auth/session"
	"nexus/cmd/internal/auth/throttle"
	"nexus/cmd/internal/card"
	"nexus/cmd/internal/export"
	"nexus/cmd/internal/registration"
	"nexus/cmd/internal/uploads"
)

// Store is the part of identity.Store the pages read and the admin tools
// operate on.
type Store interface {
	export.Source

	GetStudent(ctx context.Context, id string) (identity.Student, error)
	GetAlumni(ctx context.Context, id string) (identity.Alumni, error)
	GetAdmin(ctx context.Context, id string) (identity.Admin, error)

	EnsureSchema(ctx context.Context) error
	Tables(ctx context.Context) ([]string, error)
	ClearAll(ctx context.Context) error
	DropAll(ctx context.Context) error
}

// Registrar runs registrations. *registration.Service satisfies it.
type Registrar interface {
	Register(ctx context.Context, app registration.Application) (registration.Result, error)
}

// Authenticator checks login credentials. *session.Service satisfies it.
type Authenticator interface {
	Login(ctx context.Context, role identity.Role, email, password string) (session.Principal, error)
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Store     Store
	Registrar Registrar
	Auth      Authenticator
	Sessions  *session.Manager
	Cards     *card.Issuer

	// Throttle limits failed logins. Nil disables throttling.
	Throttle *throttle.Limiter

	// MaxUploadBytes bounds the identity document size. Zero means
	// uploads.DefaultMaxBytes.
	MaxUploadBytes int64

	Log *slog.Logger
	Now func() time.Time
}

// Handler serves the portal pages.
type Handler struct {
	store    Store
	reg      Registrar
	auth     Authenticator
	sessions *session.Manager
	cards    *card.Issuer
	throttle *throttle.Limiter
	maxBody  int64
	maxFile  int64
	log      *slog.Logger
	now      func() time.Time
	pages    pages
}

// New validates d and parses the page templates.
func New(d Deps) (*Handler, error) {
	switch {
	case d.Store == nil:
		return nil, errors.New("portal: nil store")
	case d.Registrar == nil:
		return nil, errors.New("portal: nil registrar")
	case d.Auth == nil:
		return nil, errors.New("portal: nil authenticator")
	case d.Sessions == nil:
		return nil, errors.New("portal: nil session manager")
	}
	if d.Cards == nil {
		d.Cards = card.NewIssuer(nil)
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = uploads.DefaultMaxBytes
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	p, err := parsePages()
	if err != nil {
		return nil, err
	}

	return &Handler{
		store:    d.Store,
		reg:      d.Registrar,
		auth:     d.Auth,
		sessions: d.Sessions,
		cards:    d.Cards,
		throttle: d.Throttle,
		maxFile:  d.MaxUploadBytes,
		// form fields ride along with the file
		maxBody: d.MaxUploadBytes + 1<<20,
		log:     d.Log,
		now:     d.Now,
		pages:   p,
	}, nil
}

// Routes returns the portal router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RedirectSlashes)
	r.Use(NoStore)
	r.Use(h.sessions.Middleware)

	r.Get("/", h.home)
	r.Get("/register", h.registerForm)
	r.Post("/register", h.register)

	for _, role := range identity.Roles() {
		r.Get(loginPath(role), h.loginForm(role))
		r.Post(loginPath(role), h.login(role))
	}
	r.Get("/logout", h.logout)

	r.Group(func(g chi.Router) {
		g.Use(h.sessions.RequireRole(identity.RoleStudent, loginPath(identity.RoleStudent)))
		g.Get("/student-dashboard", h.studentDashboard)
		g.Get("/student-card", h.studentCard)
	})
	r.Group(func(g chi.Router) {
		g.Use(h.sessions.RequireRole(identity.RoleAlumni, loginPath(identity.RoleAlumni)))
		g.Get("/alumni-dashboard", h.alumniDashboard)
		g.Get("/alumni-card", h.alumniCard)
	})
	r.Group(func(g chi.Router) {
		g.Use(h.sessions.RequireRole(identity.RoleAdmin, loginPath(identity.RoleAdmin)))
		g.Get("/admin-dashboard", h.adminDashboard)

		g.Route("/admin", func(a chi.Router) {
			a.Post("/schema", h.adminEnsureSchema)
			a.Post("/clear", h.adminClear)
			a.Post("/drop", h.adminDrop)
			a.Get("/rows/{table}", h.adminRows)
			a.Get("/export.xlsx", h.adminExport)
		})
	})

	r.NotFound(h.notFound)
	return r
}

// NoStore marks every response as uncacheable.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		next.ServeHTTP(w, r)
	})
}

func loginPath(role identity.Role) string {
	switch role {
	case identity.RoleStudent:
		return "/login-student"
	case identity.RoleAlumni:
		return "/login-alumni"
	case identity.RoleAdmin:
		return "/login-college"
	}
	return "/"
}

func dashboardPath(role identity.Role) string {
	switch role {
	case identity.RoleStudent:
		return "/student-dashboard"
	case identity.RoleAlumni:
		return "/alumni-dashboard"
	case identity.RoleAdmin:
		return "/admin-dashboard"
	}
	return "/"
}
