package portal

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"nexus/cmd/identity"
	"nexus/cmd/internal/auth/session"
	"nexus/cmd/internal/observability"
	"nexus/cmd/internal/uploads"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"home", "register", "login",
	"student_dashboard", "alumni_dashboard", "admin_dashboard",
	"card", "error",
}

type pages map[string]*template.Template

var funcs = template.FuncMap{
	"loginPath":     loginPath,
	"dashboardPath": dashboardPath,
	"roles":         identity.Roles,
	"deref": func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	},
	"date": func(v any) string {
		type formatter interface{ Format(string) string }
		if f, ok := v.(formatter); ok {
			return f.Format("02 Jan 2006")
		}
		return ""
	},
}

func parsePages() (pages, error) {
	out := make(pages, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("portal: parse %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// view is the data every page receives.
type view struct {
	Title     string
	Principal *session.Principal
	Flashes   []session.Flash
	Errors    []string
	Data      any
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, v view) {
	t, ok := h.pages[page]
	if !ok {
		h.fail(w, r, fmt.Errorf("portal: unknown page %q", page))
		return
	}

	if p, ok := session.FromContext(r.Context()); ok {
		v.Principal = &p
	}
	v.Flashes = h.sessions.Flashes(w, r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", v); err != nil {
		h.log.Error("portal.render.failed", "page", page, "err", err)
		observability.CaptureRequestErr(r, err)
		http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fail renders the generic error page for failures the user cannot fix.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "Something went wrong. Please try again later."
	if identity.IsUnavailable(err) {
		status, msg = http.StatusServiceUnavailable, "The service is temporarily unavailable. Please try again shortly."
	}

	h.log.LogAttrs(r.Context(), levelFor(status), "portal.request.failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("err", err.Error()),
	)
	observability.CaptureRequestErr(r, err)

	t := h.pages["error"]
	var buf bytes.Buffer
	if t == nil || t.ExecuteTemplate(&buf, "base", view{Title: "Error", Errors: []string{msg}}) != nil {
		http.Error(w, msg, status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "error", view{Title: "Not found", Errors: []string{"Page not found."}})
}

func (h *Handler) flash(w http.ResponseWriter, r *http.Request, kind, msg string) {
	if err := h.sessions.AddFlash(w, r, kind, msg); err != nil {
		h.log.Warn("portal.flash.failed", "err", err)
	}
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func unsupportedFileNotice() string {
	return "Your ID card was not saved. Accepted file types: " + strings.Join(uploads.AllowedExtensions(), ", ") + "."
}

func levelFor(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelWarn
}
