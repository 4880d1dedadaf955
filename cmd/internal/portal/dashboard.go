package portal

import (
	"net/http"

	"nexus/cmd/identity"
	"nexus/cmd/internal/auth/session"
)

// principal is only called behind RequireRole.
func principal(r *http.Request) session.Principal {
	p, _ := session.FromContext(r.Context())
	return p
}

// accountGone ends a session whose record no longer exists, e.g. after an
// admin cleared the tables.
func (h *Handler) accountGone(w http.ResponseWriter, r *http.Request, role identity.Role) {
	_ = h.sessions.Clear(w, r)
	h.flash(w, r, session.FlashError, "Your account could not be found. Please log in again.")
	h.redirect(w, r, loginPath(role))
}

func (h *Handler) studentDashboard(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.GetStudent(r.Context(), principal(r).ID)
	if err != nil {
		if identity.IsNotFound(err) {
			h.accountGone(w, r, identity.RoleStudent)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "student_dashboard", view{
		Title: "Student Dashboard",
		Data:  struct{ Student identity.Student }{s},
	})
}

func (h *Handler) alumniDashboard(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.GetAlumni(r.Context(), principal(r).ID)
	if err != nil {
		if identity.IsNotFound(err) {
			h.accountGone(w, r, identity.RoleAlumni)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "alumni_dashboard", view{
		Title: "Alumni Dashboard",
		Data:  struct{ Alumni identity.Alumni }{a},
	})
}

// adminView backs the admin dashboard. Missing means the admin's own record
// is gone (tables cleared or dropped); the tools stay usable.
type adminView struct {
	Admin   identity.Admin
	Missing bool
	Tables  []string
	Counts  map[string]int
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principal(r)

	v := adminView{Counts: map[string]int{}}

	a, err := h.store.GetAdmin(ctx, p.ID)
	switch {
	case err == nil:
		v.Admin = a
	case identity.IsNotFound(err):
		v.Missing = true
		v.Admin = identity.Admin{ID: p.ID, Name: p.Name, Email: p.Email}
	default:
		h.fail(w, r, err)
		return
	}

	tables, err := h.store.Tables(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v.Tables = tables
	if len(tables) == len(identity.TableNames()) {
		if err := h.countRows(r, v.Counts); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	h.render(w, r, http.StatusOK, "admin_dashboard", view{Title: "Admin Dashboard", Data: v})
}

func (h *Handler) countRows(r *http.Request, into map[string]int) error {
	ctx := r.Context()
	s, err := h.store.ListStudents(ctx)
	if err != nil {
		return err
	}
	al, err := h.store.ListAlumni(ctx)
	if err != nil {
		return err
	}
	ad, err := h.store.ListAdmins(ctx)
	if err != nil {
		return err
	}
	into[identity.TableStudents] = len(s)
	into[identity.TableAlumni] = len(al)
	into[identity.TableAdmins] = len(ad)
	return nil
}

func (h *Handler) studentCard(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.GetStudent(r.Context(), principal(r).ID)
	if err != nil {
		if identity.IsNotFound(err) {
			h.accountGone(w, r, identity.RoleStudent)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "card", view{Title: "Student ID Card", Data: h.cards.Student(s)})
}

func (h *Handler) alumniCard(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.GetAlumni(r.Context(), principal(r).ID)
	if err != nil {
		if identity.IsNotFound(err) {
			h.accountGone(w, r, identity.RoleAlumni)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "card", view{Title: "Alumni ID Card", Data: h.cards.Alumni(a)})
}

