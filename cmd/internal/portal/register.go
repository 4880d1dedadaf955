package portal

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"nexus/cmd/identity"
	"nexus/cmd/internal/auth/session"
	"nexus/cmd/internal/registration"
	"nexus/cmd/internal/uploads"
	"nexus/cmd/security/password"
)

// registerView backs the registration form.
type registerView struct {
	Status     string
	Values     map[string]string
	Extensions string
	MaxMB      int64
}

// echoed fields are written back into the form after a failed attempt.
var echoed = []string{
	"name", "college", "status",
	"student_id", "student_email", "student_department", "student_grad_year", "student_degree",
	"alumni_email", "alumni_department", "alumni_grad_year", "alumni_degree",
	"admin_code", "college_email", "admin_department",
}

func (h *Handler) registerView(r *http.Request) registerView {
	v := registerView{
		Values:     map[string]string{},
		Extensions: strings.Join(uploads.AllowedExtensions(), ", "),
		MaxMB:      h.maxFile >> 20,
	}
	if r != nil && r.Form != nil {
		for _, k := range echoed {
			v.Values[k] = strings.TrimSpace(r.FormValue(k))
		}
		v.Status = v.Values["status"]
	}
	return v
}

func (h *Handler) registerForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", view{Title: "Register", Data: h.registerView(nil)})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig), errors.Is(err, multipart.ErrMessageTooLarge):
			h.render(w, r, http.StatusRequestEntityTooLarge, "register", view{
				Title:  "Register",
				Errors: []string{fmt.Sprintf("The uploaded file is too large (max %d MB).", h.maxFile>>20)},
				Data:   h.registerView(nil),
			})
			return
		case errors.Is(err, http.ErrNotMultipart):
			if err := r.ParseForm(); err != nil {
				h.registerFailed(w, r, http.StatusBadRequest, []string{"The form could not be read."})
				return
			}
		default:
			h.registerFailed(w, r, http.StatusBadRequest, []string{"The form could not be read."})
			return
		}
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	app, closeFile, err := applicationFromForm(r)
	if err != nil {
		h.registerFailed(w, r, http.StatusBadRequest, []string{"Please choose a valid registration type."})
		return
	}
	defer closeFile()

	res, err := h.reg.Register(r.Context(), app)
	if err != nil {
		h.registrationError(w, r, err)
		return
	}

	h.flash(w, r, session.FlashSuccess, res.Welcome())
	for _, n := range res.Notices {
		switch {
		case errors.Is(n, uploads.ErrUnsupportedFile):
			h.flash(w, r, session.FlashInfo, unsupportedFileNotice())
		case errors.Is(n, uploads.ErrTooLarge):
			h.flash(w, r, session.FlashInfo, fmt.Sprintf("Your ID card was not saved: files may be at most %d MB.", h.maxFile>>20))
		}
	}
	h.redirect(w, r, "/")
}

func (h *Handler) registrationError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		pe *password.PolicyError
		fe registration.FieldErrors
	)
	switch {
	case errors.As(err, &pe):
		h.registerFailed(w, r, http.StatusBadRequest, pe.Messages())
	case errors.As(err, &fe):
		h.registerFailed(w, r, http.StatusBadRequest, fe.Messages())
	case identity.IsConflict(err):
		field, _ := identity.ConflictField(err)
		h.registerFailed(w, r, http.StatusConflict, []string{registration.ConflictMessage(field)})
	default:
		h.fail(w, r, err)
	}
}

func (h *Handler) registerFailed(w http.ResponseWriter, r *http.Request, status int, msgs []string) {
	h.render(w, r, status, "register", view{Title: "Register", Errors: msgs, Data: h.registerView(r)})
}

// applicationFromForm maps the posted form onto the Application for the
// selected role. The returned func closes the uploaded file, if any.
func applicationFromForm(r *http.Request) (registration.Application, func(), error) {
	noop := func() {}

	role, err := identity.ParseRole(r.FormValue("status"))
	if err != nil {
		return nil, noop, err
	}

	profile := registration.Profile{
		Name:     r.FormValue("name"),
		College:  r.FormValue("college"),
		Password: r.FormValue("password"),
	}

	switch role {
	case identity.RoleStudent:
		return registration.StudentApplication{
			Profile:        profile,
			StudentID:      r.FormValue("student_id"),
			Email:          r.FormValue("student_email"),
			Department:     r.FormValue("student_department"),
			GraduationYear: formYear(r, "student_grad_year"),
			Degree:         r.FormValue("student_degree"),
		}, noop, nil

	case identity.RoleAlumni:
		app := registration.AlumniApplication{
			Profile:        profile,
			Email:          r.FormValue("alumni_email"),
			Department:     r.FormValue("alumni_department"),
			GraduationYear: formYear(r, "alumni_grad_year"),
			Degree:         r.FormValue("alumni_degree"),
		}
		file, hdr, err := r.FormFile("id_card")
		if err != nil || hdr.Filename == "" {
			return app, noop, nil
		}
		app.IDCard = &uploads.Upload{Filename: hdr.Filename, Body: file}
		return app, closer(file), nil

	default:
		return registration.AdminApplication{
			Profile:           profile,
			AdminCode:         r.FormValue("admin_code"),
			Email:             r.FormValue("college_email"),
			DepartmentSection: r.FormValue("admin_department"),
		}, noop, nil
	}
}

func closer(f multipart.File) func() {
	return func() { _ = f.Close() }
}

// formYear returns 0 for anything that is not a number; the workflow reports
// it as an invalid year.
func formYear(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	if err != nil {
		return 0
	}
	return n
}
