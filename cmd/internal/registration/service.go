package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"nexus/cmd/identity"
	"nexus/cmd/internal/metrics"
	"nexus/cmd/internal/uploads"
)

// Store is the part of identity.Store registration needs.
type Store interface {
	IsUniqueStudentID(ctx context.Context, id string) (bool, error)
	IsUniqueAdminCode(ctx context.Context, code string) (bool, error)
	IsUniqueEmail(ctx context.Context, email string, role identity.Role) (bool, error)

	CreateStudent(ctx context.Context, in identity.Student) (identity.Student, error)
	CreateAlumni(ctx context.Context, in identity.Alumni) (identity.Alumni, error)
	CreateAdmin(ctx context.Context, in identity.Admin) (identity.Admin, error)
}

// Passwords validates and hashes passwords. password.Config satisfies it.
type Passwords interface {
	Validate(password string) error
	Hash(password string) (string, error)
}

// FileStore persists identity documents. *uploads.Saver satisfies it.
type FileStore interface {
	Save(prefix, name string, up uploads.Upload) (uploads.File, error)
	Remove(path string) error
}

// Result describes a completed registration.
type Result struct {
	Role  identity.Role
	ID    string
	Name  string
	Email string

	// File is the stored identity document, alumni only.
	File *uploads.File
	// Notices are non-fatal problems, e.g. an unsupported identity document.
	Notices []error
}

// Welcome is the success message shown after registration.
func (r Result) Welcome() string {
	return fmt.Sprintf("Registration successful! Welcome %s!", r.Name)
}

// Service runs registrations.
type Service struct {
	store     Store
	passwords Passwords
	files     FileStore
	log       *slog.Logger
}

// NewService wires a Service. files may be nil, in which case identity
// documents are skipped with a notice.
func NewService(store Store, passwords Passwords, files FileStore, log *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("registration: nil store")
	}
	if passwords == nil {
		return nil, errors.New("registration: nil password policy")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, passwords: passwords, files: files, log: log}, nil
}

// Register validates app and creates the account.
//
// Failures return one of: *password.PolicyError, FieldErrors,
// identity.ConflictError (pre-check or insert), identity.UnavailableError, or
// an unexpected error. Nothing is persisted on failure.
func (s *Service) Register(ctx context.Context, app Application) (Result, error) {
	if app == nil || !app.Role().Valid() {
		return Result{}, FieldErrors{{Field: "status", Message: "Please choose a valid registration type"}}
	}
	role := app.Role()

	res, err := s.register(ctx, app)
	outcome := outcomeOf(err)
	metrics.ObserveRegistration(role.String(), outcome)

	if err != nil {
		level := slog.LevelWarn
		if outcome == "unavailable" || outcome == "error" {
			level = slog.LevelError
		}
		s.log.LogAttrs(ctx, level, "registration.failed",
			slog.String("role", role.String()),
			slog.String("result", outcome),
			slog.String("err", err.Error()),
		)
		return Result{}, err
	}

	attrs := []slog.Attr{
		slog.String("role", role.String()),
		slog.String("id", res.ID),
	}
	if res.File != nil {
		attrs = append(attrs,
			slog.String("id_card.original_name", res.File.OriginalName),
			slog.String("id_card.saved_name", res.File.SavedName),
			slog.String("id_card.path", res.File.Path),
			slog.Int64("id_card.size", res.File.Size),
		)
	}
	for _, n := range res.Notices {
		attrs = append(attrs, slog.String("notice", n.Error()))
	}
	s.log.LogAttrs(ctx, slog.LevelInfo, "registration.success", attrs...)
	return res, nil
}

func (s *Service) register(ctx context.Context, app Application) (Result, error) {
	p := app.profile()

	if err := s.passwords.Validate(p.Password); err != nil {
		return Result{}, err
	}
	if fe := app.checkFields(); len(fe) > 0 {
		return Result{}, fe
	}

	hash, err := s.passwords.Hash(p.Password)
	if err != nil {
		return Result{}, fmt.Errorf("registration: hash: %w", err)
	}

	return app.register(ctx, s, hash)
}

func (s *Service) requireUnique(ctx context.Context, field string, check func() (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ok, err := check()
	if err != nil {
		return err
	}
	if !ok {
		return identity.ConflictError{Op: "registration.Register", Field: field}
	}
	return nil
}

func (s *Service) requireUniqueEmail(ctx context.Context, email string, role identity.Role) error {
	return s.requireUnique(ctx, "email", func() (bool, error) {
		return s.store.IsUniqueEmail(ctx, email, role)
	})
}

func (s *Service) saveIDCard(name string, up uploads.Upload) (uploads.File, error) {
	if s.files == nil {
		return uploads.File{}, uploads.ErrNoFile
	}
	return s.files.Save(identity.RoleAlumni.String(), name, up)
}

func (s *Service) discardFile(f uploads.File) {
	if err := s.files.Remove(f.Path); err != nil {
		s.log.Warn("registration.file_cleanup_failed", "path", f.Path, "err", err)
	}
}

func outcomeOf(err error) string {
	var fe FieldErrors
	switch {
	case err == nil:
		return "success"
	case identity.IsConflict(err):
		return "conflict"
	case identity.IsUnavailable(err):
		return "unavailable"
	case errors.As(err, &fe), isPolicyError(err):
		return "invalid"
	default:
		return "error"
	}
}
