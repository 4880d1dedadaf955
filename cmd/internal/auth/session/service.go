package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nexus/cmd/identity"
	"nexus/cmd/internal/metrics"
	"nexus/cmd/security/password"
)

// Credentials is the part of identity.Store login needs.
type Credentials interface {
	CredentialExists(ctx context.Context, email string, role identity.Role) (bool, error)
	VerifyCredentials(ctx context.Context, email, password string, role identity.Role) (bool, error)
	LookupAccount(ctx context.Context, email string, role identity.Role) (identity.Account, error)
}

// Service authenticates portal users.
type Service struct {
	creds Credentials
	log   *slog.Logger
	now   func() time.Time
}

// NewService constructs a Service over creds.
func NewService(creds Credentials, log *slog.Logger) (*Service, error) {
	if creds == nil {
		return nil, errors.New("session: nil credentials store")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{creds: creds, log: log, now: time.Now}, nil
}

// Login checks (email, password) against role's table.
//
// It returns ErrNotRegistered when the email has no account for role and
// ErrBadCredentials when the password does not match. Store failures are
// returned as-is.
func (s *Service) Login(ctx context.Context, role identity.Role, email, pw string) (Principal, error) {
	email = identity.NormalizeEmail(email)

	p, err := s.login(ctx, role, email, pw)
	result := loginOutcome(err)
	metrics.ObserveLogin(role.String(), result)

	if err != nil {
		lvl := slog.LevelInfo
		if result == "error" || result == "unavailable" {
			lvl = slog.LevelError
		}
		s.log.LogAttrs(ctx, lvl, "auth.login.failed",
			slog.String("role", role.String()),
			slog.String("email", email),
			slog.String("result", result),
			slog.Any("err", err),
		)
		return Principal{}, err
	}

	s.log.LogAttrs(ctx, slog.LevelInfo, "auth.login.success",
		slog.String("role", role.String()),
		slog.String("id", p.ID),
	)
	return p, nil
}

func (s *Service) login(ctx context.Context, role identity.Role, email, pw string) (Principal, error) {
	if !role.Valid() {
		return Principal{}, identity.OpError{Op: "session.Login", Kind: identity.ErrInvalidInput, Msg: "unknown role"}
	}

	exists, err := s.creds.CredentialExists(ctx, email, role)
	if err != nil {
		return Principal{}, err
	}
	if !exists {
		return Principal{}, ErrNotRegistered
	}

	ok, err := s.creds.VerifyCredentials(ctx, email, pw, role)
	if errors.Is(err, password.ErrInvalidHash) {
		// stored hash in an unknown format, e.g. a legacy import
		return Principal{}, fmt.Errorf("%w: %w", ErrBadCredentials, err)
	}
	if err != nil {
		return Principal{}, err
	}
	if !ok {
		return Principal{}, ErrBadCredentials
	}

	acct, err := s.creds.LookupAccount(ctx, email, role)
	if identity.IsNotFound(err) {
		// row removed after the password check
		return Principal{}, fmt.Errorf("%w: %w", ErrNotRegistered, err)
	}
	if err != nil {
		return Principal{}, err
	}
	return Principal{
		Role:            acct.Role,
		ID:              acct.ID,
		Email:           acct.Email,
		Name:            acct.Name,
		AuthenticatedAt: s.now().UTC(),
	}, nil
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, ErrBadCredentials):
		return "bad_credentials"
	case identity.IsUnavailable(err):
		return "unavailable"
	case identity.IsInvalidInput(err):
		return "invalid"
	default:
		return "error"
	}
}
