package password

import (
	"errors"
	"fmt"
	"strings"
)

// Public, stable errors for callers.
var (
	ErrPasswordRequired = errors.New("password required")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrPasswordNoUpper  = errors.New("password missing uppercase letter")
	ErrPasswordNoLower  = errors.New("password missing lowercase letter")
	ErrPasswordNoDigit  = errors.New("password missing digit")
	ErrWeakPassword     = errors.New("weak password")
	ErrInvalidHash      = errors.New("invalid password hash")
)

// PolicyError carries every policy violation found for one password.
type PolicyError struct {
	Violations []error

	minLength int
	maxLength int
}

func (e *PolicyError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Error())
	}
	return "password policy: " + strings.Join(parts, "; ")
}

// Unwrap exposes the violations to errors.Is.
func (e *PolicyError) Unwrap() []error { return e.Violations }

// Messages returns the violations as sentences suitable for a form.
func (e *PolicyError) Messages() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, e.message(v))
	}
	return out
}

func (e *PolicyError) message(v error) string {
	switch {
	case errors.Is(v, ErrPasswordRequired):
		return "Password is required"
	case errors.Is(v, ErrPasswordTooShort):
		return fmt.Sprintf("Password must be at least %d characters long", e.minLength)
	case errors.Is(v, ErrPasswordTooLong):
		return fmt.Sprintf("Password must be at most %d characters long", e.maxLength)
	case errors.Is(v, ErrPasswordNoUpper):
		return "Password must contain at least one uppercase letter"
	case errors.Is(v, ErrPasswordNoLower):
		return "Password must contain at least one lowercase letter"
	case errors.Is(v, ErrPasswordNoDigit):
		return "Password must contain at least one number"
	case errors.Is(v, ErrWeakPassword):
		return "Password is too easy to guess"
	default:
		return v.Error()
	}
}
