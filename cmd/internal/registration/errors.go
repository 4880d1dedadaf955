package registration

import (
	"errors"
	"strings"

	"nexus/cmd/security/password"
)

// FieldError is a user correctable problem with one form field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string { return e.Field + ": " + e.Message }

// FieldErrors collects every FieldError found in one application.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Error())
	}
	return "registration: invalid fields: " + strings.Join(parts, "; ")
}

// Messages returns the user facing sentences.
func (e FieldErrors) Messages() []string {
	out := make([]string, 0, len(e))
	for _, fe := range e {
		out = append(out, fe.Message)
	}
	return out
}

// ConflictMessage turns a conflicting field name into a form message.
func ConflictMessage(field string) string {
	switch field {
	case "student_id":
		return "A student with this ID already exists"
	case "admin_code":
		return "An admin with this code already exists"
	case "email":
		return "An account with this email is already registered"
	default:
		return "This account already exists"
	}
}

func isPolicyError(err error) bool {
	var pe *password.PolicyError
	return errors.As(err, &pe)
}
