package identity

import (
	"fmt"
	"strings"
)

// Role selects which table an account lives in.
// The string values are the wire values used by the registration form.
type Role string

const (
	RoleStudent Role = "student"
	RoleAlumni  Role = "alumni"
	RoleAdmin   Role = "college"
)

// Roles returns every role in display order.
func Roles() []Role {
	return []Role{RoleStudent, RoleAlumni, RoleAdmin}
}

// ParseRole parses a form value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", OpError{Op: "identity.ParseRole", Kind: ErrInvalidInput, Msg: fmt.Sprintf("unknown role %q", s)}
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAlumni, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// Label is the human readable role name.
func (r Role) Label() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleAlumni:
		return "Alumni"
	case RoleAdmin:
		return "College Admin"
	default:
		return "Unknown"
	}
}
