package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Violations returns every policy rule the password breaks, in a stable order.
// An empty password only reports ErrPasswordRequired.
func (c Config) Violations(password string) []error {
	if password == "" {
		return []error{ErrPasswordRequired}
	}

	var out []error

	// Count characters (runes), not bytes, to be user-friendly.
	n := utf8.RuneCountInString(password)
	if n < c.Policy.MinLength {
		out = append(out, ErrPasswordTooShort)
	}
	if c.Policy.MaxLength > 0 && n > c.Policy.MaxLength {
		out = append(out, ErrPasswordTooLong)
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if c.Policy.RequireUpper && !upper {
		out = append(out, ErrPasswordNoUpper)
	}
	if c.Policy.RequireLower && !lower {
		out = append(out, ErrPasswordNoLower)
	}
	if c.Policy.RequireDigit && !digit {
		out = append(out, ErrPasswordNoDigit)
	}

	if c.Policy.RejectVeryWeak && looksVeryWeak(password) {
		out = append(out, ErrWeakPassword)
	}

	return out
}

// Validate checks password policy. It returns nil or a *PolicyError.
func (c Config) Validate(password string) error {
	v := c.Violations(password)
	if len(v) == 0 {
		return nil
	}
	return &PolicyError{
		Violations: v,
		minLength:  c.Policy.MinLength,
		maxLength:  c.Policy.MaxLength,
	}
}

// looksVeryWeak is intentionally minimal.
// It is not a full zxcvbn-style estimator.
func looksVeryWeak(pw string) bool {
	s := strings.TrimSpace(pw)
	if s == "" {
		return true
	}

	// Reject if all same char.
	first, _ := utf8.DecodeRuneInString(s)
	if strings.Trim(s, string(first)) == "" {
		return true
	}

	lower := strings.ToLower(s)
	switch lower {
	case "password1", "passw0rd", "password123", "qwerty123", "welcome1", "letmein1", "admin123":
		return true
	}

	return false
}
