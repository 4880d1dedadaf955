package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
// Uniqueness is enforced on the normalized form.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeID trims user supplied identifiers (student id, admin code).
// Identifiers stay case-sensitive.
func NormalizeID(s string) string {
	return strings.TrimSpace(s)
}
