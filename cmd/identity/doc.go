// Package identity implements the portal's credential store.
//
// It owns the three role tables (students, alumni, admins), the uniqueness
// predicates used by registration, and the credential lookups used by login.
// Password hashing itself lives in cmd/security/password; the store only
// persists hashes and delegates verification to a PasswordVerifier.
package identity
