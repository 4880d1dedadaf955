// Package session implements portal login and the per-request principal.
//
// Service.Login checks credentials against the identity store. Manager keeps
// the resulting Principal in a signed and encrypted cookie, enforces the
// session TTL on every request, and gates role-specific pages.
package session
