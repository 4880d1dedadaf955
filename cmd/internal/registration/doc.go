// Package registration runs the per-role sign-up workflow: password policy,
// hashing, uniqueness pre-checks, optional identity document storage, insert.
package registration
