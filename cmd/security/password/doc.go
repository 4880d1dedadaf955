// Package password provides the portal's password policy and hashing.
//
// It implements Argon2id hashing using a PHC-like encoded string format and includes:
// - Configurable Argon2id parameters (via environment variables)
// - A rule-based password policy that reports every violation at once
// - Strict hash decoding and verification with anti-DoS bounds
//
// Hash strings are treated as untrusted input during Verify. Hash never applies
// the policy; callers validate first.
package password
