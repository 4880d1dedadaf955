// Package token derives purpose-bound keys from the portal secret and
// generates random secrets.
//
// One configured secret (NEXUS_SESSION_SECRET) feeds several consumers. Each
// gets its own key: HMAC-SHA256 over a purpose label keyed by the secret, so
// a key leaked from one use says nothing about another.
package token
