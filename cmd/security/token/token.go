package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MinSecretBytes is the shortest secret DeriveKey accepts.
const MinSecretBytes = 32

// Key purposes used by the session cookies.
const (
	PurposeCookieAuth = "nexus/cookie/auth"
	PurposeCookieEnc  = "nexus/cookie/enc"
)

// DeriveKey returns a 32-byte key for purpose, HMAC-SHA256(purpose, secret).
func DeriveKey(secret, purpose string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	switch {
	case secret == "":
		return nil, ErrSecretMissing
	case len(secret) < MinSecretBytes:
		return nil, ErrSecretTooShort
	}
	m := hmac.New(sha256.New, []byte(secret))
	_, _ = m.Write([]byte(purpose))
	return m.Sum(nil), nil
}

// RandomSecret returns n random bytes, hex encoded.
func RandomSecret(n int) (string, error) {
	if n < MinSecretBytes {
		n = MinSecretBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Fingerprint is a short, non-reversible tag for a secret, safe to log.
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:4])
}
