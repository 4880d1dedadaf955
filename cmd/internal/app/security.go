package app

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"nexus/cmd/internal/auth/session"
	"nexus/cmd/security/token"
)

// SessionConfig loads the cookie session settings and enforces the secret
// policy.
//
// Outside production a missing NEXUS_SESSION_SECRET is replaced by a random
// per-process secret, so sessions do not survive a restart. In production the
// secret is mandatory.
func SessionConfig(cfg Config, log *slog.Logger) (session.Config, error) {
	var fallback string
	if strings.TrimSpace(os.Getenv("NEXUS_SESSION_SECRET")) == "" {
		if cfg.Production() {
			return session.Config{}, errors.New("security policy: NEXUS_SESSION_SECRET is required in production (min 32 bytes)")
		}
		s, err := token.RandomSecret(token.MinSecretBytes)
		if err != nil {
			return session.Config{}, err
		}
		fallback = s
		log.Warn("session.secret.generated", "reason", "NEXUS_SESSION_SECRET not set", "env", cfg.Env, "fingerprint", token.Fingerprint(s))
	}

	sc, err := session.LoadConfigFromEnvWithFallback(fallback)
	if err != nil {
		return session.Config{}, errors.New("security policy: invalid session configuration (NEXUS_SESSION_SECRET must be at least 32 bytes, NEXUS_SESSION_TTL a positive duration)")
	}
	if cfg.Production() && !sc.Secure {
		log.Warn("session.cookie.insecure", "reason", "NEXUS_COOKIE_SECURE is false in production")
	}
	return sc, nil
}
