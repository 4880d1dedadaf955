package session

import (
	"os"
	"strings"
	"time"
)

const minSecretLen = 32

// Config defines runtime configuration for cookie sessions.
type Config struct {
	// CookieName is the session cookie name.
	CookieName string

	// Secret derives the cookie signing and encryption keys.
	Secret string

	// TTL bounds how long a login stays valid, both in the cookie and server-side.
	TTL time.Duration

	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// DefaultConfig returns defaults suitable for development. Secret is empty.
func DefaultConfig() Config {
	return Config{
		CookieName: "nexus_session",
		TTL:        24 * time.Hour,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - NEXUS_SESSION_SECRET (at least 32 bytes)
//
// Optional:
//   - NEXUS_SESSION_COOKIE
//   - NEXUS_SESSION_TTL (Go duration)
//   - NEXUS_COOKIE_SECURE (true/false)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	return LoadConfigFromEnvWithFallback("")
}

// LoadConfigFromEnvWithFallback is LoadConfigFromEnv using fallbackSecret when
// NEXUS_SESSION_SECRET is unset.
func LoadConfigFromEnvWithFallback(fallbackSecret string) (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("NEXUS_SESSION_COOKIE")); v != "" {
		cfg.CookieName = v
	}

	if v := os.Getenv("NEXUS_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.TTL = d
	}

	if v := os.Getenv("NEXUS_COOKIE_SECURE"); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			cfg.Secure = true
		case "0", "false", "no", "off":
			cfg.Secure = false
		default:
			return Config{}, ErrConfig
		}
	}

	cfg.Secret = os.Getenv("NEXUS_SESSION_SECRET")
	if cfg.Secret == "" {
		cfg.Secret = fallbackSecret
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants NewManager relies on.
func (c Config) Validate() error {
	if len(c.Secret) < minSecretLen {
		return ErrConfig
	}
	if c.TTL <= 0 || c.CookieName == "" {
		return ErrConfig
	}
	return nil
}
