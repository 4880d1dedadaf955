package password

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy controls password validation.
type Policy struct {
	MinLength int
	// MaxLength of 0 disables the upper bound.
	MaxLength int

	RequireUpper bool
	RequireLower bool
	RequireDigit bool

	// If true, enable an extra, minimal weak-pattern rejection.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
// It is both the policy validator and the hasher.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns the portal baseline: at least 8 characters with an
// uppercase letter, a lowercase letter and a digit.
func DefaultConfig() Config {
	// Clamp to [1..4] to keep resource usage predictable in containers.
	threads := runtime.NumCPU()
	if threads <= 0 {
		threads = 1
	}
	if threads > 4 {
		threads = 4
	}

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,      // 64 MiB
			Iterations:  3,              // reasonable default for interactive logins
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above; safe conversion.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength:      8,
			MaxLength:      0,
			RequireUpper:   true,
			RequireLower:   true,
			RequireDigit:   true,
			RejectVeryWeak: false,
		},
	}
}

// FromEnv loads config from environment variables.
//
// Env surface:
// - NEXUS_PASSWORD_MIN_LEN
// - NEXUS_PASSWORD_MAX_LEN (0 = unbounded)
// - NEXUS_PASSWORD_REQUIRE_UPPER / _LOWER / _DIGIT (true/false)
// - NEXUS_PASSWORD_REJECT_VERY_WEAK (true/false)
// - NEXUS_ARGON2_MEMORY_KIB
// - NEXUS_ARGON2_ITERATIONS
// - NEXUS_ARGON2_PARALLELISM
// - NEXUS_ARGON2_SALT_LEN
// - NEXUS_ARGON2_KEY_LEN
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v, ok := os.LookupEnv("NEXUS_PASSWORD_MIN_LEN"); ok {
		n, err := atoiRange(v, 1, 1024)
		if err != nil {
			return Config{}, fmt.Errorf("NEXUS_PASSWORD_MIN_LEN: %w", err)
		}
		cfg.Policy.MinLength = n
	}

	if v, ok := os.LookupEnv("NEXUS_PASSWORD_MAX_LEN"); ok {
		n, err := atoiRange(v, 0, 4096)
		if err != nil {
			return Config{}, fmt.Errorf("NEXUS_PASSWORD_MAX_LEN: %w", err)
		}
		cfg.Policy.MaxLength = n
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"NEXUS_PASSWORD_REQUIRE_UPPER", &cfg.Policy.RequireUpper},
		{"NEXUS_PASSWORD_REQUIRE_LOWER", &cfg.Policy.RequireLower},
		{"NEXUS_PASSWORD_REQUIRE_DIGIT", &cfg.Policy.RequireDigit},
		{"NEXUS_PASSWORD_REJECT_VERY_WEAK", &cfg.Policy.RejectVeryWeak},
	}
	for _, b := range bools {
		v, ok := os.LookupEnv(b.key)
		if !ok {
			continue
		}
		parsed, err := parseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", b.key, err)
		}
		*b.dst = parsed
	}

	if v, ok := os.LookupEnv("NEXUS_ARGON2_MEMORY_KIB"); ok {
		u, err := atou32(v, 8*1024, 1024*1024) // 8 MiB .. 1 GiB
		if err != nil {
			return Config{}, fmt.Errorf("NEXUS_ARGON2_MEMORY_KIB: %w", err)
		}
		cfg.Params.MemoryKiB = u
	}

	if v, ok := os.LookupEnv("NEXUS_ARGON2_ITERATIONS"); ok {
		u, err := atou32(v, 1, 20)
		if err != nil {
			return Config{}, fmt.Errorf("NEXUS_ARGON2_ITERATIONS: %w", err)
		}
		cfg.Params.Iterations = u
	}

	if v, ok := os.LookupEnv("NEXUS_ARGON2_PARALLELISM"); ok {
		u, err := atou32(v, 1, 64)
		if err != nil {
			return Config{}, fmt.Errorf("NEXUS_ARGON2_PARALLELISM: %w", err)
		}
		p, err := u32ToU8(u)
		if err != nil {
			return Config{}, fmt.Errorf("NEXUS_ARGON2_PARALLELISM: %w", err)
		}
		cfg.Params.Parallelism = p
	}

	if v, ok := os.LookupEnv("NEXUS_ARGON2_SALT_LEN"); ok {
		u, err := atou32(v, 8, 64)
		if err != nil {
			return Config{}, fmt.Errorf("NEXUS_ARGON2_SALT_LEN: %w", err)
		}
		cfg.Params.SaltLength = u
	}

	if v, ok := os.LookupEnv("NEXUS_ARGON2_KEY_LEN"); ok {
		u, err := atou32(v, 16, 64)
		if err != nil {
			return Config{}, fmt.Errorf("NEXUS_ARGON2_KEY_LEN: %w", err)
		}
		cfg.Params.KeyLength = u
	}

	if cfg.Policy.MaxLength > 0 && cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength,
			cfg.Policy.MaxLength,
		)
	}

	return cfg, nil
}

func atoiRange(s string, minVal, maxVal int) (int, error) {
	s = strings.TrimSpace(s)
	i64, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}

	i := int(i64)
	if i < minVal || i > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return i, nil
}

func atou32(s string, minVal, maxVal uint32) (uint32, error) {
	s = strings.TrimSpace(s)
	u64, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}

	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}

func u32ToU8(u uint32) (uint8, error) {
	if u > math.MaxUint8 {
		return 0, fmt.Errorf("out of range [0..%d]", math.MaxUint8)
	}
	return uint8(u), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean")
	}
}
