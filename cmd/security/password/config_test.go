package password

import (
	"os"
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv := []string{
		"NEXUS_PASSWORD_MIN_LEN",
		"NEXUS_PASSWORD_MAX_LEN",
		"NEXUS_PASSWORD_REQUIRE_UPPER",
		"NEXUS_PASSWORD_REQUIRE_LOWER",
		"NEXUS_PASSWORD_REQUIRE_DIGIT",
		"NEXUS_PASSWORD_REJECT_VERY_WEAK",
		"NEXUS_ARGON2_MEMORY_KIB",
		"NEXUS_ARGON2_ITERATIONS",
		"NEXUS_ARGON2_PARALLELISM",
		"NEXUS_ARGON2_SALT_LEN",
		"NEXUS_ARGON2_KEY_LEN",
	}
	for _, k := range clearEnv {
		_ = os.Unsetenv(k)
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	def := DefaultConfig()
	if cfg.Policy != def.Policy {
		t.Fatalf("policy mismatch: %+v", cfg.Policy)
	}
	if cfg.Params.MemoryKiB != def.Params.MemoryKiB {
		t.Fatalf("memory mismatch")
	}
}

func TestFromEnv_Override(t *testing.T) {
	t.Setenv("NEXUS_PASSWORD_MIN_LEN", "10")
	t.Setenv("NEXUS_PASSWORD_MAX_LEN", "200")
	t.Setenv("NEXUS_PASSWORD_REQUIRE_DIGIT", "false")
	t.Setenv("NEXUS_PASSWORD_REJECT_VERY_WEAK", "yes")
	t.Setenv("NEXUS_ARGON2_MEMORY_KIB", "32768")
	t.Setenv("NEXUS_ARGON2_ITERATIONS", "4")
	t.Setenv("NEXUS_ARGON2_PARALLELISM", "2")
	t.Setenv("NEXUS_ARGON2_SALT_LEN", "24")
	t.Setenv("NEXUS_ARGON2_KEY_LEN", "32")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	if cfg.Policy.MinLength != 10 || cfg.Policy.MaxLength != 200 || !cfg.Policy.RejectVeryWeak {
		t.Fatalf("policy override failed: %+v", cfg.Policy)
	}
	if cfg.Policy.RequireDigit || !cfg.Policy.RequireUpper {
		t.Fatalf("require flags override failed: %+v", cfg.Policy)
	}
	if cfg.Params.MemoryKiB != 32768 || cfg.Params.Iterations != 4 || cfg.Params.Parallelism != 2 {
		t.Fatalf("argon2 override failed: %+v", cfg.Params)
	}
	if cfg.Params.SaltLength != 24 || cfg.Params.KeyLength != 32 {
		t.Fatalf("len override failed: %+v", cfg.Params)
	}
}

func TestFromEnv_InvalidMinMax(t *testing.T) {
	t.Setenv("NEXUS_PASSWORD_MIN_LEN", "20")
	t.Setenv("NEXUS_PASSWORD_MAX_LEN", "10")

	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFromEnv_InvalidBool(t *testing.T) {
	t.Setenv("NEXUS_PASSWORD_REQUIRE_UPPER", "maybe")

	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error")
	}
}
