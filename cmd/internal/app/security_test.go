package app

import (
	"io"
	"log/slog"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSessionConfig_DevFallback(t *testing.T) {
	t.Setenv("NEXUS_SESSION_SECRET", "")

	sc, err := SessionConfig(Config{Env: "development"}, quietLogger())
	if err != nil {
		t.Fatalf("SessionConfig: %v", err)
	}
	if len(sc.Secret) < 32 {
		t.Fatalf("generated secret too short: %d", len(sc.Secret))
	}

	other, _ := SessionConfig(Config{Env: "development"}, quietLogger())
	if other.Secret == sc.Secret {
		t.Fatalf("generated secrets must be random")
	}
}

func TestSessionConfig_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("NEXUS_SESSION_SECRET", "")
	if _, err := SessionConfig(Config{Env: "production"}, quietLogger()); err == nil {
		t.Fatalf("expected error without secret in production")
	}
}

func TestSessionConfig_ShortSecret(t *testing.T) {
	t.Setenv("NEXUS_SESSION_SECRET", "too-short")
	if _, err := SessionConfig(Config{Env: "development"}, quietLogger()); err == nil {
		t.Fatalf("a configured but short secret must not be replaced silently")
	}
}

func TestSessionConfig_FromEnv(t *testing.T) {
	secret := strings.Repeat("z", 40)
	t.Setenv("NEXUS_SESSION_SECRET", secret)

	sc, err := SessionConfig(Config{Env: "production"}, quietLogger())
	if err != nil {
		t.Fatalf("SessionConfig: %v", err)
	}
	if sc.Secret != secret {
		t.Fatalf("expected env secret")
	}
}
