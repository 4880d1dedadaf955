package app

import (
	"time"

	"nexus/cmd/internal/uploads"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	// Env names the deployment ("development", "production"). It tags Sentry
	// events and decides whether a session secret may be generated.
	Env     string
	Release string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Enable only behind a reverse proxy that overwrites them.
	TrustProxyHeaders bool

	DatabaseURL   string
	DBSchema      string
	DBMaxConns    int32
	DBMinConns    int32
	DBAutoMigrate bool
	DBOpTimeout   time.Duration

	// If true, /readyz returns 503 unless a database is configured and reachable.
	ReadinessRequireDB bool

	UploadDir      string
	UploadMaxBytes int64

	SentryDSN string
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("NEXUS_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("NEXUS_LOG_LEVEL", "info"),
		LogFormat: EnvString("NEXUS_LOG_FORMAT", "json"),

		Env:     EnvString("NEXUS_ENV", "development"),
		Release: EnvString("NEXUS_RELEASE", ""),

		ReadHeaderTimeout: EnvDuration("NEXUS_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("NEXUS_HTTP_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:      EnvDuration("NEXUS_HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       EnvDuration("NEXUS_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("NEXUS_HTTP_MAX_HEADER_BYTES", 1<<20),

		TrustProxyHeaders: EnvBool("NEXUS_TRUST_PROXY_HEADERS", false),

		DatabaseURL:   EnvString("NEXUS_DATABASE_URL", ""),
		DBSchema:      EnvString("NEXUS_DB_SCHEMA", "nexus"),
		DBMaxConns:    EnvInt32("NEXUS_DB_MAX_CONNS", 10),
		DBMinConns:    EnvInt32("NEXUS_DB_MIN_CONNS", 0),
		DBAutoMigrate: EnvBool("NEXUS_DB_AUTO_MIGRATE", true),
		DBOpTimeout:   EnvDuration("NEXUS_DB_OP_TIMEOUT", 10*time.Second),

		ReadinessRequireDB: EnvBool("NEXUS_READINESS_REQUIRE_DB", false),

		UploadDir:      EnvString("NEXUS_UPLOAD_DIR", "uploads"),
		UploadMaxBytes: EnvInt64("NEXUS_UPLOAD_MAX_BYTES", uploads.DefaultMaxBytes),

		SentryDSN: EnvString("NEXUS_SENTRY_DSN", ""),
	}
}

// Production reports whether cfg describes a production deployment.
func (c Config) Production() bool {
	return c.Env == "production" || c.Env == "prod"
}
