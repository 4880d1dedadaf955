package app

import (
	"context"
	"os/signal"
	"syscall"

	"nexus/cmd/internal/observability"
)

// Run is the CLI entrypoint used by cmd/nexus.
// It returns an error instead of calling os.Exit to keep defers effective.
func Run() error {
	cfg := LoadConfig()
	log := NewLogger(cfg.LogLevel, cfg.LogFormat)

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		log.Warn("sentry.init.failed", "err", err)
	} else {
		defer flush()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := New(ctx, cfg, log)
	if err != nil {
		observability.CaptureErr(err)
		return err
	}

	return a.Run(ctx)
}
