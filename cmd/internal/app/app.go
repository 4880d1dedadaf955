// Package app wires the Nexus portal runtime: config, logging, storage,
// workflows and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"nexus/cmd/identity"
	"nexus/cmd/internal/auth/session"
	"nexus/cmd/internal/auth/throttle"
	"nexus/cmd/internal/card"
	"nexus/cmd/internal/portal"
	"nexus/cmd/internal/registration"
	"nexus/cmd/internal/uploads"
	"nexus/cmd/security/password"
)

// App is the Nexus server runtime.
type App struct {
	cfg Config
	log Logger

	store identity.Store
	// pool is nil in in-memory mode; the app owns its lifecycle.
	pool *pgxpool.Pool

	handler http.Handler
}

// New constructs a fully wired App from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	pw, err := password.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("password config: %w", err)
	}

	store, pool, err := newStore(ctx, cfg, log, pw)
	if err != nil {
		return nil, err
	}

	a, err := wire(cfg, log, store, pw)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}
	a.pool = pool
	return a, nil
}

// wire builds the workflows and HTTP surface over store.
func wire(cfg Config, log Logger, store identity.Store, pw password.Config) (*App, error) {
	saver, err := uploads.NewSaver(cfg.UploadDir, cfg.UploadMaxBytes)
	if err != nil {
		return nil, fmt.Errorf("uploads: %w", err)
	}
	log.Info("uploads.ready", "dir", saver.Dir(), "max_bytes", saver.MaxBytes())

	reg, err := registration.NewService(store, pw, saver, log)
	if err != nil {
		return nil, err
	}
	auth, err := session.NewService(store, log)
	if err != nil {
		return nil, err
	}

	sc, err := SessionConfig(cfg, log)
	if err != nil {
		return nil, err
	}
	mgr, err := session.NewManager(sc)
	if err != nil {
		return nil, err
	}

	ph, err := portal.New(portal.Deps{
		Store:          store,
		Registrar:      reg,
		Auth:           auth,
		Sessions:       mgr,
		Cards:          card.NewIssuer(nil),
		Throttle:       throttle.New(throttle.ConfigFromEnv()),
		MaxUploadBytes: saver.MaxBytes(),
		Log:            log,
	})
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log, store: store}
	a.handler = newRouter(cfg, log, store, a.dbEnabled, ph)
	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

func (a *App) dbEnabled() bool { return a.pool != nil }

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 30*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled(), "env", a.cfg.Env)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		a.Close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		a.Close()
		return err
	}

	a.Close()
	a.log.Info("server.stopped")
	return nil
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between Postgres-backed persistence and the in-memory dev store.
func newStore(ctx context.Context, cfg Config, log *slog.Logger, pw password.Config) (identity.Store, *pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		if cfg.Production() {
			return nil, nil, errors.New("NEXUS_DATABASE_URL is required in production")
		}
		log.Warn("db.disabled.inmemory_store", "reason", "NEXUS_DATABASE_URL not set")
		return identity.NewMemoryStore(identity.WithMemoryVerifier(pw)), nil, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}

	st, err := identity.NewPostgresStore(pool,
		identity.WithSchema(cfg.DBSchema),
		identity.WithVerifier(pw),
		identity.WithOpTimeout(cfg.DBOpTimeout),
	)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	if cfg.DBAutoMigrate {
		if err := st.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("db schema: %w", err)
		}
		log.Info("db.schema.ready", "schema", st.Schema())
	}

	log.Info("db.enabled.postgres_store", "schema", st.Schema())
	return st, pool, nil
}
