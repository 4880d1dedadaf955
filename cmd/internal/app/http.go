package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"nexus/cmd/identity"
	"nexus/cmd/internal/metrics"
	"nexus/cmd/internal/portal"
)

func newRouter(cfg Config, log Logger, store identity.Store, dbEnabled func() bool, ph *portal.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestLogging(log))
	r.Use(middleware.Recoverer)
	r.Use(WithSecurityHeaders)
	r.Use(portal.NoStore)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.ReadinessRequireDB && !dbEnabled() {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		if err := PingDB(r.Context(), store, 2*time.Second); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			log.Info("readyz.db.not_ready", "err", err)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	r.Handle("/metrics", metrics.Handler())

	r.Mount("/", ph.Routes())
	return r
}
