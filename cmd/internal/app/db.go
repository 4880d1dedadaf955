package app

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"nexus/cmd/internal/metrics"
)

// NewDBPool builds a pgxpool and validates connectivity.
// Schema creation is done by identity.PostgresStore.EnsureSchema.
func NewDBPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if cfg.DBMaxConns > 0 {
		pcfg.MaxConns = cfg.DBMaxConns
	}
	if cfg.DBMinConns >= 0 && cfg.DBMinConns <= pcfg.MaxConns {
		pcfg.MinConns = cfg.DBMinConns
	}
	if cfg.DBOpTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.DBOpTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	if err := PingDB(ctx, pool, 3*time.Second); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// Pinger is satisfied by *pgxpool.Pool and identity.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingDB checks the database answers within timeout and records the latency.
func PingDB(parent context.Context, db Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	err := db.Ping(ctx)
	metrics.ObserveDBPing(time.Since(start))
	return err
}
