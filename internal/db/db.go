package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatlens/internal/config"
)

// NewPool builds and returns a configured connection pool. Pool sizing and
// acquisition timeout follow spec.md §5's shared-resource policy
// (bounded pool, connection lifetime, acquisition timeout).
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	maxConns := cfg.PoolSize
	if maxConns <= 0 {
		maxConns = 100
	}
	lifetime := time.Duration(cfg.PoolLifetimeS) * time.Second
	if lifetime <= 0 {
		lifetime = 300 * time.Second
	}
	acquireTimeout := time.Duration(cfg.PoolAcquisitionTimeoutS) * time.Second
	if acquireTimeout <= 0 {
		acquireTimeout = 60 * time.Second
	}

	poolCfg.MaxConns = int32(maxConns)
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = lifetime
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = acquireTimeout

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping checks database connectivity.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}
