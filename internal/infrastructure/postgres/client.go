package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/internal/config"
	"github.com/fastygo/taskdeck/internal/infrastructure/monitor"
	"github.com/fastygo/taskdeck/internal/services/lifecycle"
)

const (
	applicationName = "taskdeck"
	connectTimeout  = 5 * time.Second
)

// PoolConfig turns the database settings into a pgxpool config without dialing.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is empty")
	}
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pc.ConnConfig.RuntimeParams["application_name"] = applicationName
	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = int32(cfg.MaxOpenConns)
	}
	// MinConns above MaxConns makes pgxpool refuse the config.
	if cfg.MaxIdleConns > 0 && int32(cfg.MaxIdleConns) <= pc.MaxConns {
		pc.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	return pc, nil
}

// Connect opens the task store pool and fails fast when the server is unreachable.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("task store connected",
		zap.String("host", pc.ConnConfig.Host),
		zap.String("database", pc.ConnConfig.Database),
		zap.Int32("max_conns", pc.MaxConns),
		zap.Int32("min_conns", pc.MinConns),
	)
	return pool, nil
}

// Check exposes the pool to the connection monitor.
func Check(pool *pgxpool.Pool) monitor.Check {
	return monitor.Check{Name: "postgresql", Ping: pool.Ping}
}

// ShutdownHook closes the pool once in-flight requests have drained.
func ShutdownHook(pool *pgxpool.Pool, logger *zap.Logger) lifecycle.ShutdownFunc {
	return func(context.Context) error {
		stat := pool.Stat()
		pool.Close()
		if logger != nil {
			logger.Info("task store closed", zap.Int32("acquired_conns", stat.AcquiredConns()))
		}
		return nil
	}
}
