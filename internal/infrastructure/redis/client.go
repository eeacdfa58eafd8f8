package redis

import (
	"context"
	"fmt"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/internal/config"
	"github.com/fastygo/taskdeck/internal/infrastructure/monitor"
	"github.com/fastygo/taskdeck/internal/services/lifecycle"
)

const (
	clientName   = "taskdeck"
	checkTimeout = 2 * time.Second
)

// Options resolves REDIS_URL plus the explicit overrides.
func Options(cfg config.RedisConfig) (*goRedis.Options, error) {
	opts, err := goRedis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	opts.ClientName = clientName
	return opts, nil
}

// Connect returns a client for the subscription snapshot cache.
func Connect(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*goRedis.Client, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	client := goRedis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	if logger != nil {
		logger.Info("snapshot cache connected", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	}
	return client, nil
}

func Check(client *goRedis.Client) monitor.Check {
	return monitor.Check{
		Name:    "redis",
		Timeout: checkTimeout,
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

func ShutdownHook(client *goRedis.Client) lifecycle.ShutdownFunc {
	return func(context.Context) error {
		return client.Close()
	}
}
