package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/internal/app"
	"github.com/fastygo/taskdeck/internal/auth"
	"github.com/fastygo/taskdeck/internal/billing"
	"github.com/fastygo/taskdeck/internal/config"
	"github.com/fastygo/taskdeck/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskdeck/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskdeck/internal/infrastructure/redis"
	"github.com/fastygo/taskdeck/internal/services"
	"github.com/fastygo/taskdeck/internal/services/lifecycle"
	"github.com/fastygo/taskdeck/pkg/logger"
	"github.com/fastygo/taskdeck/repository/memory"
	"github.com/fastygo/taskdeck/repository/postgres"
	redisRepo "github.com/fastygo/taskdeck/repository/redis"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  "taskdeck",
	})
	if err != nil {
		return fmt.Errorf("logger error: %w", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	if cfg.UsesFallbackSecret() {
		zapLogger.Warn("JWT_SECRET is not set, signing tokens with the development secret")
	}

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.SignalContext(parent)
	defer stop()

	repos, checks, err := openStorage(appCtx, cfg, manager, zapLogger)
	if err != nil {
		return err
	}

	mon := monitor.New(10*time.Second, zapLogger, checks...)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	tokens, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:   []byte(cfg.JWT.Secret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.Expiry,
	})
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}

	gateway := billing.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, billing.PlanCatalog{
		ProPriceID:        cfg.Stripe.PriceIDPro,
		EnterprisePriceID: cfg.Stripe.PriceIDEnterprise,
	})
	if cfg.Stripe.SecretKey == "" {
		zapLogger.Warn("STRIPE_SECRET_KEY is not set, billing endpoints will fail")
	}

	application := app.New(repos, app.Options{
		Tokens:         tokens,
		Gateway:        gateway,
		Monitor:        mon,
		AppURL:         cfg.AppURL,
		StorageDriver:  cfg.Storage,
		SecureCookies:  cfg.IsProduction(),
		RequestTimeout: cfg.Context.RequestTimeout,
		Logger:         zapLogger,
	})

	if cfg.Stripe.SecretKey != "" {
		syncJob, err := services.NewBillingSync(application.Billing, zapLogger, services.SyncConfig{
			Interval:  cfg.Billing.SyncInterval,
			BatchSize: cfg.Billing.SyncBatch,
		})
		if err != nil {
			return err
		}
		syncJob.Start()
		manager.Register("billing_sync", syncJob.Stop)
	}

	server := &fasthttp.Server{
		Handler:            application.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxRequestBodySize: cfg.HTTP.MaxBodySize,
		Name:               cfg.AppName,
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage),
			zap.String("env", cfg.Environment),
		)
		serveErr <- server.ListenAndServe(cfg.Address())
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	var runErr error
	select {
	case <-appCtx.Done():
	case err := <-serveErr:
		if err != nil {
			zapLogger.Error("server crashed", zap.Error(err))
			runErr = err
		}
	}

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
	return runErr
}

// openStorage connects the configured backend and registers its shutdown hooks.
func openStorage(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) (app.Repositories, []monitor.Check, error) {
	if cfg.Storage == "memory" {
		zapLogger.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return app.Repositories{
			Users:         store.Users(),
			Tasks:         store.Tasks(),
			Preferences:   store.Preferences(),
			Subscriptions: store.Subscriptions(),
		}, nil, nil
	}

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		return app.Repositories{}, nil, fmt.Errorf("migrations failed: %w", err)
	}

	pool, err := pgInfra.Connect(ctx, cfg.Database, zapLogger)
	if err != nil {
		return app.Repositories{}, nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	manager.Register("postgres", pgInfra.ShutdownHook(pool, zapLogger))

	redisClient, err := redisInfra.Connect(ctx, cfg.Redis, zapLogger)
	if err != nil {
		return app.Repositories{}, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	manager.Register("redis", redisInfra.ShutdownHook(redisClient))

	checks := []monitor.Check{pgInfra.Check(pool), redisInfra.Check(redisClient)}

	return app.Repositories{
		Users:         postgres.NewUserRepository(pool),
		Tasks:         postgres.NewTaskRepository(pool),
		Preferences:   postgres.NewPreferenceRepository(pool),
		Subscriptions: redisRepo.NewSubscriptionCache(redisClient, cfg.Billing.SnapshotTTL),
	}, checks, nil
}
