package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BillingSyncer refreshes subscriptions whose cached billing period has ended.
type BillingSyncer interface {
	SyncDue(ctx context.Context, limit int) (int, error)
}

// SyncConfig controls how often due subscriptions are refreshed.
type SyncConfig struct {
	Interval  time.Duration
	BatchSize int
}

// BillingSync periodically reconciles stored billing state with the provider.
// Webhooks stay the primary path; this catches deliveries that never arrived.
type BillingSync struct {
	syncer  BillingSyncer
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     SyncConfig
	running atomic.Bool
}

func NewBillingSync(syncer BillingSyncer, logger *zap.Logger, cfg SyncConfig) (*BillingSync, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bs := &BillingSync{
		syncer: syncer,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := bs.cron.AddFunc(schedule, bs.tick); err != nil {
		return nil, fmt.Errorf("schedule billing sync: %w", err)
	}
	return bs, nil
}

// Start launches the cron scheduler.
func (bs *BillingSync) Start() {
	if bs == nil || bs.cron == nil {
		return
	}
	bs.cron.Start()
	bs.logger.Info("billing sync started", zap.Duration("interval", bs.cfg.Interval))
}

// Stop waits for a running sync to finish or ctx to expire.
func (bs *BillingSync) Stop(ctx context.Context) error {
	if bs == nil || bs.cron == nil {
		return nil
	}
	stopCtx := bs.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	bs.logger.Info("billing sync stopped")
	return nil
}

// RunOnce performs one sync pass synchronously. Overlapping passes are skipped.
func (bs *BillingSync) RunOnce(ctx context.Context) (int, error) {
	if !bs.running.CompareAndSwap(false, true) {
		bs.logger.Debug("billing sync already running, skipping")
		return 0, nil
	}
	defer bs.running.Store(false)

	synced, err := bs.syncer.SyncDue(ctx, bs.cfg.BatchSize)
	if err != nil {
		return synced, err
	}
	if synced > 0 {
		bs.logger.Info("billing sync pass complete", zap.Int("synced", synced))
	}
	return synced, nil
}

func (bs *BillingSync) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), bs.cfg.Interval)
	defer cancel()
	if _, err := bs.RunOnce(ctx); err != nil {
		bs.logger.Error("billing sync failed", zap.Error(err))
	}
}
