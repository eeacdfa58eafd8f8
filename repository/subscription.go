package repository

import (
	"context"

	"github.com/fastygo/taskdeck/domain"
)

// SubscriptionCache holds short-lived snapshots of provider subscriptions per user.
type SubscriptionCache interface {
	Get(ctx context.Context, userID string) (*domain.Subscription, error)
	Set(ctx context.Context, userID string, sub *domain.Subscription) error
	Invalidate(ctx context.Context, userID string) error
}
