package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/repository"
)

type subscriptionCache struct {
	client redislib.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSubscriptionCache creates a Redis-backed cache of provider subscription snapshots.
func NewSubscriptionCache(client redislib.UniversalClient, ttl time.Duration) repository.SubscriptionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &subscriptionCache{
		client: client,
		prefix: "subscription:",
		ttl:    ttl,
	}
}

func (c *subscriptionCache) Get(ctx context.Context, userID string) (*domain.Subscription, error) {
	result, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrNoSubscription
		}
		return nil, err
	}

	var snapshot cachedSubscription
	if err := json.Unmarshal(result, &snapshot); err != nil {
		return nil, err
	}
	return snapshot.toDomain(userID), nil
}

func (c *subscriptionCache) Set(ctx context.Context, userID string, sub *domain.Subscription) error {
	if sub == nil || userID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(fromDomain(sub))
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(userID), payload, c.ttl).Err()
}

func (c *subscriptionCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

func (c *subscriptionCache) key(userID string) string {
	return fmt.Sprintf("%s%s", c.prefix, userID)
}

// cachedSubscription is the stored form; domain.Subscription hides UserID from JSON.
type cachedSubscription struct {
	ID                string      `json:"id"`
	CustomerID        string      `json:"customer_id"`
	Status            string      `json:"status"`
	PriceID           string      `json:"price_id"`
	CurrentPeriodEnd  time.Time   `json:"current_period_end"`
	CancelAtPeriodEnd bool        `json:"cancel_at_period_end"`
	Plan              domain.Plan `json:"plan"`
}

func fromDomain(sub *domain.Subscription) cachedSubscription {
	return cachedSubscription{
		ID:                sub.ID,
		CustomerID:        sub.CustomerID,
		Status:            sub.Status,
		PriceID:           sub.PriceID,
		CurrentPeriodEnd:  sub.CurrentPeriodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		Plan:              sub.Plan,
	}
}

func (c cachedSubscription) toDomain(userID string) *domain.Subscription {
	return &domain.Subscription{
		ID:                c.ID,
		CustomerID:        c.CustomerID,
		Status:            c.Status,
		PriceID:           c.PriceID,
		CurrentPeriodEnd:  c.CurrentPeriodEnd,
		CancelAtPeriodEnd: c.CancelAtPeriodEnd,
		Plan:              c.Plan,
		UserID:            userID,
	}
}
