package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/internal/billing"
	"github.com/fastygo/taskdeck/repository"
)

// Gateway is the payment provider as seen by the use cases.
type Gateway interface {
	GetSubscription(ctx context.Context, id string) (*domain.Subscription, error)
	CancelAtPeriodEnd(ctx context.Context, id string) (*domain.Subscription, error)
	CreateCheckoutSession(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	ParseWebhook(payload []byte, signature string) (*billing.Event, error)
	Plans() billing.PlanCatalog
}

// SubscriptionView is what the dashboard renders: the plan plus the live snapshot, if any.
type SubscriptionView struct {
	Plan         domain.Plan          `json:"plan"`
	Subscription *domain.Subscription `json:"subscription"`
}

type UseCase struct {
	gateway Gateway
	users   repository.UserRepository
	prefs   repository.PreferenceRepository
	cache   repository.SubscriptionCache
	appURL  string
	logger  *zap.Logger
	now     func() time.Time
}

func New(
	gateway Gateway,
	users repository.UserRepository,
	prefs repository.PreferenceRepository,
	cache repository.SubscriptionCache,
	appURL string,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		gateway: gateway,
		users:   users,
		prefs:   prefs,
		cache:   cache,
		appURL:  strings.TrimRight(appURL, "/"),
		logger:  logger,
		now:     time.Now,
	}
}

// GetSubscription serves the cached snapshot or fetches it live and reconciles the
// preference record's billing columns with what the provider reports.
func (uc *UseCase) GetSubscription(ctx context.Context, userID string) (*SubscriptionView, error) {
	prefs, err := uc.prefs.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs.StripeSubscriptionID == nil || *prefs.StripeSubscriptionID == "" {
		return &SubscriptionView{Plan: prefs.Plan}, nil
	}

	if cached, err := uc.cache.Get(ctx, userID); err == nil {
		return &SubscriptionView{Plan: cached.EffectivePlan(), Subscription: cached}, nil
	} else if !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		uc.logger.Warn("subscription cache read failed", zap.Error(err))
	}

	sub, err := uc.gateway.GetSubscription(ctx, *prefs.StripeSubscriptionID)
	if err != nil {
		return nil, err
	}
	sub.Plan = sub.EffectivePlan()
	if _, err := uc.prefs.UpdateBilling(ctx, userID, sub.BillingState()); err != nil {
		return nil, fmt.Errorf("reconcile billing state: %w", err)
	}
	if err := uc.cache.Set(ctx, userID, sub); err != nil {
		uc.logger.Warn("subscription cache write failed", zap.Error(err))
	}
	return &SubscriptionView{Plan: sub.Plan, Subscription: sub}, nil
}

// CancelSubscription schedules cancellation at the end of the current period.
func (uc *UseCase) CancelSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	prefs, err := uc.prefs.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs.StripeSubscriptionID == nil || *prefs.StripeSubscriptionID == "" {
		return nil, domain.ErrNoSubscription
	}

	sub, err := uc.gateway.CancelAtPeriodEnd(ctx, *prefs.StripeSubscriptionID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.prefs.UpdateBilling(ctx, userID, sub.BillingState()); err != nil {
		return nil, fmt.Errorf("store canceled subscription: %w", err)
	}
	uc.invalidate(ctx, userID)
	return sub, nil
}

// CreateCheckoutSession starts a subscription purchase tagged with the user's id.
func (uc *UseCase) CreateCheckoutSession(ctx context.Context, userID, priceID string) (*billing.CheckoutSession, error) {
	if !uc.gateway.Plans().Known(priceID) {
		return nil, domain.NewValidationError([]domain.FieldIssue{{Path: "priceId", Message: "Unknown price"}})
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs, err := uc.prefs.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	params := billing.CheckoutParams{
		UserID:     userID,
		Email:      user.Email,
		PriceID:    priceID,
		SuccessURL: uc.appURL + "/dashboard/billing?success=true",
		CancelURL:  uc.appURL + "/dashboard/billing?canceled=true",
	}
	if prefs.StripeCustomerID != nil {
		params.CustomerID = *prefs.StripeCustomerID
	}
	return uc.gateway.CreateCheckoutSession(ctx, params)
}

// CreatePortalSession opens the provider's self-service billing portal.
func (uc *UseCase) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	prefs, err := uc.prefs.GetOrCreate(ctx, userID)
	if err != nil {
		return "", err
	}
	if prefs.StripeCustomerID == nil || *prefs.StripeCustomerID == "" {
		return "", domain.ErrNoBillingCustomer
	}
	return uc.gateway.CreatePortalSession(ctx, *prefs.StripeCustomerID, uc.appURL+"/dashboard/billing")
}

// SyncDue refreshes subscriptions whose cached period already ended. Each row is an
// independent upsert, so a failure on one user does not stop the batch.
func (uc *UseCase) SyncDue(ctx context.Context, limit int) (int, error) {
	due, err := uc.prefs.ListBillingDue(ctx, uc.now(), limit)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, p := range due {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		sub, err := uc.gateway.GetSubscription(ctx, *p.StripeSubscriptionID)
		if err != nil {
			uc.logger.Warn("billing sync: fetch failed", zap.String("user_id", p.UserID), zap.Error(err))
			continue
		}
		if _, err := uc.prefs.UpdateBilling(ctx, p.UserID, sub.BillingState()); err != nil {
			uc.logger.Warn("billing sync: store failed", zap.String("user_id", p.UserID), zap.Error(err))
			continue
		}
		uc.invalidate(ctx, p.UserID)
		synced++
	}
	return synced, nil
}

func (uc *UseCase) invalidate(ctx context.Context, userID string) {
	if err := uc.cache.Invalidate(ctx, userID); err != nil {
		uc.logger.Warn("subscription cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}
