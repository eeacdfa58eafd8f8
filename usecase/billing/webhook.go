package billing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/internal/billing"
)

// ErrInvalidSignature is returned when a payload fails provider verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// HandleWebhook verifies the payload signature and reconciles the event. Nothing is
// written when verification fails.
func (uc *UseCase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := uc.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return uc.Reconcile(ctx, event)
}

// Reconcile applies one verified event. Every arm is a keyed upsert, so a
// redelivered event converges to the same record.
func (uc *UseCase) Reconcile(ctx context.Context, event *billing.Event) error {
	if event == nil {
		return domain.ErrInvalidPayload
	}
	log := uc.logger.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	switch event.Type {
	case billing.EventCheckoutSessionCompleted:
		return uc.onCheckoutCompleted(ctx, log, event.CheckoutSession)
	case billing.EventSubscriptionUpdated:
		return uc.onSubscriptionUpdated(ctx, log, event.Subscription)
	case billing.EventSubscriptionDeleted:
		return uc.onSubscriptionDeleted(ctx, log, event.Subscription)
	case billing.EventInvoicePaymentSucceeded, billing.EventInvoicePaymentFailed:
		log.Info("invoice event acknowledged")
		return nil
	default:
		log.Debug("unhandled webhook event type")
		return nil
	}
}

func (uc *UseCase) onCheckoutCompleted(ctx context.Context, log *zap.Logger, sess *billing.CheckoutSession) error {
	if sess == nil || sess.UserID == "" {
		return domain.NewError(domain.ErrCodeInvalid, "checkout session has no user id")
	}
	if sess.SubscriptionID == "" {
		log.Info("checkout completed without subscription", zap.String("user_id", sess.UserID))
		return nil
	}

	sub, err := uc.gateway.GetSubscription(ctx, sess.SubscriptionID)
	if err != nil {
		return fmt.Errorf("fetch subscription %s: %w", sess.SubscriptionID, err)
	}

	state := sub.BillingState()
	if sess.CustomerID != "" {
		customer := sess.CustomerID
		state.CustomerID = &customer
	}
	return uc.applyBilling(ctx, log, sess.UserID, state)
}

func (uc *UseCase) onSubscriptionUpdated(ctx context.Context, log *zap.Logger, sub *domain.Subscription) error {
	if sub == nil || sub.UserID == "" {
		log.Warn("subscription has no user id metadata, skipping")
		return nil
	}
	return uc.applyBilling(ctx, log, sub.UserID, sub.BillingState())
}

func (uc *UseCase) onSubscriptionDeleted(ctx context.Context, log *zap.Logger, sub *domain.Subscription) error {
	if sub == nil || sub.UserID == "" {
		log.Warn("deleted subscription has no user id metadata, skipping")
		return nil
	}
	return uc.applyBilling(ctx, log, sub.UserID, domain.CanceledBillingState())
}

func (uc *UseCase) applyBilling(ctx context.Context, log *zap.Logger, userID string, state domain.BillingState) error {
	if _, err := uc.prefs.UpdateBilling(ctx, userID, state); err != nil {
		return fmt.Errorf("update billing state: %w", err)
	}
	uc.invalidate(ctx, userID)
	log.Info("billing state reconciled", zap.String("user_id", userID), zap.String("plan", string(state.Plan)))
	return nil
}
