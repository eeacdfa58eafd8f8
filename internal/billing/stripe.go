package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/fastygo/taskdeck/domain"
)

// ErrNotConfigured is returned by every call when no secret key was supplied.
var ErrNotConfigured = domain.NewError(domain.ErrCodeUpstream, "billing is not configured")

// StripeGateway talks to Stripe. It holds no per-request state.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	plans         PlanCatalog
}

func NewStripeGateway(secretKey, webhookSecret string, plans PlanCatalog) *StripeGateway {
	g := &StripeGateway{webhookSecret: webhookSecret, plans: plans}
	if secretKey != "" {
		g.api = &client.API{}
		g.api.Init(secretKey, nil)
	}
	return g
}

func (g *StripeGateway) Plans() PlanCatalog {
	return g.plans
}

func (g *StripeGateway) GetSubscription(ctx context.Context, id string) (*domain.Subscription, error) {
	if g.api == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := g.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, upstream("fetch subscription", err)
	}
	return g.toDomain(sub), nil
}

func (g *StripeGateway) CancelAtPeriodEnd(ctx context.Context, id string) (*domain.Subscription, error) {
	if g.api == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx
	sub, err := g.api.Subscriptions.Update(id, params)
	if err != nil {
		return nil, upstream("cancel subscription", err)
	}
	return g.toDomain(sub), nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, in CheckoutParams) (*CheckoutSession, error) {
	if g.api == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(in.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(in.SuccessURL),
		CancelURL:         stripe.String(in.CancelURL),
		ClientReferenceID: stripe.String(in.UserID),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{MetadataUserID: in.UserID},
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataUserID, in.UserID)
	if in.CustomerID != "" {
		params.Customer = stripe.String(in.CustomerID)
	} else if in.Email != "" {
		params.CustomerEmail = stripe.String(in.Email)
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, upstream("create checkout session", err)
	}
	return toCheckoutSession(sess), nil
}

func (g *StripeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if g.api == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	sess, err := g.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", upstream("create portal session", err)
	}
	return sess.URL, nil
}

// ParseWebhook verifies the signature before decoding anything.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, errors.New("webhook secret is not configured")
	}
	raw, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}

	event := &Event{ID: raw.ID, Type: string(raw.Type)}
	if raw.Data == nil {
		return event, nil
	}

	switch event.Type {
	case EventCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(raw.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		event.CheckoutSession = toCheckoutSession(&sess)
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(raw.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		event.Subscription = g.toDomain(&sub)
	}
	return event, nil
}

func (g *StripeGateway) toDomain(sub *stripe.Subscription) *domain.Subscription {
	out := &domain.Subscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		UserID:            sub.Metadata[MetadataUserID],
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			out.PriceID = item.Price.ID
		}
		if item.CurrentPeriodEnd > 0 {
			out.CurrentPeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
		}
	}
	out.Plan = g.plans.PlanFor(out.PriceID, out.Status)
	return out
}

func toCheckoutSession(sess *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:     sess.ID,
		URL:    sess.URL,
		UserID: sess.Metadata[MetadataUserID],
	}
	if out.UserID == "" {
		out.UserID = sess.ClientReferenceID
	}
	if sess.Customer != nil {
		out.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		out.SubscriptionID = sess.Subscription.ID
	}
	return out
}

func upstream(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 {
		if stripeErr.HTTPStatusCode == 404 {
			return domain.WrapError(domain.ErrCodeNotFound, op, err)
		}
		return domain.WrapError(domain.ErrCodeInvalid, op, err)
	}
	return domain.WrapError(domain.ErrCodeUpstream, op, err)
}
