// Package billing adapts the payment provider to the domain: plan tiers, checkout
// and portal sessions, live subscriptions and verified webhook events.
package billing

import (
	"github.com/fastygo/taskdeck/domain"
)

// Event types the reconciler understands. Anything else is acknowledged and ignored.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded  = "invoice.payment_succeeded"
	EventInvoicePaymentFailed     = "invoice.payment_failed"
)

// MetadataUserID is the metadata key that links provider objects back to a user.
const MetadataUserID = "userId"

// Event is a signature-verified provider event with its payload already decoded.
type Event struct {
	ID              string
	Type            string
	CheckoutSession *CheckoutSession
	Subscription    *domain.Subscription
}

// CheckoutSession is the part of a completed checkout the reconciler needs.
type CheckoutSession struct {
	ID             string
	URL            string
	UserID         string
	CustomerID     string
	SubscriptionID string
}

// CheckoutParams describes a subscription checkout for one user.
type CheckoutParams struct {
	UserID     string
	Email      string
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// PlanCatalog maps provider price ids to plan tiers.
type PlanCatalog struct {
	ProPriceID        string
	EnterprisePriceID string
}

// PlanFor returns the tier a subscription on priceID grants while in status.
// Unknown prices and ended subscriptions fall back to free.
func (c PlanCatalog) PlanFor(priceID, status string) domain.Plan {
	switch {
	case priceID == "", domain.SubscriptionEnded(status):
		return domain.PlanFree
	case priceID == c.ProPriceID:
		return domain.PlanPro
	case priceID == c.EnterprisePriceID:
		return domain.PlanEnterprise
	default:
		return domain.PlanFree
	}
}

// Known reports whether priceID is one of the sellable prices.
func (c PlanCatalog) Known(priceID string) bool {
	return priceID != "" && (priceID == c.ProPriceID || priceID == c.EnterprisePriceID)
}
