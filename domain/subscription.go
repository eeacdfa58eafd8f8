package domain

import "time"

// Plan is the product tier derived from a billing price.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Provider statuses after which a subscription grants nothing.
const (
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusUnpaid            = "unpaid"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
)

// SubscriptionEnded reports whether status is terminal. An ended subscription still
// carries its last price, so the plan must not be derived from the price alone.
func SubscriptionEnded(status string) bool {
	switch status {
	case SubscriptionStatusCanceled, SubscriptionStatusUnpaid, SubscriptionStatusIncompleteExpired:
		return true
	}
	return false
}

// Subscription is a live view of the billing provider's subscription object.
type Subscription struct {
	ID                string    `json:"id"`
	CustomerID        string    `json:"customerId"`
	Status            string    `json:"status"`
	PriceID           string    `json:"priceId"`
	CurrentPeriodEnd  time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd bool      `json:"cancelAtPeriodEnd"`
	Plan              Plan      `json:"plan"`
	UserID            string    `json:"-"`
}

// EffectivePlan is Plan, or free once the subscription has ended.
func (s *Subscription) EffectivePlan() Plan {
	if s.Plan == "" || SubscriptionEnded(s.Status) {
		return PlanFree
	}
	return s.Plan
}

// BillingState converts the snapshot into the columns cached on Preferences.
func (s *Subscription) BillingState() BillingState {
	id, status, price, customer := s.ID, s.Status, s.PriceID, s.CustomerID
	state := BillingState{
		Plan:               s.EffectivePlan(),
		SubscriptionID:     &id,
		SubscriptionStatus: &status,
		PriceID:            &price,
	}
	if customer != "" {
		state.CustomerID = &customer
	}
	if !s.CurrentPeriodEnd.IsZero() {
		end := s.CurrentPeriodEnd
		state.CurrentPeriodEnd = &end
	}
	return state
}

// CanceledBillingState resets a user to the free tier.
func CanceledBillingState() BillingState {
	status := SubscriptionStatusCanceled
	return BillingState{
		Plan:               PlanFree,
		SubscriptionStatus: &status,
	}
}
