package domain

import "time"

// Theme values accepted for Preferences.Theme.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// Preferences is the single per-user settings row. It also caches the user's billing state.
type Preferences struct {
	ID                       string     `json:"id"`
	UserID                   string     `json:"userId"`
	Theme                    string     `json:"theme"`
	Language                 string     `json:"language"`
	Timezone                 *string    `json:"timezone,omitempty"`
	DefaultTaskStatus        TaskStatus `json:"defaultTaskStatus"`
	EmailNotifications       bool       `json:"emailNotifications"`
	TaskReminders            bool       `json:"taskReminders"`
	WeeklyDigest             bool       `json:"weeklyDigest"`
	PushNotifications        bool       `json:"pushNotifications"`
	Plan                     Plan       `json:"plan"`
	StripeCustomerID         *string    `json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID     *string    `json:"stripeSubscriptionId,omitempty"`
	StripeSubscriptionStatus *string    `json:"stripeSubscriptionStatus,omitempty"`
	StripePriceID            *string    `json:"stripePriceId,omitempty"`
	StripeCurrentPeriodEnd   *time.Time `json:"stripeCurrentPeriodEnd,omitempty"`
	CreatedAt                time.Time  `json:"createdAt"`
	UpdatedAt                time.Time  `json:"updatedAt"`
}

// DefaultPreferences returns the record a user gets on first access.
func DefaultPreferences(userID string) Preferences {
	return Preferences{
		UserID:             userID,
		Theme:              ThemeSystem,
		Language:           "en",
		DefaultTaskStatus:  TaskStatusTodo,
		EmailNotifications: true,
		TaskReminders:      true,
		WeeklyDigest:       false,
		PushNotifications:  false,
		Plan:               PlanFree,
	}
}

// PreferencesPatch holds user-editable fields. Nil means unchanged.
type PreferencesPatch struct {
	Theme              *string
	Language           *string
	Timezone           *string
	DefaultTaskStatus  *TaskStatus
	EmailNotifications *bool
	TaskReminders      *bool
	WeeklyDigest       *bool
	PushNotifications  *bool
}

// Apply merges the patch onto p without touching billing fields.
func (patch PreferencesPatch) Apply(p *Preferences) {
	if p == nil {
		return
	}
	if patch.Theme != nil {
		p.Theme = *patch.Theme
	}
	if patch.Language != nil {
		p.Language = *patch.Language
	}
	if patch.Timezone != nil {
		tz := *patch.Timezone
		p.Timezone = &tz
	}
	if patch.DefaultTaskStatus != nil {
		p.DefaultTaskStatus = *patch.DefaultTaskStatus
	}
	if patch.EmailNotifications != nil {
		p.EmailNotifications = *patch.EmailNotifications
	}
	if patch.TaskReminders != nil {
		p.TaskReminders = *patch.TaskReminders
	}
	if patch.WeeklyDigest != nil {
		p.WeeklyDigest = *patch.WeeklyDigest
	}
	if patch.PushNotifications != nil {
		p.PushNotifications = *patch.PushNotifications
	}
}

// BillingState is the set of columns owned by the billing reconciler. Nil pointers leave
// the stored column unchanged.
type BillingState struct {
	Plan               Plan
	CustomerID         *string
	SubscriptionID     *string
	SubscriptionStatus *string
	PriceID            *string
	CurrentPeriodEnd   *time.Time
}

// Apply writes the billing columns onto p.
func (b BillingState) Apply(p *Preferences) {
	if p == nil {
		return
	}
	p.Plan = b.Plan
	if b.CustomerID != nil {
		p.StripeCustomerID = b.CustomerID
	}
	if b.SubscriptionID != nil {
		p.StripeSubscriptionID = b.SubscriptionID
	}
	if b.SubscriptionStatus != nil {
		p.StripeSubscriptionStatus = b.SubscriptionStatus
	}
	if b.PriceID != nil {
		p.StripePriceID = b.PriceID
	}
	if b.CurrentPeriodEnd != nil {
		p.StripeCurrentPeriodEnd = b.CurrentPeriodEnd
	}
}
