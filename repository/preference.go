package repository

import (
	"context"
	"time"

	"github.com/fastygo/taskdeck/domain"
)

// PreferenceRepository keeps at most one row per user. Writes are single upsert statements.
type PreferenceRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Preferences, error)
	// GetOrCreate inserts the defaults when no row exists and returns the stored row.
	GetOrCreate(ctx context.Context, userID string) (*domain.Preferences, error)
	// Upsert merges the user-editable patch; billing columns are never written.
	Upsert(ctx context.Context, userID string, patch domain.PreferencesPatch) (*domain.Preferences, error)
	// UpdateBilling writes billing columns only, creating the row if needed.
	UpdateBilling(ctx context.Context, userID string, state domain.BillingState) (*domain.Preferences, error)
	// ListBillingDue returns rows with a subscription whose cached period end is before the cutoff.
	ListBillingDue(ctx context.Context, cutoff time.Time, limit int) ([]domain.Preferences, error)
	DeleteByUserID(ctx context.Context, userID string) error
}
