package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/repository"
)

const preferenceColumns = `id, user_id, theme, language, timezone, default_task_status,
	email_notifications, task_reminders, weekly_digest, push_notifications, plan,
	stripe_customer_id, stripe_subscription_id, stripe_subscription_status, stripe_price_id,
	stripe_current_period_end, created_at, updated_at`

type preferenceRepository struct {
	db DB
}

// NewPreferenceRepository returns a Postgres-backed PreferenceRepository.
func NewPreferenceRepository(db DB) repository.PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) GetByUserID(ctx context.Context, userID string) (*domain.Preferences, error) {
	query := `SELECT ` + preferenceColumns + ` FROM user_preferences WHERE user_id = $1`
	return scanPreferences(r.db.QueryRow(ctx, query, userID))
}

func (r *preferenceRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Preferences, error) {
	defaults := domain.DefaultPreferences(userID)

	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
	INSERT INTO user_preferences (id, user_id, theme, language, default_task_status,
		email_notifications, task_reminders, weekly_digest, push_notifications, plan)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	RETURNING ` + preferenceColumns

	prefs, err := scanPreferences(r.db.QueryRow(ctx, query,
		uuid.NewString(),
		userID,
		defaults.Theme,
		defaults.Language,
		string(defaults.DefaultTaskStatus),
		defaults.EmailNotifications,
		defaults.TaskReminders,
		defaults.WeeklyDigest,
		defaults.PushNotifications,
		string(defaults.Plan),
	))
	if err != nil {
		return nil, classifyWrite("get or create preferences", err)
	}
	return prefs, nil
}

func (r *preferenceRepository) Upsert(ctx context.Context, userID string, patch domain.PreferencesPatch) (*domain.Preferences, error) {
	merged := domain.DefaultPreferences(userID)
	patch.Apply(&merged)

	var defaultStatus *string
	if patch.DefaultTaskStatus != nil {
		s := string(*patch.DefaultTaskStatus)
		defaultStatus = &s
	}

	query := `
	INSERT INTO user_preferences (id, user_id, theme, language, timezone, default_task_status,
		email_notifications, task_reminders, weekly_digest, push_notifications, plan)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (user_id) DO UPDATE
	SET theme = COALESCE($12, user_preferences.theme),
		language = COALESCE($13, user_preferences.language),
		timezone = COALESCE($14, user_preferences.timezone),
		default_task_status = COALESCE($15, user_preferences.default_task_status),
		email_notifications = COALESCE($16, user_preferences.email_notifications),
		task_reminders = COALESCE($17, user_preferences.task_reminders),
		weekly_digest = COALESCE($18, user_preferences.weekly_digest),
		push_notifications = COALESCE($19, user_preferences.push_notifications),
		updated_at = NOW()
	RETURNING ` + preferenceColumns

	prefs, err := scanPreferences(r.db.QueryRow(ctx, query,
		uuid.NewString(),
		userID,
		merged.Theme,
		merged.Language,
		merged.Timezone,
		string(merged.DefaultTaskStatus),
		merged.EmailNotifications,
		merged.TaskReminders,
		merged.WeeklyDigest,
		merged.PushNotifications,
		string(merged.Plan),
		patch.Theme,
		patch.Language,
		patch.Timezone,
		defaultStatus,
		patch.EmailNotifications,
		patch.TaskReminders,
		patch.WeeklyDigest,
		patch.PushNotifications,
	))
	if err != nil {
		return nil, classifyWrite("upsert preferences", err)
	}
	return prefs, nil
}

func (r *preferenceRepository) UpdateBilling(ctx context.Context, userID string, state domain.BillingState) (*domain.Preferences, error) {
	defaults := domain.DefaultPreferences(userID)

	query := `
	INSERT INTO user_preferences (id, user_id, theme, language, default_task_status,
		email_notifications, task_reminders, weekly_digest, push_notifications, plan,
		stripe_customer_id, stripe_subscription_id, stripe_subscription_status, stripe_price_id,
		stripe_current_period_end)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (user_id) DO UPDATE
	SET plan = EXCLUDED.plan,
		stripe_customer_id = COALESCE(EXCLUDED.stripe_customer_id, user_preferences.stripe_customer_id),
		stripe_subscription_id = COALESCE(EXCLUDED.stripe_subscription_id, user_preferences.stripe_subscription_id),
		stripe_subscription_status = COALESCE(EXCLUDED.stripe_subscription_status, user_preferences.stripe_subscription_status),
		stripe_price_id = COALESCE(EXCLUDED.stripe_price_id, user_preferences.stripe_price_id),
		stripe_current_period_end = COALESCE(EXCLUDED.stripe_current_period_end, user_preferences.stripe_current_period_end),
		updated_at = NOW()
	RETURNING ` + preferenceColumns

	plan := state.Plan
	if plan == "" {
		plan = domain.PlanFree
	}

	prefs, err := scanPreferences(r.db.QueryRow(ctx, query,
		uuid.NewString(),
		userID,
		defaults.Theme,
		defaults.Language,
		string(defaults.DefaultTaskStatus),
		defaults.EmailNotifications,
		defaults.TaskReminders,
		defaults.WeeklyDigest,
		defaults.PushNotifications,
		string(plan),
		state.CustomerID,
		state.SubscriptionID,
		state.SubscriptionStatus,
		state.PriceID,
		state.CurrentPeriodEnd,
	))
	if err != nil {
		return nil, classifyWrite("update billing state", err)
	}
	return prefs, nil
}

func (r *preferenceRepository) ListBillingDue(ctx context.Context, cutoff time.Time, limit int) ([]domain.Preferences, error) {
	query := `
	SELECT ` + preferenceColumns + `
	FROM user_preferences
	WHERE stripe_subscription_id IS NOT NULL
	  AND stripe_current_period_end < $1
	  AND COALESCE(stripe_subscription_status, '') <> 'canceled'
	ORDER BY stripe_current_period_end ASC
	LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, cutoff, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list billing due: %w", err)
	}
	defer rows.Close()

	var out []domain.Preferences
	for rows.Next() {
		prefs, err := scanPreferences(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *prefs)
	}
	return out, rows.Err()
}

func (r *preferenceRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM user_preferences WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete preferences: %w", err)
	}
	return nil
}

// classifyWrite turns a lost insert race into a retryable conflict.
func classifyWrite(op string, err error) error {
	if isUniqueViolation(err) {
		return domain.WrapError(domain.ErrCodeConflict, op, err)
	}
	if errors.Is(err, domain.ErrPreferencesNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanPreferences(row scanner) (*domain.Preferences, error) {
	var (
		prefs         domain.Preferences
		defaultStatus string
		plan          string
	)

	if err := row.Scan(
		&prefs.ID,
		&prefs.UserID,
		&prefs.Theme,
		&prefs.Language,
		&prefs.Timezone,
		&defaultStatus,
		&prefs.EmailNotifications,
		&prefs.TaskReminders,
		&prefs.WeeklyDigest,
		&prefs.PushNotifications,
		&plan,
		&prefs.StripeCustomerID,
		&prefs.StripeSubscriptionID,
		&prefs.StripeSubscriptionStatus,
		&prefs.StripePriceID,
		&prefs.StripeCurrentPeriodEnd,
		&prefs.CreatedAt,
		&prefs.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPreferencesNotFound
		}
		return nil, err
	}

	prefs.DefaultTaskStatus = domain.TaskStatus(defaultStatus)
	prefs.Plan = domain.Plan(plan)
	return &prefs, nil
}
