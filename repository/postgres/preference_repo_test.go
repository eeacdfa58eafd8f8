package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskdeck/domain"
)

var prefCols = []string{
	"id", "user_id", "theme", "language", "timezone", "default_task_status",
	"email_notifications", "task_reminders", "weekly_digest", "push_notifications", "plan",
	"stripe_customer_id", "stripe_subscription_id", "stripe_subscription_status", "stripe_price_id",
	"stripe_current_period_end", "created_at", "updated_at",
}

func prefRow(rows *pgxmock.Rows, userID, plan string, subID *string, now time.Time) *pgxmock.Rows {
	return rows.AddRow(
		"p1", userID, "system", "en", (*string)(nil), "todo",
		true, true, false, false, plan,
		(*string)(nil), subID, (*string)(nil), (*string)(nil),
		(*time.Time)(nil), now, now,
	)
}

func TestPreferenceRepository_GetOrCreate(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	repo := NewPreferenceRepository(mock)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	defaultArgs := []any{pgxmock.AnyArg(), "u1", "system", "en", "todo", true, true, false, false, "free"}
	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id`)).
		WithArgs(defaultArgs...).
		WillReturnRows(prefRow(pgxmock.NewRows(prefCols), "u1", "free", nil, now))
	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id`)).
		WithArgs(defaultArgs...).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	prefs, err := repo.GetOrCreate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusTodo, prefs.DefaultTaskStatus)
	assert.Equal(t, domain.PlanFree, prefs.Plan)
	assert.True(t, prefs.EmailNotifications)

	_, err = repo.GetOrCreate(context.Background(), "u1")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestPreferenceRepository_ListBillingDue(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	repo := NewPreferenceRepository(mock)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	sub := "sub_1"

	mock.ExpectQuery(regexp.QuoteMeta(`stripe_current_period_end < $1`)).
		WithArgs(now, 100).
		WillReturnRows(prefRow(pgxmock.NewRows(prefCols), "u1", "pro", &sub, now))

	due, err := repo.ListBillingDue(context.Background(), now, 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, domain.PlanPro, due[0].Plan)
	require.NotNil(t, due[0].StripeSubscriptionID)
	assert.Equal(t, "sub_1", *due[0].StripeSubscriptionID)
}

func TestPreferenceRepository_UpsertTouchesOnlyUserFields(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	repo := NewPreferenceRepository(mock)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	theme := "dark"
	emails := false

	// The conflict branch may only COALESCE user-editable columns; plan and stripe_* stay put.
	userSet := `DO UPDATE SET theme = COALESCE\(\$12, user_preferences\.theme\),` +
		`( (language|timezone|default_task_status|email_notifications|task_reminders|weekly_digest|push_notifications)` +
		` = COALESCE\(\$\d+, user_preferences\.\w+\),)+ updated_at = NOW\(\) RETURNING`

	mock.ExpectQuery(userSet).
		WithArgs(
			pgxmock.AnyArg(), "u1",
			"dark", "en", (*string)(nil), "todo", false, true, false, false, "free",
			&theme, (*string)(nil), (*string)(nil), (*string)(nil),
			&emails, (*bool)(nil), (*bool)(nil), (*bool)(nil),
		).
		WillReturnRows(prefRow(pgxmock.NewRows(prefCols), "u1", "pro", nil, now))

	prefs, err := repo.Upsert(context.Background(), "u1", domain.PreferencesPatch{Theme: &theme, EmailNotifications: &emails})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPro, prefs.Plan)
}

func TestPreferenceRepository_UpdateBillingTouchesOnlyBillingColumns(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	repo := NewPreferenceRepository(mock)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	sub, status := "sub_1", "canceled"

	billingSet := `DO UPDATE SET plan = EXCLUDED\.plan,` +
		`( stripe_\w+ = COALESCE\(EXCLUDED\.stripe_\w+, user_preferences\.stripe_\w+\),)+` +
		` updated_at = NOW\(\) RETURNING`

	mock.ExpectQuery(billingSet).
		WithArgs(
			pgxmock.AnyArg(), "u1",
			"system", "en", "todo", true, true, false, false, "free",
			(*string)(nil), &sub, &status, (*string)(nil), (*time.Time)(nil),
		).
		WillReturnRows(prefRow(pgxmock.NewRows(prefCols), "u1", "free", &sub, now))

	prefs, err := repo.UpdateBilling(context.Background(), "u1", domain.BillingState{
		SubscriptionID:     &sub,
		SubscriptionStatus: &status,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, prefs.Plan)
	require.NotNil(t, prefs.StripeSubscriptionID)
	assert.Equal(t, "sub_1", *prefs.StripeSubscriptionID)
}
