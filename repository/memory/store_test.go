package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/repository"
)

func TestUsers_EmailIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	users := NewStore().Users()
	ctx := context.Background()

	created, err := users.Create(ctx, &domain.User{Email: "Ann@Example.com"})
	require.NoError(t, err)

	_, err = users.Create(ctx, &domain.User{Email: "ann@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	found, err := users.GetByEmail(ctx, "ANN@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestTasks_WritesAreOwnerScoped(t *testing.T) {
	t.Parallel()
	store := NewStore()
	ctx := context.Background()
	owner, err := store.Users().Create(ctx, &domain.User{Email: "a@b.com"})
	require.NoError(t, err)

	_, err = store.Tasks().Create(ctx, &domain.Task{UserID: "ghost", Title: "orphan"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	task, err := store.Tasks().Create(ctx, &domain.Task{UserID: owner.ID, Title: "mine", Status: domain.TaskStatusTodo})
	require.NoError(t, err)

	title := "stolen"
	_, err = store.Tasks().Update(ctx, task.ID, "other", domain.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.ErrorIs(t, store.Tasks().Delete(ctx, task.ID, "other"), domain.ErrTaskNotFound)

	tasks, err := store.Tasks().List(ctx, repository.TaskFilter{UserID: owner.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "mine", tasks[0].Title)
}

func TestPreferences_ListBillingDue(t *testing.T) {
	t.Parallel()
	prefs := NewStore().Preferences()
	ctx := context.Background()
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	set := func(userID, subID string, end time.Time, status string) {
		_, err := prefs.UpdateBilling(ctx, userID, domain.BillingState{
			Plan:               domain.PlanPro,
			SubscriptionID:     &subID,
			SubscriptionStatus: &status,
			CurrentPeriodEnd:   &end,
		})
		require.NoError(t, err)
	}
	set("late", "sub_late", cutoff.Add(-48*time.Hour), "active")
	set("later", "sub_later", cutoff.Add(-24*time.Hour), "past_due")
	set("current", "sub_current", cutoff.Add(24*time.Hour), "active")
	set("gone", "sub_gone", cutoff.Add(-72*time.Hour), domain.SubscriptionStatusCanceled)
	_, err := prefs.GetOrCreate(ctx, "free")
	require.NoError(t, err)

	due, err := prefs.ListBillingDue(ctx, cutoff, 0)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "late", due[0].UserID)
	assert.Equal(t, "later", due[1].UserID)

	due, err = prefs.ListBillingDue(ctx, cutoff, 1)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestPreferences_UpsertKeepsBilling(t *testing.T) {
	t.Parallel()
	prefs := NewStore().Preferences()
	ctx := context.Background()

	customer := "cus_1"
	_, err := prefs.UpdateBilling(ctx, "u1", domain.BillingState{CustomerID: &customer})
	require.NoError(t, err)

	lang := "de"
	updated, err := prefs.Upsert(ctx, "u1", domain.PreferencesPatch{Language: &lang})
	require.NoError(t, err)
	assert.Equal(t, "de", updated.Language)
	assert.Equal(t, domain.PlanFree, updated.Plan)
	require.NotNil(t, updated.StripeCustomerID)
	assert.Equal(t, "cus_1", *updated.StripeCustomerID)
}
