package preference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/repository"
	"github.com/fastygo/taskdeck/repository/memory"
)

// racyPrefs fails the first n writes with a conflict, as a lost first-insert race would.
type racyPrefs struct {
	repository.PreferenceRepository
	conflicts int
	calls     int
}

func (r *racyPrefs) GetOrCreate(ctx context.Context, userID string) (*domain.Preferences, error) {
	r.calls++
	if r.calls <= r.conflicts {
		return nil, domain.ErrDuplicate
	}
	return r.PreferenceRepository.GetOrCreate(ctx, userID)
}

func TestGet_CreatesDefaults(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	uc := New(store.Preferences(), nil)

	first, err := uc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeSystem, first.Theme)
	assert.Equal(t, "en", first.Language)
	assert.Equal(t, domain.TaskStatusTodo, first.DefaultTaskStatus)
	assert.True(t, first.EmailNotifications)
	assert.True(t, first.TaskReminders)
	assert.False(t, first.WeeklyDigest)
	assert.False(t, first.PushNotifications)
	assert.Equal(t, domain.PlanFree, first.Plan)

	second, err := uc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGet_RetriesConflicts(t *testing.T) {
	t.Parallel()

	t.Run("recovers", func(t *testing.T) {
		repo := &racyPrefs{PreferenceRepository: memory.NewStore().Preferences(), conflicts: maxConflictRetries}
		prefs, err := New(repo, nil).Get(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", prefs.UserID)
		assert.Equal(t, maxConflictRetries+1, repo.calls)
	})

	t.Run("gives up", func(t *testing.T) {
		repo := &racyPrefs{PreferenceRepository: memory.NewStore().Preferences(), conflicts: maxConflictRetries + 1}
		_, err := New(repo, nil).Get(context.Background(), "u1")
		assert.ErrorIs(t, err, domain.ErrDuplicate)
		assert.Equal(t, maxConflictRetries+1, repo.calls)
	})
}

func TestUpdate_LeavesBillingAlone(t *testing.T) {
	t.Parallel()
	store := memory.NewStore()
	uc := New(store.Preferences(), nil)

	sub := "sub_1"
	_, err := store.Preferences().UpdateBilling(context.Background(), "u1", domain.BillingState{
		Plan:           domain.PlanPro,
		SubscriptionID: &sub,
	})
	require.NoError(t, err)

	theme := domain.ThemeDark
	weekly := true
	updated, err := uc.Update(context.Background(), "u1", domain.PreferencesPatch{Theme: &theme, WeeklyDigest: &weekly})
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, updated.Theme)
	assert.True(t, updated.WeeklyDigest)
	assert.Equal(t, "en", updated.Language)
	assert.Equal(t, domain.PlanPro, updated.Plan)
	require.NotNil(t, updated.StripeSubscriptionID)
	assert.Equal(t, "sub_1", *updated.StripeSubscriptionID)
}
