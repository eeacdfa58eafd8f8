package preference

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/repository"
)

// maxConflictRetries bounds retries after losing a first-insert race on the unique user_id.
const maxConflictRetries = 2

type UseCase struct {
	prefs  repository.PreferenceRepository
	logger *zap.Logger
}

func New(prefs repository.PreferenceRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		prefs:  prefs,
		logger: logger,
	}
}

// Get returns the user's preferences, creating the default record on first access.
func (uc *UseCase) Get(ctx context.Context, userID string) (*domain.Preferences, error) {
	return retryOnConflict(uc.logger, func() (*domain.Preferences, error) {
		return uc.prefs.GetOrCreate(ctx, userID)
	})
}

// Update merges patch onto the stored record (or the defaults) and refreshes updatedAt.
func (uc *UseCase) Update(ctx context.Context, userID string, patch domain.PreferencesPatch) (*domain.Preferences, error) {
	return retryOnConflict(uc.logger, func() (*domain.Preferences, error) {
		return uc.prefs.Upsert(ctx, userID, patch)
	})
}

func retryOnConflict(logger *zap.Logger, op func() (*domain.Preferences, error)) (*domain.Preferences, error) {
	var (
		prefs *domain.Preferences
		err   error
	)
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		prefs, err = op()
		if err == nil || !domain.IsDomainError(err, domain.ErrCodeConflict) {
			return prefs, err
		}
		logger.Debug("preferences write lost insert race, retrying", zap.Int("attempt", attempt+1))
	}
	return nil, err
}
