package profile

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/repository"
)

type UseCase struct {
	users  repository.UserRepository
	tasks  repository.TaskRepository
	prefs  repository.PreferenceRepository
	subs   repository.SubscriptionCache
	logger *zap.Logger
}

func New(
	users repository.UserRepository,
	tasks repository.TaskRepository,
	prefs repository.PreferenceRepository,
	subs repository.SubscriptionCache,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		tasks:  tasks,
		prefs:  prefs,
		subs:   subs,
		logger: logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.User, error) {
	if patch.IsEmpty() {
		return uc.users.GetByID(ctx, userID)
	}
	return uc.users.UpdateProfile(ctx, userID, patch)
}

// DeleteAccount removes tasks, then preferences, then the user. The order keeps
// an interrupted run from leaving rows that reference a missing user.
// It reports true only when the user row itself is gone.
func (uc *UseCase) DeleteAccount(ctx context.Context, userID string) bool {
	log := uc.logger.With(zap.String("user_id", userID))

	removed, err := uc.tasks.DeleteByOwner(ctx, userID)
	if err != nil {
		log.Error("account deletion: tasks", zap.Error(err))
		return false
	}
	if err := uc.prefs.DeleteByUserID(ctx, userID); err != nil {
		log.Error("account deletion: preferences", zap.Error(err))
		return false
	}
	if err := uc.users.Delete(ctx, userID); err != nil {
		log.Error("account deletion: user", zap.Error(err))
		return false
	}

	if uc.subs != nil {
		if err := uc.subs.Invalidate(ctx, userID); err != nil {
			log.Warn("account deletion: subscription cache", zap.Error(err))
		}
	}

	log.Info("account deleted", zap.Int64("tasks_removed", removed))
	return true
}
