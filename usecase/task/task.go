package task

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/repository"
	"github.com/fastygo/taskdeck/usecase"
)

// Preferences supplies the owner's settings, creating them when missing.
type Preferences interface {
	Get(ctx context.Context, userID string) (*domain.Preferences, error)
}

type UseCase struct {
	tasks  repository.TaskRepository
	prefs  Preferences
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, prefs Preferences, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		prefs:  prefs,
		logger: logger,
	}
}

// ListTasks returns the owner's tasks plus status counts over the full set.
// The preference record is ensured first so a new user's defaults exist before any task does.
func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) (*domain.TaskList, error) {
	if filter.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if _, err := uc.prefs.Get(ctx, filter.UserID); err != nil {
		return nil, fmt.Errorf("ensure preferences: %w", err)
	}

	all, err := uc.tasks.List(ctx, repository.TaskFilter{UserID: filter.UserID})
	if err != nil {
		return nil, err
	}

	return &domain.TaskList{
		Tasks:        page(all, filter),
		StatusCounts: domain.CountStatuses(all),
	}, nil
}

func (uc *UseCase) GetTask(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	return usecase.Authorize(ctx, uc.tasks.GetByID, id, ownerID)
}

// CreateTask inserts task for its owner. An empty status takes the owner's default.
func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.UserID == "" {
		return nil, domain.ErrInvalidPayload
	}

	if task.Status == "" {
		prefs, err := uc.prefs.Get(ctx, task.UserID)
		if err != nil {
			return nil, fmt.Errorf("load default status: %w", err)
		}
		task.Status = prefs.DefaultTaskStatus
		if !task.Status.Valid() {
			task.Status = domain.TaskStatusTodo
		}
	}
	task.ID = ""
	task.CompletedAt = domain.CompletedAtFor("", task.Status, nil, time.Now())

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	uc.logger.Debug("task created", zap.String("task_id", created.ID), zap.String("user_id", created.UserID))
	return created, nil
}

// UpdateTask applies a field-scoped patch after the ownership check.
// An empty patch only refreshes updatedAt.
func (uc *UseCase) UpdateTask(ctx context.Context, id, ownerID string, patch domain.TaskPatch) (*domain.Task, error) {
	if _, err := usecase.Authorize(ctx, uc.tasks.GetByID, id, ownerID); err != nil {
		return nil, err
	}
	return uc.tasks.Update(ctx, id, ownerID, patch)
}

// DeleteTask hard-deletes the task and returns its id so clients can evict it.
func (uc *UseCase) DeleteTask(ctx context.Context, id, ownerID string) (string, error) {
	if _, err := usecase.Authorize(ctx, uc.tasks.GetByID, id, ownerID); err != nil {
		return "", err
	}
	if err := uc.tasks.Delete(ctx, id, ownerID); err != nil {
		return "", err
	}
	return id, nil
}

func page(all []domain.Task, filter repository.TaskFilter) []domain.Task {
	out := make([]domain.Task, 0, len(all))
	for _, t := range all {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []domain.Task{}
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}
