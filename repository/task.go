package repository

import (
	"context"

	"github.com/fastygo/taskdeck/domain"
)

// TaskFilter narrows a task listing. Limit <= 0 returns every matching row.
type TaskFilter struct {
	UserID string
	Status domain.TaskStatus
	Limit  int
	Offset int
}

// TaskRepository scopes every mutation by owner; ownerID is part of each write's WHERE clause.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, id, ownerID string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id, ownerID string) error
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
