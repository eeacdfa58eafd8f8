package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/repository"
)

const taskColumns = `id, user_id, title, description, status, due_date, completed_at, created_at, updated_at`

type taskRepository struct {
	db DB
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(db DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.db.QueryRow(ctx, query, id))
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if filter.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1
	  AND ($2 = '' OR status = $2)
	ORDER BY created_at DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, filter.UserID, string(filter.Status), limitArg(filter.Limit), filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, user_id, title, description, status, due_date, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at, updated_at
	`

	if err := r.db.QueryRow(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Status),
		task.DueDate,
		task.CompletedAt,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return task, nil
}

// Update applies only the set patch fields. completed_at follows the status transition.
func (r *taskRepository) Update(ctx context.Context, id, ownerID string, patch domain.TaskPatch) (*domain.Task, error) {
	query := `
	UPDATE tasks
	SET title = COALESCE($3, title),
		description = CASE WHEN $7::boolean THEN $4 ELSE COALESCE($4, description) END,
		status = COALESCE($5, status),
		due_date = CASE WHEN $8::boolean THEN $6 ELSE COALESCE($6, due_date) END,
		completed_at = CASE
			WHEN $5::text IS NULL THEN completed_at
			WHEN $5::text = 'completed' AND status = 'completed' THEN completed_at
			WHEN $5::text = 'completed' THEN NOW()
			ELSE NULL
		END,
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + taskColumns

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	return scanTask(r.db.QueryRow(ctx, query,
		id,
		ownerID,
		patch.Title,
		patch.Description,
		status,
		patch.DueDate,
		patch.ClearDescription,
		patch.ClearDueDate,
	))
}

func (r *taskRepository) Delete(ctx context.Context, id, ownerID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE user_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete tasks by owner: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		task   domain.Task
		status string
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&task.DueDate,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	return &task, nil
}
