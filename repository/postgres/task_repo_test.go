package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/repository"
)

var taskCols = []string{"id", "user_id", "title", "description", "status", "due_date", "completed_at", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestTaskRepository_GetByID(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	repo := NewTaskRepository(mock)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1`)).
		WithArgs("t1").
		WillReturnRows(pgxmock.NewRows(taskCols).
			AddRow("t1", "u1", "Write", (*string)(nil), "in-progress", (*time.Time)(nil), (*time.Time)(nil), now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1`)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	task, err := repo.GetByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "u1", task.UserID)
	assert.Equal(t, domain.TaskStatusInProgress, task.Status)
	assert.Nil(t, task.Description)
	assert.Equal(t, now, task.CreatedAt)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskRepository_List(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	repo := NewTaskRepository(mock)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	desc := "details"

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at DESC`)).
		WithArgs("u1", "todo", 10, 5).
		WillReturnRows(pgxmock.NewRows(taskCols).
			AddRow("t2", "u1", "Second", &desc, "todo", (*time.Time)(nil), (*time.Time)(nil), now, now).
			AddRow("t1", "u1", "First", (*string)(nil), "todo", (*time.Time)(nil), (*time.Time)(nil), now.Add(-time.Hour), now))

	tasks, err := repo.List(context.Background(), repository.TaskFilter{
		UserID: "u1",
		Status: domain.TaskStatusTodo,
		Limit:  10,
		Offset: 5,
	})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t2", tasks[0].ID)
	require.NotNil(t, tasks[0].Description)
	assert.Equal(t, "details", *tasks[0].Description)

	_, err = repo.List(context.Background(), repository.TaskFilter{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTaskRepository_Create(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	repo := NewTaskRepository(mock)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO tasks`)).
		WithArgs(pgxmock.AnyArg(), "u1", "New", pgxmock.AnyArg(), "todo", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	task, err := repo.Create(context.Background(), &domain.Task{UserID: "u1", Title: "New", Status: domain.TaskStatusTodo})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, now, task.CreatedAt)
}

func TestTaskRepository_DeleteScopedByOwner(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	repo := NewTaskRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = $1 AND user_id = $2`)).
		WithArgs("t1", "intruder").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = $1 AND user_id = $2`)).
		WithArgs("t1", "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	assert.ErrorIs(t, repo.Delete(context.Background(), "t1", "intruder"), domain.ErrTaskNotFound)
	assert.NoError(t, repo.Delete(context.Background(), "t1", "u1"))

	n, err := repo.DeleteByOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

const taskUpdateSQL = `UPDATE tasks SET title = COALESCE($3, title), ` +
	`description = CASE WHEN $7::boolean THEN $4 ELSE COALESCE($4, description) END, ` +
	`status = COALESCE($5, status), ` +
	`due_date = CASE WHEN $8::boolean THEN $6 ELSE COALESCE($6, due_date) END, ` +
	`completed_at = CASE WHEN $5::text IS NULL THEN completed_at ` +
	`WHEN $5::text = 'completed' AND status = 'completed' THEN completed_at ` +
	`WHEN $5::text = 'completed' THEN NOW() ELSE NULL END, ` +
	`updated_at = NOW() WHERE id = $1 AND user_id = $2`

func TestTaskRepository_UpdateIsFieldScopedAndOwned(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	repo := NewTaskRepository(mock)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	completed := "completed"
	status := domain.TaskStatusCompleted

	mock.ExpectQuery(regexp.QuoteMeta(taskUpdateSQL)).
		WithArgs("t1", "u1", (*string)(nil), (*string)(nil), &completed, (*time.Time)(nil), false, false).
		WillReturnRows(pgxmock.NewRows(taskCols).
			AddRow("t1", "u1", "Write", (*string)(nil), "completed", (*time.Time)(nil), &now, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(taskUpdateSQL)).
		WithArgs("t1", "intruder", (*string)(nil), (*string)(nil), &completed, (*time.Time)(nil), false, false).
		WillReturnError(pgx.ErrNoRows)

	task, err := repo.Update(context.Background(), "t1", "u1", domain.TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, now, *task.CompletedAt)
	assert.Equal(t, "Write", task.Title)

	_, err = repo.Update(context.Background(), "t1", "intruder", domain.TaskPatch{Status: &status})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskRepository_UpdateReplacementClearsOptionalFields(t *testing.T) {
	t.Parallel()
	mock := newMock(t)
	repo := NewTaskRepository(mock)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	title := "Rewrite"

	mock.ExpectQuery(regexp.QuoteMeta(taskUpdateSQL)).
		WithArgs("t1", "u1", &title, (*string)(nil), (*string)(nil), (*time.Time)(nil), true, true).
		WillReturnRows(pgxmock.NewRows(taskCols).
			AddRow("t1", "u1", "Rewrite", (*string)(nil), "todo", (*time.Time)(nil), (*time.Time)(nil), now, now))

	task, err := repo.Update(context.Background(), "t1", "u1", domain.TaskPatch{
		Title:            &title,
		ClearDescription: true,
		ClearDueDate:     true,
	})
	require.NoError(t, err)
	assert.Nil(t, task.Description)
	assert.Nil(t, task.DueDate)
}
