package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskdeck/domain"
)

func loaderFor(tasks ...domain.Task) Loader[*domain.Task] {
	return func(_ context.Context, id string) (*domain.Task, error) {
		for i := range tasks {
			if tasks[i].ID == id {
				t := tasks[i]
				return &t, nil
			}
		}
		return nil, domain.ErrTaskNotFound
	}
}

func TestAuthorize(t *testing.T) {
	t.Parallel()

	load := loaderFor(
		domain.Task{ID: "t-alice", UserID: "alice"},
		domain.Task{ID: "t-bob", UserID: "bob"},
	)

	tests := []struct {
		name      string
		id        string
		principal string
		wantErr   error
	}{
		{name: "owner", id: "t-alice", principal: "alice"},
		{name: "other owner", id: "t-bob", principal: "alice", wantErr: domain.ErrForbidden},
		{name: "missing", id: "t-nope", principal: "alice", wantErr: domain.ErrTaskNotFound},
		{name: "anonymous", id: "t-alice", principal: "", wantErr: domain.ErrUnauthorized},
		{name: "empty id", id: "", principal: "alice", wantErr: domain.ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Authorize(context.Background(), load, tt.id, tt.principal)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, got.ID)
		})
	}
}

func TestAuthorize_NeverAllowsNonOwner(t *testing.T) {
	t.Parallel()

	var tasks []domain.Task
	owners := []string{"alice", "bob", "carol"}
	for _, owner := range owners {
		for _, suffix := range []string{"1", "2"} {
			tasks = append(tasks, domain.Task{ID: owner + "-" + suffix, UserID: owner})
		}
	}
	load := loaderFor(tasks...)

	for _, task := range tasks {
		for _, principal := range owners {
			_, err := Authorize(context.Background(), load, task.ID, principal)
			if principal == task.UserID {
				assert.NoError(t, err)
				continue
			}
			assert.True(t,
				domain.IsDomainError(err, domain.ErrCodeForbidden) || domain.IsDomainError(err, domain.ErrCodeNotFound),
				"principal %s got %v for %s", principal, err, task.ID)
		}
	}
}
