package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/pkg/client"
)

// TasksKey is the cache key of the caller's full task list.
const TasksKey = "tasks"

// OptimisticIDPrefix marks tasks that exist only locally until the refetch lands.
const OptimisticIDPrefix = "optimistic-"

// TaskAPI is the server side of the task collection.
type TaskAPI interface {
	ListTasks(ctx context.Context) (*domain.TaskList, error)
	CreateTask(ctx context.Context, req transport.CreateTaskRequest) (*domain.Task, error)
	UpdateTask(ctx context.Context, id string, req transport.UpdateTaskRequest) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) (string, error)
}

// Notifier surfaces mutation failures to the user.
type Notifier interface {
	Error(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Error(message string) { f(message) }

// TaskSync applies task mutations optimistically and lets a refetch reconcile.
// A failed mutation is never rolled back; the invalidation that follows every
// mutation is what corrects the cached list.
type TaskSync struct {
	api      TaskAPI
	cache    *QueryCache[domain.TaskList]
	notifier Notifier
	now      func() time.Time
}

func NewTaskSync(api TaskAPI, cache *QueryCache[domain.TaskList], notifier Notifier) *TaskSync {
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	s := &TaskSync{api: api, cache: cache, notifier: notifier, now: time.Now}
	cache.Register(TasksKey, func(ctx context.Context) (domain.TaskList, error) {
		list, err := api.ListTasks(ctx)
		if err != nil {
			return domain.TaskList{}, err
		}
		return *list, nil
	})
	return s
}

// Tasks returns the cached list, refetching per the cache's staleness rules.
func (s *TaskSync) Tasks(ctx context.Context) (domain.TaskList, error) {
	return s.cache.Get(ctx, TasksKey)
}

// Create prepends a placeholder and bumps its status counter before the request is sent.
// Without an explicit status the placeholder is counted as todo; the refetch applies the
// server's default.
func (s *TaskSync) Create(ctx context.Context, req transport.CreateTaskRequest) (*domain.Task, error) {
	placeholder := req.Task("")
	placeholder.ID = OptimisticIDPrefix + uuid.NewString()
	if placeholder.Status == "" {
		placeholder.Status = domain.TaskStatusTodo
	}
	placeholder.CreatedAt = s.now()
	placeholder.UpdatedAt = placeholder.CreatedAt

	s.cache.SetData(TasksKey, func(list domain.TaskList, _ bool) domain.TaskList {
		tasks := make([]domain.Task, 0, len(list.Tasks)+1)
		tasks = append(tasks, *placeholder)
		list.Tasks = append(tasks, list.Tasks...)
		list.StatusCounts.Adjust(placeholder.Status, 1)
		return list
	})

	created, err := s.api.CreateTask(ctx, req)
	defer s.cache.Invalidate(TasksKey)
	if err != nil {
		s.notify("Failed to create task", err)
		return nil, err
	}
	return created, nil
}

// Update replaces the task by id once the server answers, then recomputes every
// counter from the resulting list.
func (s *TaskSync) Update(ctx context.Context, id string, req transport.UpdateTaskRequest) (*domain.Task, error) {
	updated, err := s.api.UpdateTask(ctx, id, req)
	defer s.cache.Invalidate(TasksKey)
	if err != nil {
		s.notify("Failed to update task", err)
		return nil, err
	}

	s.cache.SetData(TasksKey, func(list domain.TaskList, _ bool) domain.TaskList {
		tasks := make([]domain.Task, len(list.Tasks))
		copy(tasks, list.Tasks)
		for i := range tasks {
			if tasks[i].ID == updated.ID {
				tasks[i] = *updated
			}
		}
		list.Tasks = tasks
		list.StatusCounts = domain.CountStatuses(tasks)
		return list
	})
	return updated, nil
}

// Delete removes the task and decrements the counter of its status before the request.
func (s *TaskSync) Delete(ctx context.Context, id string) error {
	s.cache.SetData(TasksKey, func(list domain.TaskList, _ bool) domain.TaskList {
		tasks := make([]domain.Task, 0, len(list.Tasks))
		for _, t := range list.Tasks {
			if t.ID == id {
				list.StatusCounts.Adjust(t.Status, -1)
				continue
			}
			tasks = append(tasks, t)
		}
		list.Tasks = tasks
		return list
	})

	_, err := s.api.DeleteTask(ctx, id)
	defer s.cache.Invalidate(TasksKey)
	if err != nil {
		s.notify("Failed to delete task", err)
		return err
	}
	return nil
}

// IsOptimistic reports whether t is a local placeholder.
func IsOptimistic(t domain.Task) bool {
	return strings.HasPrefix(t.ID, OptimisticIDPrefix)
}

func (s *TaskSync) notify(fallback string, err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		s.notifier.Error(apiErr.Message)
		return
	}
	s.notifier.Error(fallback)
}

// FromClient adapts the SDK client to TaskAPI, listing the full unfiltered collection.
func FromClient(c *client.Client) TaskAPI {
	return clientTasks{c}
}

type clientTasks struct{ *client.Client }

func (c clientTasks) ListTasks(ctx context.Context) (*domain.TaskList, error) {
	return c.Client.ListTasks(ctx, client.TaskQuery{})
}
