package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskdeck/api/transport"
	"github.com/fastygo/taskdeck/domain"
	"github.com/fastygo/taskdeck/pkg/client"
)

// fakeTasks is an in-process task server. onCall runs inside every mutation,
// before the server state changes, so tests can observe the optimistic cache.
type fakeTasks struct {
	mu     sync.Mutex
	tasks  []domain.Task
	seq    int
	err    error
	onCall func()
}

func (f *fakeTasks) ListTasks(context.Context) (*domain.TaskList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tasks := append([]domain.Task(nil), f.tasks...)
	return &domain.TaskList{Tasks: tasks, StatusCounts: domain.CountStatuses(tasks)}, nil
}

func (f *fakeTasks) mutate() error {
	if f.onCall != nil {
		f.onCall()
	}
	return f.err
}

func (f *fakeTasks) CreateTask(_ context.Context, req transport.CreateTaskRequest) (*domain.Task, error) {
	if err := f.mutate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	task := req.Task("u1")
	task.ID = fmt.Sprintf("t%d", f.seq)
	if task.Status == "" {
		task.Status = domain.TaskStatusInProgress
	}
	f.tasks = append([]domain.Task{*task}, f.tasks...)
	return task, nil
}

func (f *fakeTasks) UpdateTask(_ context.Context, id string, req transport.UpdateTaskRequest) (*domain.Task, error) {
	if err := f.mutate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			req.Patch().Apply(&f.tasks[i], time.Now())
			out := f.tasks[i]
			return &out, nil
		}
	}
	return nil, &client.APIError{StatusCode: 404, Code: "NOT_FOUND", Message: "Task not found"}
}

func (f *fakeTasks) DeleteTask(_ context.Context, id string) (string, error) {
	if err := f.mutate(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return id, nil
		}
	}
	return "", &client.APIError{StatusCode: 404, Code: "NOT_FOUND", Message: "Task not found"}
}

type syncFixture struct {
	api      *fakeTasks
	cache    *QueryCache[domain.TaskList]
	sync     *TaskSync
	messages []string
}

func newSyncFixture(t *testing.T, seed ...domain.Task) *syncFixture {
	t.Helper()
	f := &syncFixture{api: &fakeTasks{tasks: seed, seq: len(seed)}}
	f.cache = New[domain.TaskList](Options{StaleTime: time.Hour})
	t.Cleanup(f.cache.Close)
	f.sync = NewTaskSync(f.api, f.cache, NotifierFunc(func(msg string) { f.messages = append(f.messages, msg) }))

	_, err := f.sync.Tasks(context.Background())
	require.NoError(t, err)
	return f
}

func (f *syncFixture) peek(t *testing.T) domain.TaskList {
	t.Helper()
	list, ok := f.cache.Peek(TasksKey)
	require.True(t, ok)
	return list
}

func assertCountsConsistent(t *testing.T, list domain.TaskList) {
	t.Helper()
	assert.LessOrEqual(t, list.Completed+list.InProgress+list.Todo, list.Total)
	assert.GreaterOrEqual(t, list.Completed, 0)
	assert.GreaterOrEqual(t, list.InProgress, 0)
	assert.GreaterOrEqual(t, list.Todo, 0)
}

func TestTaskSync_CreateIsOptimistic(t *testing.T) {
	t.Parallel()
	f := newSyncFixture(t, domain.Task{ID: "t1", Title: "existing", Status: domain.TaskStatusTodo})

	var during domain.TaskList
	f.api.onCall = func() { during = f.peek(t) }

	created, err := f.sync.Create(context.Background(), transport.CreateTaskRequest{Title: "new"})
	require.NoError(t, err)
	assert.Equal(t, "t2", created.ID)

	require.Len(t, during.Tasks, 2)
	assert.True(t, IsOptimistic(during.Tasks[0]))
	assert.Equal(t, "new", during.Tasks[0].Title)
	assert.Equal(t, domain.StatusCounts{Total: 2, Todo: 2}, during.StatusCounts)
	assertCountsConsistent(t, during)

	f.cache.Wait()
	after := f.peek(t)
	require.Len(t, after.Tasks, 2)
	assert.False(t, IsOptimistic(after.Tasks[0]))
	assert.Equal(t, domain.StatusCounts{Total: 2, InProgress: 1, Todo: 1}, after.StatusCounts)
	assert.Equal(t, Settled, f.cache.State(TasksKey))
	assert.Empty(t, f.messages)
}

func TestTaskSync_FailedCreateIsCorrectedByRefetch(t *testing.T) {
	t.Parallel()
	f := newSyncFixture(t, domain.Task{ID: "t1", Title: "existing", Status: domain.TaskStatusTodo})
	f.api.err = &client.APIError{StatusCode: 400, Code: "INVALID", Message: "Validation failed"}

	_, err := f.sync.Create(context.Background(), transport.CreateTaskRequest{Title: "rejected"})
	require.Error(t, err)
	assert.Equal(t, []string{"Validation failed"}, f.messages)

	f.cache.Wait()
	after := f.peek(t)
	require.Len(t, after.Tasks, 1)
	assert.Equal(t, "t1", after.Tasks[0].ID)
	assert.Equal(t, domain.StatusCounts{Total: 1, Todo: 1}, after.StatusCounts)
}

func TestTaskSync_FallbackMessage(t *testing.T) {
	t.Parallel()
	f := newSyncFixture(t, domain.Task{ID: "t1", Status: domain.TaskStatusTodo})
	f.api.err = errors.New("connection reset")

	assert.Error(t, f.sync.Delete(context.Background(), "t1"))
	_, err := f.sync.Update(context.Background(), "t1", transport.UpdateTaskRequest{})
	assert.Error(t, err)
	f.cache.Wait()

	assert.Equal(t, []string{"Failed to delete task", "Failed to update task"}, f.messages)
	assert.Len(t, f.peek(t).Tasks, 1)
}

func TestTaskSync_DeleteAdjustsCountsFirst(t *testing.T) {
	t.Parallel()
	f := newSyncFixture(t,
		domain.Task{ID: "t1", Status: domain.TaskStatusCompleted},
		domain.Task{ID: "t2", Status: domain.TaskStatusTodo},
		domain.Task{ID: "t3", Status: domain.TaskStatusCancelled},
	)

	var during domain.TaskList
	f.api.onCall = func() { during = f.peek(t) }

	require.NoError(t, f.sync.Delete(context.Background(), "t1"))
	assert.Equal(t, domain.StatusCounts{Total: 2, Todo: 1}, during.StatusCounts)
	assertCountsConsistent(t, during)
	f.cache.Wait()

	require.NoError(t, f.sync.Delete(context.Background(), "t3"))
	assert.Equal(t, domain.StatusCounts{Total: 1, Todo: 1}, during.StatusCounts)

	f.cache.Wait()
	assert.Equal(t, domain.StatusCounts{Total: 1, Todo: 1}, f.peek(t).StatusCounts)
}

func TestTaskSync_UpdateRecountsFromList(t *testing.T) {
	t.Parallel()
	f := newSyncFixture(t,
		domain.Task{ID: "t1", Status: domain.TaskStatusTodo},
		domain.Task{ID: "t2", Status: domain.TaskStatusTodo},
	)

	status := string(domain.TaskStatusCompleted)
	updated, err := f.sync.Update(context.Background(), "t2", transport.UpdateTaskRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, updated.Status)

	f.cache.Wait()
	list := f.peek(t)
	assert.Equal(t, domain.StatusCounts{Total: 2, Completed: 1, Todo: 1}, list.StatusCounts)
	assertCountsConsistent(t, list)
}
