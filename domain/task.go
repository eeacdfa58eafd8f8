package domain

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// Task represents a user-owned unit of work.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == TaskStatusCompleted
}

func (t *Task) OwnerID() string {
	if t == nil {
		return ""
	}
	return t.UserID
}

// TaskPatch is a field-scoped update. Nil fields stay untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	DueDate     *time.Time
	// ClearDescription and ClearDueDate null the column when the matching field is nil.
	// A full replacement sets them so omitted optional fields do not survive.
	ClearDescription bool
	ClearDueDate     bool
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.DueDate == nil &&
		!p.ClearDescription && !p.ClearDueDate
}

// Apply copies the set fields onto t and maintains CompletedAt.
func (p TaskPatch) Apply(t *Task, now time.Time) {
	if t == nil {
		return
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		desc := *p.Description
		t.Description = &desc
	} else if p.ClearDescription {
		t.Description = nil
	}
	if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	} else if p.ClearDueDate {
		t.DueDate = nil
	}
	if p.Status != nil {
		t.CompletedAt = CompletedAtFor(t.Status, *p.Status, t.CompletedAt, now)
		t.Status = *p.Status
	}
	t.UpdatedAt = now
}

// CompletedAtFor derives the completion timestamp for a status transition.
func CompletedAtFor(from, to TaskStatus, current *time.Time, now time.Time) *time.Time {
	if to != TaskStatusCompleted {
		return nil
	}
	if from == TaskStatusCompleted && current != nil {
		return current
	}
	ts := now
	return &ts
}

// StatusCounts are the per-status totals returned alongside a task list.
type StatusCounts struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Todo       int `json:"todo"`
}

// CountStatuses scans tasks once. Cancelled tasks only count toward Total.
func CountStatuses(tasks []Task) StatusCounts {
	counts := StatusCounts{Total: len(tasks)}
	for i := range tasks {
		switch tasks[i].Status {
		case TaskStatusCompleted:
			counts.Completed++
		case TaskStatusInProgress:
			counts.InProgress++
		case TaskStatusTodo:
			counts.Todo++
		}
	}
	return counts
}

// TaskList is the list payload: tasks plus counts over the owner's full set.
type TaskList struct {
	Tasks []Task `json:"tasks"`
	StatusCounts
}

// Adjust moves the counters for one task of the given status by delta.
func (c *StatusCounts) Adjust(status TaskStatus, delta int) {
	c.Total += delta
	switch status {
	case TaskStatusCompleted:
		c.Completed += delta
	case TaskStatusInProgress:
		c.InProgress += delta
	case TaskStatusTodo:
		c.Todo += delta
	}
}
