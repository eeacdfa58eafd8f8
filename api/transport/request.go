package transport

import (
	"time"

	"github.com/fastygo/taskdeck/domain"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Image *string `json:"image" validate:"omitempty,url,max=2048"`
}

func (r UpdateProfileRequest) Patch() domain.ProfilePatch {
	return domain.ProfilePatch{Name: r.Name, Image: r.Image}
}

type UpdatePreferencesRequest struct {
	Theme              *string `json:"theme" validate:"omitempty,oneof=light dark system"`
	Language           *string `json:"language" validate:"omitempty,min=2,max=10"`
	Timezone           *string `json:"timezone" validate:"omitempty,max=64"`
	DefaultTaskStatus  *string `json:"defaultTaskStatus" validate:"omitempty,task_status"`
	EmailNotifications *bool   `json:"emailNotifications"`
	TaskReminders      *bool   `json:"taskReminders"`
	WeeklyDigest       *bool   `json:"weeklyDigest"`
	PushNotifications  *bool   `json:"pushNotifications"`
}

func (r UpdatePreferencesRequest) Patch() domain.PreferencesPatch {
	patch := domain.PreferencesPatch{
		Theme:              r.Theme,
		Language:           r.Language,
		Timezone:           r.Timezone,
		EmailNotifications: r.EmailNotifications,
		TaskReminders:      r.TaskReminders,
		WeeklyDigest:       r.WeeklyDigest,
		PushNotifications:  r.PushNotifications,
	}
	if r.DefaultTaskStatus != nil {
		status := domain.TaskStatus(*r.DefaultTaskStatus)
		patch.DefaultTaskStatus = &status
	}
	return patch
}

// CreateTaskRequest is also the full-replacement schema for PUT.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Status      *string    `json:"status" validate:"omitempty,task_status"`
	DueDate     *time.Time `json:"dueDate"`
}

// Task builds the new task. An empty Status means "use the owner's default".
func (r CreateTaskRequest) Task(ownerID string) *domain.Task {
	task := &domain.Task{
		UserID:      ownerID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
	}
	if r.Status != nil {
		task.Status = domain.TaskStatus(*r.Status)
	}
	return task
}

// Replacement is the PUT form: omitted description and dueDate are cleared.
// An omitted status keeps the current one.
func (r CreateTaskRequest) Replacement() domain.TaskPatch {
	title := r.Title
	patch := UpdateTaskRequest{
		Title:       &title,
		Description: r.Description,
		Status:      r.Status,
		DueDate:     r.DueDate,
	}.Patch()
	patch.ClearDescription = r.Description == nil
	patch.ClearDueDate = r.DueDate == nil
	return patch
}

// UpdateTaskRequest is CreateTaskRequest with every field optional; {} is a valid no-op.
type UpdateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Status      *string    `json:"status" validate:"omitempty,task_status"`
	DueDate     *time.Time `json:"dueDate"`
}

func (r UpdateTaskRequest) Patch() domain.TaskPatch {
	patch := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
	}
	if r.Status != nil {
		status := domain.TaskStatus(*r.Status)
		patch.Status = &status
	}
	return patch
}

type CheckoutRequest struct {
	PriceID string `json:"priceId" validate:"required,max=255"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token,omitempty"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
}

type DeletedResponse struct {
	ID string `json:"id"`
}

type URLResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId,omitempty"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}
