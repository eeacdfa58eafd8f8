package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeUpstream     ErrorCode = "UPSTREAM"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrUserNotFound        = NewError(ErrCodeNotFound, "User not found")
	ErrTaskNotFound        = NewError(ErrCodeNotFound, "Task not found")
	ErrPreferencesNotFound = NewError(ErrCodeNotFound, "Preferences not found")
	ErrNoSubscription      = NewError(ErrCodeNotFound, "No active subscription")
	ErrUnauthorized        = NewError(ErrCodeUnauthorized, "Unauthorized")
	ErrInvalidCredentials  = NewError(ErrCodeUnauthorized, "Invalid credentials")
	ErrForbidden           = NewError(ErrCodeForbidden, "Forbidden")
	ErrUserExists          = NewError(ErrCodeConflict, "User exists")
	ErrDuplicate           = NewError(ErrCodeConflict, "duplicate record")
	ErrInvalidPayload      = NewError(ErrCodeInvalid, "Invalid payload")
	ErrNoBillingCustomer   = NewError(ErrCodeInvalid, "No billing customer on file")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return code == ErrCodeInvalid
	}
	return false
}

// FieldIssue points at one invalid input field.
type FieldIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError carries every issue found in a payload, not only the first.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError returns nil when there is nothing to report.
func NewValidationError(issues []FieldIssue) error {
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}
