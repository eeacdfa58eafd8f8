package transport

import (
	"encoding/json"

	"github.com/fastygo/taskdeck/domain"
)

// Envelope is the standard API response wrapper. Success decides which fields exist:
// success responses carry Data, failures carry Error.
type Envelope struct {
	Success    bool                `json:"success"`
	Data       any                 `json:"data,omitempty"`
	Message    string              `json:"message,omitempty"`
	Error      string              `json:"error,omitempty"`
	Code       string              `json:"code,omitempty"`
	StatusCode int                 `json:"statusCode,omitempty"`
	Details    []domain.FieldIssue `json:"details,omitempty"`
}

// NewSuccess returns a success envelope. A nil payload is sent as {} so data is always present.
func NewSuccess(data any, message string) Envelope {
	if data == nil {
		data = struct{}{}
	}
	return Envelope{
		Success: true,
		Data:    data,
		Message: message,
	}
}

// NewError returns a failure envelope.
func NewError(status int, code, errMsg string, details []domain.FieldIssue) Envelope {
	return Envelope{
		Success:    false,
		Error:      errMsg,
		Code:       code,
		StatusCode: status,
		Details:    details,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
