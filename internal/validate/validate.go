// Package validate turns untrusted JSON into typed request structs, collecting
// every field issue instead of stopping at the first.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fastygo/taskdeck/domain"
)

// Validator wraps a configured validator.Validate. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		return domain.TaskStatus(fl.Field().String()).Valid()
	})
	return &Validator{v: v}
}

var std = New()

// Decode unmarshals body into dst and validates it. An empty body decodes as {}.
func Decode(body []byte, dst any) error {
	return std.Decode(body, dst)
}

// Struct validates an already populated value.
func Struct(value any) error {
	return std.Struct(value)
}

func (val *Validator) Decode(body []byte, dst any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return domain.NewValidationError([]domain.FieldIssue{decodeIssue(err)})
	}
	return val.Struct(dst)
}

func (val *Validator) Struct(value any) error {
	err := val.v.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.WrapError(domain.ErrCodeInvalid, "Invalid payload", err)
	}

	issues := make([]domain.FieldIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, domain.FieldIssue{
			Path:    fieldPath(fe),
			Message: message(fe),
		})
	}
	return domain.NewValidationError(issues)
}

func decodeIssue(err error) domain.FieldIssue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return domain.FieldIssue{
			Path:    typeErr.Field,
			Message: fmt.Sprintf("Expected %s, received %s", typeErr.Type.Kind(), typeErr.Value),
		}
	}
	return domain.FieldIssue{Path: "", Message: "Malformed JSON body"}
}

// fieldPath drops the root struct name: "CreateTaskRequest.title" -> "title".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email"
	case "url":
		return "Invalid url"
	case "min":
		if isString(fe) {
			return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
		}
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "max":
		if isString(fe) {
			return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
		}
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Expected one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "task_status":
		return "Expected one of: todo, in-progress, completed, cancelled"
	default:
		return fmt.Sprintf("Failed %q check", fe.Tag())
	}
}

func isString(fe validator.FieldError) bool {
	kind := fe.Kind()
	if kind == reflect.Ptr {
		kind = fe.Type().Elem().Kind()
	}
	return kind == reflect.String
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}
