package forms

import (
	"strings"

	"github.com/desertthunder/taskr/internal/shared"
)

// Field names accepted by [TaskForm.Set] and reported in [FieldErrors].
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldDueDate     = "due_date"
	FieldIsCompleted = "is_completed"
)

// Validation messages.
const (
	MsgTitleRequired  = "title is required"
	MsgTitleTooLong   = "title exceeds maximum length"
	MsgDueDateInvalid = "due date must be a valid date"
	MsgCompletedBool  = "is completed must be true or false"
)

// ValidationError is one failed rule on one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string { return e.Field + ": " + e.Message }

// FieldErrors collects every failed rule in field order. It matches [shared.ErrValidation] with errors.Is.
type FieldErrors []ValidationError

func (fe FieldErrors) Error() string {
	msgs := make([]string, len(fe))
	for i, e := range fe {
		msgs[i] = e.Error()
	}
	return shared.ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (fe FieldErrors) Is(target error) bool { return target == shared.ErrValidation }

// Get returns the first message recorded for field, or "".
func (fe FieldErrors) Get(field string) string {
	for _, e := range fe {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Has reports whether field failed any rule.
func (fe FieldErrors) Has(field string) bool { return fe.Get(field) != "" }

// Map returns the first message per field.
func (fe FieldErrors) Map() map[string]string {
	m := make(map[string]string, len(fe))
	for _, e := range fe {
		if _, ok := m[e.Field]; !ok {
			m[e.Field] = e.Message
		}
	}
	return m
}
