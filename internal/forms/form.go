// Package forms holds the in-progress edit state of a task and moves it to and from the task store.
package forms

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/shared"
)

// InputLayout is the local date-time layout due dates are edited in.
const InputLayout = "2006-01-02T15:04"

// dueDateLayouts are tried in order when parsing a due date.
var dueDateLayouts = []string{
	InputLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

// TaskForm is the editable state of one task. An empty ID means the form creates a new task.
//
// The exported fields hold raw user input; nothing is parsed until [TaskForm.Validate].
type TaskForm struct {
	ID          string
	Title       string
	Description string
	DueDate     string
	IsCompleted bool

	// badCompleted holds an is_completed value that could not be coerced to a boolean.
	badCompleted string

	store models.TaskStore
	loc   *time.Location
}

// New creates an empty form backed by store. Due dates are read and written in loc (local time when nil).
func New(store models.TaskStore, loc *time.Location) *TaskForm {
	if loc == nil {
		loc = time.Local
	}
	return &TaskForm{store: store, loc: loc}
}

// IsEditing reports whether the form targets an existing task.
func (f *TaskForm) IsEditing() bool { return f.ID != "" }

// Set binds one raw input value by field name. Only the user-writable fields are accepted.
func (f *TaskForm) Set(field, value string) error {
	switch field {
	case FieldTitle:
		f.Title = value
	case FieldDescription:
		f.Description = value
	case FieldDueDate:
		f.DueDate = value
	case FieldIsCompleted:
		b, err := shared.ParseBool(value)
		if err != nil {
			f.IsCompleted = false
			f.badCompleted = value
			return nil
		}
		f.IsCompleted = b
		f.badCompleted = ""
	default:
		return fmt.Errorf("%w: %q", shared.ErrUnknownField, field)
	}
	return nil
}

// SetCompleted sets the completion flag directly.
func (f *TaskForm) SetCompleted(done bool) {
	f.IsCompleted = done
	f.badCompleted = ""
}

// Load replaces the form contents with task. Nothing is validated.
func (f *TaskForm) Load(task *models.Task) {
	f.ID = task.ID()
	f.Title = task.Title()
	f.Description = task.Description()
	f.DueDate = ""
	if due := task.DueDate(); due != nil {
		f.DueDate = due.In(f.loc).Format(InputLayout)
	}
	f.SetCompleted(task.IsCompleted())
}

// Reset clears every field, returning the form to create mode.
func (f *TaskForm) Reset() {
	f.ID = ""
	f.Title = ""
	f.Description = ""
	f.DueDate = ""
	f.SetCompleted(false)
}

// Validate checks every rule and returns all failures, or nil when the form is valid.
func (f *TaskForm) Validate() FieldErrors {
	var errs FieldErrors

	title := strings.TrimSpace(f.Title)
	switch {
	case title == "":
		errs = append(errs, ValidationError{FieldTitle, MsgTitleRequired})
	case utf8.RuneCountInString(title) > models.MaxTitleLength:
		errs = append(errs, ValidationError{FieldTitle, MsgTitleTooLong})
	}

	if _, err := f.parseDueDate(); err != nil {
		errs = append(errs, ValidationError{FieldDueDate, MsgDueDateInvalid})
	}

	if f.badCompleted != "" {
		errs = append(errs, ValidationError{FieldIsCompleted, MsgCompletedBool})
	}

	return errs
}

// Fields validates the form and converts it to store input.
func (f *TaskForm) Fields() (models.TaskFields, error) {
	if errs := f.Validate(); errs != nil {
		return models.TaskFields{}, errs
	}

	due, _ := f.parseDueDate()
	return models.TaskFields{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		DueDate:     due,
		IsCompleted: f.IsCompleted,
	}, nil
}

// Store creates a new task owned by owner.
func (f *TaskForm) Store(owner models.UserID) (*models.Task, error) {
	if f.IsEditing() {
		return nil, fmt.Errorf("%w: form is editing task %s", shared.ErrInvalidInput, f.ID)
	}

	fields, err := f.Fields()
	if err != nil {
		return nil, err
	}
	task, err := f.store.Create(owner, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// Update overwrites the mutable fields of the task the form was loaded from.
func (f *TaskForm) Update() (*models.Task, error) {
	if !f.IsEditing() {
		return nil, fmt.Errorf("%w: form has no task to update", shared.ErrInvalidInput)
	}

	fields, err := f.Fields()
	if err != nil {
		return nil, err
	}

	if _, err := f.store.FindByID(f.ID); err != nil {
		return nil, err
	}

	task, err := f.store.Update(f.ID, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// parseDueDate returns nil for a blank due date.
func (f *TaskForm) parseDueDate() (*time.Time, error) {
	raw := strings.TrimSpace(f.DueDate)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, f.loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: unrecognised due date %q", shared.ErrInvalidInput, raw)
}
