package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the longest title, in characters, a task may carry.
const MaxTitleLength = 255

// TaskFields is the allow-listed set of task columns a user may write.
//
// ID, owner and bookkeeping timestamps are deliberately absent: they are assigned by the store.
type TaskFields struct {
	Title       string
	Description string     // empty means no description
	DueDate     *time.Time // nil means no due date
	IsCompleted bool
}

// Task is a persisted to-do item owned by exactly one user.
type Task struct {
	base
	owner       UserID
	title       string
	description string
	dueDate     *time.Time
	isCompleted bool
}

var _ Model = (*Task)(nil)

// NewTask creates a [Task] for owner that has not been persisted yet.
func NewTask(sequence int, owner UserID, fields TaskFields) *Task {
	t := &Task{base: newBase(sequence), owner: owner}
	t.Apply(fields)
	return t
}

func (t *Task) Owner() UserID        { return t.owner }
func (t *Task) Title() string        { return t.title }
func (t *Task) Description() string  { return t.description }
func (t *Task) DueDate() *time.Time  { return t.dueDate }
func (t *Task) IsCompleted() bool    { return t.isCompleted }
func (t *Task) HasDescription() bool { return t.description != "" }

// Apply copies the user-writable fields onto the task, one by one.
func (t *Task) Apply(fields TaskFields) {
	t.title = fields.Title
	t.description = fields.Description
	t.isCompleted = fields.IsCompleted
	t.dueDate = nil
	if fields.DueDate != nil {
		due := *fields.DueDate
		t.dueDate = &due
	}
}

// Fields returns the user-writable part of the task.
func (t *Task) Fields() TaskFields {
	fields := TaskFields{
		Title:       t.title,
		Description: t.description,
		IsCompleted: t.isCompleted,
	}
	if t.dueDate != nil {
		due := *t.dueDate
		fields.DueDate = &due
	}
	return fields
}

// Validate enforces the persisted-task invariants: an ID, an owner and a 1-255 character title.
func (t *Task) Validate() error {
	if t.id == "" {
		return fmt.Errorf("task ID is required")
	}
	if t.owner == "" {
		return fmt.Errorf("task owner is required")
	}
	return t.Fields().Validate()
}

// Validate checks the title constraints shared by inserts and updates.
func (f TaskFields) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("task title is required")
	}
	if n := utf8.RuneCountInString(f.Title); n > MaxTitleLength {
		return fmt.Errorf("task title is %d characters, maximum is %d", n, MaxTitleLength)
	}
	return nil
}
