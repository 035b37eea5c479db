package tasks

import (
	"fmt"

	"github.com/desertthunder/taskr/internal/models"
)

// Update describes a finished mutation or a step of a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type Update struct {
	Action  Action // What happened
	TaskID  string // Affected task, when there is one
	Step    int    // Current step number for multi-step operations
	Total   int    // Total steps for multi-step operations
	Message string // Human-readable message for display
	Data    any    // Optional action-specific data
}

// Action enumerates the kinds of [Update].
type Action int

const (
	Created Action = iota
	Updated
	Toggled
	Deleted
	ExportStarted
	Exported
	ExportFailed
)

func (a Action) String() string {
	switch a {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Toggled:
		return "toggled"
	case Deleted:
		return "deleted"
	case ExportStarted:
		return "export_started"
	case Exported:
		return "exported"
	case ExportFailed:
		return "export_failed"
	default:
		return ""
	}
}

// send delivers u without blocking. A nil channel or a full buffer drops the update.
func send(ch chan<- Update, u Update) {
	if ch == nil {
		return
	}
	select {
	case ch <- u:
	default:
	}
}

func createdUpdate(t *models.Task) Update {
	return Update{Action: Created, TaskID: t.ID(), Message: fmt.Sprintf("Created %q", t.Title()), Data: t}
}

func updatedUpdate(t *models.Task) Update {
	return Update{Action: Updated, TaskID: t.ID(), Message: fmt.Sprintf("Saved %q", t.Title()), Data: t}
}

func toggledUpdate(t *models.Task) Update {
	state := "not completed"
	if t.IsCompleted() {
		state = "completed"
	}
	return Update{Action: Toggled, TaskID: t.ID(), Message: fmt.Sprintf("Marked %q %s", t.Title(), state), Data: t}
}

func deletedUpdate(t *models.Task) Update {
	return Update{Action: Deleted, TaskID: t.ID(), Message: fmt.Sprintf("Deleted %q", t.Title())}
}

func exportStartedUpdate(total int) Update {
	return Update{Action: ExportStarted, Total: total, Message: fmt.Sprintf("Exporting tasks for %d users...", total)}
}

func exportedUpdate(step, total int, owner models.UserID, path string) Update {
	return Update{
		Action:  Exported,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s -> %s", step, total, owner, path),
		Data:    path,
	}
}

func exportFailedUpdate(step, total int, owner models.UserID, err error) Update {
	return Update{
		Action:  ExportFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, owner, err),
	}
}
