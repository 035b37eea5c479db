// Package policy decides which users may change which tasks.
package policy

import (
	"fmt"

	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/shared"
)

// Authorizer answers whether user may mutate or delete task.
type Authorizer interface {
	CanModify(user models.UserID, task *models.Task) bool
	CanDelete(user models.UserID, task *models.Task) bool
}

// OwnerPolicy grants both permissions to the task's owner and nobody else.
type OwnerPolicy struct{}

var _ Authorizer = OwnerPolicy{}

func (OwnerPolicy) CanModify(user models.UserID, task *models.Task) bool { return isOwner(user, task) }
func (OwnerPolicy) CanDelete(user models.UserID, task *models.Task) bool { return isOwner(user, task) }

func isOwner(user models.UserID, task *models.Task) bool {
	return user != "" && task != nil && task.Owner() == user
}

// Action names a permission checked by [Require].
type Action int

const (
	Modify Action = iota
	Delete
)

func (a Action) String() string {
	switch a {
	case Modify:
		return "modify"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Require returns an error wrapping [shared.ErrPermissionDenied] unless auth allows user to perform action on task.
func Require(auth Authorizer, action Action, user models.UserID, task *models.Task) error {
	var allowed bool
	switch action {
	case Modify:
		allowed = auth.CanModify(user, task)
	case Delete:
		allowed = auth.CanDelete(user, task)
	}
	if allowed {
		return nil
	}
	if task == nil {
		return fmt.Errorf("%w: %s may not %s a missing task", shared.ErrPermissionDenied, user, action)
	}
	return fmt.Errorf("%w: %s may not %s task %s", shared.ErrPermissionDenied, user, action, task.ID())
}
