package tasks

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taskr/internal/forms"
	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/policy"
	"github.com/desertthunder/taskr/internal/shared"
)

// DefaultPageSize is the number of tasks per page when none is configured.
const DefaultPageSize = 2

// ModalState is the create/edit dialog state.
type ModalState int

const (
	Closed ModalState = iota
	OpenForCreate
	OpenForEdit
)

func (s ModalState) String() string {
	switch s {
	case Closed:
		return "closed"
	case OpenForCreate:
		return "create"
	case OpenForEdit:
		return "edit"
	default:
		return ""
	}
}

// ViewState is the list-view state a presentation layer renders from.
type ViewState struct {
	IsModalOpen bool
	IsEditing   bool
	CurrentPage int
}

// Page is one owner-scoped slice of the task list.
type Page struct {
	Items      []*models.Task
	Number     int // 1-based
	TotalPages int // at least 1
	Total      int // live tasks across all pages
}

// HasPagination reports whether a page control is worth showing.
func (p Page) HasPagination() bool { return p.TotalPages > 1 }

// Controller holds the list-view state for one user session and applies user actions to the store.
//
// A Controller is not safe for concurrent use.
type Controller struct {
	store    models.TaskStore
	auth     policy.Authorizer
	form     *forms.TaskForm
	logger   *log.Logger
	updates  chan<- Update
	loc      *time.Location
	pageSize int

	state     ModalState
	page      int
	fieldErrs forms.FieldErrors
}

// Option configures a [Controller].
type Option func(*Controller)

// WithPageSize overrides [DefaultPageSize]. Non-positive values are ignored.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets the logger mutations are recorded on.
func WithLogger(l *log.Logger) Option { return func(c *Controller) { c.logger = l } }

// WithLocation sets the zone due dates are edited in.
func WithLocation(loc *time.Location) Option { return func(c *Controller) { c.loc = loc } }

// WithUpdates sets the channel successful mutations are reported on.
func WithUpdates(ch chan<- Update) Option { return func(c *Controller) { c.updates = ch } }

// NewController creates a [Controller] on page 1 with the modal closed.
func NewController(store models.TaskStore, auth policy.Authorizer, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		auth:     auth,
		logger:   log.New(io.Discard),
		pageSize: DefaultPageSize,
		page:     1,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.form = forms.New(store, c.loc)
	return c
}

// State returns the current view state.
func (c *Controller) State() ViewState {
	return ViewState{
		IsModalOpen: c.state != Closed,
		IsEditing:   c.state == OpenForEdit,
		CurrentPage: c.page,
	}
}

func (c *Controller) Mode() ModalState               { return c.state }
func (c *Controller) Form() *forms.TaskForm          { return c.form }
func (c *Controller) FieldErrors() forms.FieldErrors { return c.fieldErrs }
func (c *Controller) PageSize() int                  { return c.pageSize }

// Location returns the zone due dates are edited and shown in.
func (c *Controller) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// OpenCreate shows an empty form for a new task.
func (c *Controller) OpenCreate() {
	c.form.Reset()
	c.fieldErrs = nil
	c.state = OpenForCreate
}

// OpenEdit loads taskID into the form and shows it, provided user may modify the task.
// On any failure the controller state is left untouched.
func (c *Controller) OpenEdit(user models.UserID, taskID string) error {
	task, err := c.store.FindByID(taskID)
	if err != nil {
		return err
	}
	if err := policy.Require(c.auth, policy.Modify, user, task); err != nil {
		c.logger.Warn("edit denied", "user", user, "task", taskID)
		return err
	}

	c.form.Load(task)
	c.fieldErrs = nil
	c.state = OpenForEdit
	return nil
}

// Close hides the modal. The form keeps whatever was typed.
func (c *Controller) Close() {
	c.fieldErrs = nil
	c.state = Closed
}

// Save validates the form and persists it as a new task (create mode) or over the loaded task (edit mode).
//
// Validation failures are returned as [forms.FieldErrors], also kept in [Controller.FieldErrors], and leave
// the modal open. The modal closes only after a successful write.
func (c *Controller) Save(user models.UserID) (*models.Task, error) {
	if c.state == Closed {
		return nil, shared.ErrModalClosed
	}

	if errs := c.form.Validate(); errs != nil {
		c.fieldErrs = errs
		return nil, errs
	}
	c.fieldErrs = nil

	var (
		task   *models.Task
		err    error
		update func(*models.Task) Update
	)
	switch c.state {
	case OpenForEdit:
		task, err = c.saveEdit(user)
		update = updatedUpdate
	default:
		task, err = c.form.Store(user)
		update = createdUpdate
	}
	if err != nil {
		c.logger.Error("save failed", "user", user, "mode", c.state, "error", err)
		return nil, err
	}

	if c.state == OpenForCreate {
		c.form.Reset()
	}
	c.state = Closed

	c.logger.Info("task saved", "user", user, "task", task.ID())
	send(c.updates, update(task))
	return task, nil
}

// saveEdit re-reads the task being edited so that ownership and existence are checked against the stored row.
func (c *Controller) saveEdit(user models.UserID) (*models.Task, error) {
	current, err := c.store.FindByID(c.form.ID)
	if err != nil {
		return nil, err
	}
	if err := policy.Require(c.auth, policy.Modify, user, current); err != nil {
		return nil, err
	}
	return c.form.Update()
}

// ToggleComplete flips the completion flag of taskID. Only the flag is written, so edits made
// to the task by another session since it was read are kept.
func (c *Controller) ToggleComplete(user models.UserID, taskID string) (*models.Task, error) {
	task, err := c.store.FindByID(taskID)
	if err != nil {
		return nil, err
	}
	if err := policy.Require(c.auth, policy.Modify, user, task); err != nil {
		c.logger.Warn("toggle denied", "user", user, "task", taskID)
		return nil, err
	}

	updated, err := c.store.ToggleCompleted(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle task: %w", err)
	}

	c.logger.Info("task toggled", "user", user, "task", taskID, "completed", updated.IsCompleted())
	send(c.updates, toggledUpdate(updated))
	return updated, nil
}

// Delete removes taskID and returns to page 1. Deleting the task open in the modal also closes the modal.
func (c *Controller) Delete(user models.UserID, taskID string) error {
	task, err := c.store.FindByID(taskID)
	if err != nil {
		return err
	}
	if err := policy.Require(c.auth, policy.Delete, user, task); err != nil {
		c.logger.Warn("delete denied", "user", user, "task", taskID)
		return err
	}

	if err := c.store.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if c.state == OpenForEdit && c.form.ID == taskID {
		c.form.Reset()
		c.Close()
	}
	c.page = 1

	c.logger.Info("task deleted", "user", user, "task", taskID)
	send(c.updates, deletedUpdate(task))
	return nil
}

// ListPage returns page number page of user's tasks and makes it the current page.
// Pages below 1 are clamped to 1; pages past the end are empty.
func (c *Controller) ListPage(user models.UserID, page int) (Page, error) {
	page = max(page, 1)

	items, totalPages, err := c.store.Page(user, page, c.pageSize)
	if err != nil {
		return Page{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	total, err := c.store.Count(user)
	if err != nil {
		return Page{}, fmt.Errorf("failed to count tasks: %w", err)
	}

	c.page = page
	return Page{Items: items, Number: page, TotalPages: totalPages, Total: total}, nil
}

// Refresh re-lists the current page.
func (c *Controller) Refresh(user models.UserID) (Page, error) {
	return c.ListPage(user, c.page)
}
