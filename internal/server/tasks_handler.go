package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taskr/internal/formatter"
	"github.com/desertthunder/taskr/internal/forms"
	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/policy"
	"github.com/desertthunder/taskr/internal/shared"
	"github.com/desertthunder/taskr/internal/tasks"
)

const (
	routeList   = "GET /tasks"
	routeCreate = "POST /tasks"
	routeShow   = "GET /tasks/{id}"
	routeUpdate = "PUT /tasks/{id}"
	routeToggle = "POST /tasks/{id}/toggle"
	routeDelete = "DELETE /tasks/{id}"
)

// TaskHandler serves the task list JSON API. Every request gets its own [tasks.Controller].
type TaskHandler struct {
	store  models.TaskStore
	auth   policy.Authorizer
	opts   []tasks.Option
	logger *log.Logger
}

var _ Handler = (*TaskHandler)(nil)

// NewTaskHandler creates a [TaskHandler]. opts are applied to each per-request controller.
func NewTaskHandler(store models.TaskStore, auth policy.Authorizer, logger *log.Logger, opts ...tasks.Option) *TaskHandler {
	return &TaskHandler{store: store, auth: auth, opts: opts, logger: logger}
}

// Routes implements [Handler].
func (h *TaskHandler) Routes() []string {
	return []string{routeList, routeCreate, routeShow, routeUpdate, routeToggle, routeDelete}
}

// ServeHTTP dispatches on the pattern the request was matched with.
func (h *TaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, shared.ErrNotAuthenticated.Error())
		return
	}

	ctrl := tasks.NewController(h.store, h.auth, append([]tasks.Option{tasks.WithLogger(h.logger)}, h.opts...)...)

	switch r.Pattern {
	case routeList:
		h.list(w, r, ctrl, user)
	case routeCreate:
		h.create(w, r, ctrl, user)
	case routeShow:
		h.show(w, r, user)
	case routeUpdate:
		h.update(w, r, ctrl, user)
	case routeToggle:
		h.toggle(w, r, ctrl, user)
	case routeDelete:
		h.remove(w, r, ctrl, user)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

type pageResponse struct {
	Page       int                    `json:"page"`
	TotalPages int                    `json:"total_pages"`
	Total      int                    `json:"total"`
	Tasks      []formatter.TaskRecord `json:"tasks"`
}

func (h *TaskHandler) list(w http.ResponseWriter, r *http.Request, ctrl *tasks.Controller, user models.UserID) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(w, fmt.Errorf("%w: page %q is not a number", shared.ErrInvalidArgument, raw))
			return
		}
		page = n
	}

	result, err := ctrl.ListPage(user, page)
	if err != nil {
		h.fail(w, err)
		return
	}

	records := make([]formatter.TaskRecord, 0, len(result.Items))
	for _, t := range result.Items {
		records = append(records, formatter.NewTaskRecord(t))
	}
	writeJSON(w, http.StatusOK, pageResponse{
		Page:       result.Number,
		TotalPages: result.TotalPages,
		Total:      result.Total,
		Tasks:      records,
	})
}

func (h *TaskHandler) create(w http.ResponseWriter, r *http.Request, ctrl *tasks.Controller, user models.UserID) {
	ctrl.OpenCreate()
	if err := bindForm(r, ctrl.Form()); err != nil {
		h.fail(w, err)
		return
	}

	task, err := ctrl.Save(user)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, formatter.NewTaskRecord(task))
}

// show hides tasks the user may not modify behind a 404.
func (h *TaskHandler) show(w http.ResponseWriter, r *http.Request, user models.UserID) {
	task, err := h.store.FindByID(r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	if !h.auth.CanModify(user, task) {
		h.fail(w, shared.ErrTaskNotFound)
		return
	}
	writeJSON(w, http.StatusOK, formatter.NewTaskRecord(task))
}

func (h *TaskHandler) update(w http.ResponseWriter, r *http.Request, ctrl *tasks.Controller, user models.UserID) {
	if err := ctrl.OpenEdit(user, r.PathValue("id")); err != nil {
		h.fail(w, err)
		return
	}
	if err := bindForm(r, ctrl.Form()); err != nil {
		h.fail(w, err)
		return
	}

	task, err := ctrl.Save(user)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formatter.NewTaskRecord(task))
}

func (h *TaskHandler) toggle(w http.ResponseWriter, r *http.Request, ctrl *tasks.Controller, user models.UserID) {
	task, err := ctrl.ToggleComplete(user, r.PathValue("id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formatter.NewTaskRecord(task))
}

func (h *TaskHandler) remove(w http.ResponseWriter, r *http.Request, ctrl *tasks.Controller, user models.UserID) {
	if err := ctrl.Delete(user, r.PathValue("id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bindForm copies the submitted form-encoded body into the task form. Only the
// first value of each key is used.
func bindForm(r *http.Request, form *forms.TaskForm) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	for field, values := range r.PostForm {
		if len(values) == 0 {
			continue
		}
		if err := form.Set(field, values[0]); err != nil {
			return err
		}
	}
	return nil
}

// fail writes the response for err.
func (h *TaskHandler) fail(w http.ResponseWriter, err error) {
	var fieldErrs forms.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fieldErrs.Map()})
	case errors.Is(err, shared.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, shared.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrUnknownField),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
