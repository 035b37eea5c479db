package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/taskr/internal/formatter"
	"github.com/desertthunder/taskr/internal/forms"
	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/shared"
	"github.com/desertthunder/taskr/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	FormView
	ConfirmDeleteView
)

// inputFields are the form fields backed by a text input, in focus order.
var inputFields = []string{forms.FieldTitle, forms.FieldDescription, forms.FieldDueDate}

// Model represents the TUI application state.
type Model struct {
	ctrl    *tasks.Controller
	user    models.UserID
	updates <-chan tasks.Update

	view          ViewState
	page          tasks.Page
	cursor        int
	inputs        []textinput.Model
	focus         int
	pendingDelete *models.Task

	status    string
	err       error
	width     int
	height    int
	paginator paginator.Model
	help      help.Model
	keys      keyMap
	formKeys  formKeyMap
	confirm   confirmKeyMap
}

// NewModel creates a TUI model for user and loads its current page. updates may be nil.
func NewModel(ctrl *tasks.Controller, user models.UserID, updates <-chan tasks.Update) *Model {
	p := paginator.New()
	p.Type = paginator.Dots
	p.ActiveDot = styles.selected.Render("•")
	p.InactiveDot = styles.help.Render("•")

	m := &Model{
		ctrl:      ctrl,
		user:      user,
		updates:   updates,
		view:      ListView,
		inputs:    newInputs(),
		paginator: p,
		help:      help.New(),
		keys:      newKeyMap(),
		formKeys:  newFormKeyMap(),
		confirm:   newConfirmKeyMap(),
	}
	m.loadPage(ctrl.State().CurrentPage)
	return m
}

func newInputs() []textinput.Model {
	title := textinput.New()
	title.Placeholder = "What needs doing?"
	title.CharLimit = models.MaxTitleLength

	desc := textinput.New()
	desc.Placeholder = "Description (optional)"

	due := textinput.New()
	due.Placeholder = "Due " + forms.InputLayout + " (optional)"

	return []textinput.Model{title, desc, due}
}

// Init starts listening for controller updates. The controller is only called from the event loop.
func (m *Model) Init() tea.Cmd {
	return m.waitForUpdate()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		for i := range m.inputs {
			m.inputs[i].Width = max(msg.Width-16, 20)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case FormView:
			return m.handleFormKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgTaskUpdate:
			m.status = msg.data.(tasks.Update).Message
			return m, m.waitForUpdate()
		case MsgUpdatesClosed:
			m.updates = nil
			return m, nil
		}
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case FormView:
		return m.renderForm()
	case ConfirmDeleteView:
		return m.renderConfirm()
	default:
		return m.renderList()
	}
}

// ViewState returns the view currently shown.
func (m *Model) ViewState() ViewState { return m.view }

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.down):
		if m.cursor < len(m.page.Items)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.prev):
		if m.page.Number > 1 {
			m.loadPage(m.page.Number - 1)
		}

	case key.Matches(msg, m.keys.next):
		if m.page.Number < m.page.TotalPages {
			m.loadPage(m.page.Number + 1)
		}

	case key.Matches(msg, m.keys.create):
		m.ctrl.OpenCreate()
		return m, m.openForm()

	case key.Matches(msg, m.keys.edit):
		task := m.selected()
		if task == nil {
			return m, nil
		}
		if err := m.ctrl.OpenEdit(m.user, task.ID()); err != nil {
			m.fail(err)
			return m, nil
		}
		return m, m.openForm()

	case key.Matches(msg, m.keys.toggle):
		task := m.selected()
		if task == nil {
			return m, nil
		}
		if _, err := m.ctrl.ToggleComplete(m.user, task.ID()); err != nil {
			m.fail(err)
		}
		m.reload()

	case key.Matches(msg, m.keys.remove):
		if task := m.selected(); task != nil {
			m.pendingDelete = task
			m.view = ConfirmDeleteView
		}
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.confirm.yes):
		if err := m.ctrl.Delete(m.user, m.pendingDelete.ID()); err != nil {
			m.fail(err)
		}
		m.pendingDelete = nil
		m.view = ListView
		m.cursor = 0
		m.reload()

	case key.Matches(msg, m.confirm.no):
		m.pendingDelete = nil
		m.view = ListView
	}
	return m, nil
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formKeys.cancel):
		m.syncForm()
		m.ctrl.Close()
		m.view = ListView
		return m, nil

	case key.Matches(msg, m.formKeys.next):
		return m, m.focusInput(m.focus + 1)

	case key.Matches(msg, m.formKeys.prev):
		return m, m.focusInput(m.focus - 1)

	case key.Matches(msg, m.formKeys.save):
		return m, m.submit()

	case key.Matches(msg, m.formKeys.submit):
		if m.focus == len(m.inputs)-1 {
			return m, m.submit()
		}
		return m, m.focusInput(m.focus + 1)

	case key.Matches(msg, m.formKeys.complete):
		if m.ctrl.State().IsEditing {
			form := m.ctrl.Form()
			form.SetCompleted(!form.IsCompleted)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// openForm copies the controller's form into the inputs and focuses the title.
func (m *Model) openForm() tea.Cmd {
	form := m.ctrl.Form()
	values := []string{form.Title, form.Description, form.DueDate}
	for i := range m.inputs {
		m.inputs[i].SetValue(values[i])
		m.inputs[i].CursorEnd()
	}
	m.err = nil
	m.view = FormView
	return m.focusInput(0)
}

// focusInput focuses input i (wrapping around) and blurs the rest.
func (m *Model) focusInput(i int) tea.Cmd {
	n := len(m.inputs)
	m.focus = ((i % n) + n) % n

	var cmd tea.Cmd
	for j := range m.inputs {
		if j == m.focus {
			cmd = m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return cmd
}

// syncForm copies the inputs into the controller's form.
func (m *Model) syncForm() {
	form := m.ctrl.Form()
	for i, field := range inputFields {
		if err := form.Set(field, m.inputs[i].Value()); err != nil {
			m.err = err
		}
	}
}

// submit saves the form. Field errors keep the form open and move focus to the first bad field.
func (m *Model) submit() tea.Cmd {
	m.syncForm()

	task, err := m.ctrl.Save(m.user)
	var fieldErrs forms.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		for i, field := range inputFields {
			if fieldErrs.Has(field) {
				return m.focusInput(i)
			}
		}
		return nil
	case err != nil:
		m.fail(err)
		return nil
	}

	m.err = nil
	m.status = fmt.Sprintf("Saved %q", task.Title())
	m.view = ListView
	m.reload()
	return nil
}

func (m *Model) selected() *models.Task {
	if m.cursor < 0 || m.cursor >= len(m.page.Items) {
		return nil
	}
	return m.page.Items[m.cursor]
}

// loadPage switches to page n synchronously.
func (m *Model) loadPage(n int) {
	page, err := m.ctrl.ListPage(m.user, n)
	m.setPage(page, err)
	m.cursor = 0
}

// reload re-reads the controller's current page, stepping back when it has become empty.
func (m *Model) reload() {
	page, err := m.ctrl.Refresh(m.user)
	if err == nil && len(page.Items) == 0 && page.Number > 1 {
		page, err = m.ctrl.ListPage(m.user, page.TotalPages)
	}
	m.setPage(page, err)
}

func (m *Model) setPage(page tasks.Page, err error) {
	if err != nil {
		m.fail(err)
		return
	}
	m.page = page
	m.paginator.TotalPages = page.TotalPages
	m.paginator.Page = page.Number - 1
	if m.cursor >= len(page.Items) {
		m.cursor = max(len(page.Items)-1, 0)
	}
}

func (m *Model) fail(err error) {
	m.err = err
	m.status = ""
}

func (m *Model) waitForUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-m.updates
		if !ok {
			return updatesClosedMsg()
		}
		return taskUpdateMsg(update)
	}
}

func (m *Model) renderList() string {
	var b strings.Builder

	heading := "Tasks"
	if m.page.Total > 0 {
		heading = fmt.Sprintf("Tasks (%d)", m.page.Total)
	}
	b.WriteString(styles.title.Render(heading))
	b.WriteString("\n")

	if len(m.page.Items) == 0 {
		if m.page.Total == 0 {
			b.WriteString(styles.help.Render("No tasks yet. Press n to create one."))
		} else {
			b.WriteString(styles.help.Render("Nothing on this page."))
		}
		b.WriteString("\n")
	}

	for i, task := range m.page.Items {
		b.WriteString(renderTask(task, i == m.cursor, m.ctrl.Location()))
		b.WriteString("\n")
	}

	if m.page.HasPagination() {
		b.WriteString(fmt.Sprintf("\n%s  page %d of %d\n", m.paginator.View(), m.page.Number, m.page.TotalPages))
	}

	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.listHelp()))
	return b.String()
}

func (m *Model) listHelp() []key.Binding {
	bindings := m.keys.ShortHelp()
	if m.page.HasPagination() {
		bindings = append([]key.Binding{m.keys.prev, m.keys.next}, bindings...)
	}
	return bindings
}

func (m *Model) renderForm() string {
	var b strings.Builder

	editing := m.ctrl.State().IsEditing
	heading := "New task"
	if editing {
		heading = "Edit task"
	}
	b.WriteString(styles.title.Render(heading))
	b.WriteString("\n")

	labels := []string{"Title", "Description", "Due date"}
	errs := m.ctrl.FieldErrors()
	for i, input := range m.inputs {
		b.WriteString(styles.label.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(input.View())
		b.WriteString("\n")
		if msg := errs.Get(inputFields[i]); msg != "" {
			b.WriteString(styles.err.Render("  " + msg))
			b.WriteString("\n")
		}
	}

	if editing {
		b.WriteString(fmt.Sprintf("\n%s Completed\n", formatter.Checkbox(m.ctrl.Form().IsCompleted)))
	}
	if msg := errs.Get(forms.FieldIsCompleted); msg != "" {
		b.WriteString(styles.err.Render(msg))
		b.WriteString("\n")
	}

	bindings := []key.Binding{m.formKeys.next, m.formKeys.prev, m.formKeys.save, m.formKeys.cancel}
	if editing {
		bindings = append(bindings, m.formKeys.complete)
	}

	body := styles.modal.Render(strings.TrimRight(b.String(), "\n"))
	return fmt.Sprintf("%s\n%s\n%s", body, m.renderStatus(), m.help.ShortHelpView(bindings))
}

func (m *Model) renderConfirm() string {
	title := styles.warn.Render(fmt.Sprintf("Delete %q?", m.pendingDelete.Title()))
	helpView := m.help.ShortHelpView([]key.Binding{m.confirm.yes, m.confirm.no})
	return fmt.Sprintf("%s\n\n%s", title, helpView)
}

func (m *Model) renderStatus() string {
	if m.err != nil {
		return styles.err.Render("Error: " + describeError(m.err))
	}
	if m.status != "" {
		return styles.ok.Render(m.status)
	}
	return ""
}

// describeError turns controller errors into a message for the status line.
func describeError(err error) string {
	switch {
	case errors.Is(err, shared.ErrPermissionDenied):
		return "you are not allowed to change that task"
	case errors.Is(err, shared.ErrTaskNotFound):
		return "that task no longer exists"
	default:
		return err.Error()
	}
}
