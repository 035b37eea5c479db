package tasks

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/taskr/internal/forms"
	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/policy"
	"github.com/desertthunder/taskr/internal/repositories"
	"github.com/desertthunder/taskr/internal/shared"
	tu "github.com/desertthunder/taskr/internal/testing"
)

const (
	alice models.UserID = "U1"
	bob   models.UserID = "U2"
)

func newController(t *testing.T, opts ...Option) (*Controller, *repositories.TaskRepository) {
	t.Helper()
	store := tu.NewTestStore(t)
	opts = append([]Option{WithLocation(time.UTC)}, opts...)
	return NewController(store, policy.OwnerPolicy{}, opts...), store
}

// racingStore runs edit once, right after the first FindByID returns, as if another
// session changed the task between the controller's read and its write.
type racingStore struct {
	models.TaskStore
	edit func()
	done bool
}

func (s *racingStore) FindByID(id string) (*models.Task, error) {
	task, err := s.TaskStore.FindByID(id)
	if !s.done {
		s.done = true
		s.edit()
	}
	return task, err
}

func mustSet(t *testing.T, c *Controller, field, value string) {
	t.Helper()
	if err := c.Form().Set(field, value); err != nil {
		t.Fatalf("Set(%q) failed: %v", field, err)
	}
}

func TestController(t *testing.T) {
	t.Run("initial state", func(t *testing.T) {
		c, _ := newController(t)

		if got := c.State(); got != (ViewState{CurrentPage: 1}) {
			t.Errorf("unexpected initial state: %+v", got)
		}
		if c.PageSize() != DefaultPageSize {
			t.Errorf("expected default page size %d, got %d", DefaultPageSize, c.PageSize())
		}
	})

	t.Run("create, toggle, delete", func(t *testing.T) {
		c, store := newController(t)

		c.OpenCreate()
		if s := c.State(); !s.IsModalOpen || s.IsEditing {
			t.Fatalf("expected create modal, got %+v", s)
		}

		mustSet(t, c, forms.FieldTitle, "Buy milk")
		task, err := c.Save(alice)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if c.Mode() != Closed {
			t.Errorf("expected modal closed after save, got %s", c.Mode())
		}
		if c.Form().Title != "" {
			t.Error("form should be reset after a successful create")
		}

		stored := tu.MustFindTask(t, store, task.ID())
		if stored.Owner() != alice || stored.Title() != "Buy milk" || stored.HasDescription() || stored.DueDate() != nil || stored.IsCompleted() {
			t.Fatalf("unexpected stored task: %+v", stored.Fields())
		}

		toggled, err := c.ToggleComplete(alice, task.ID())
		if err != nil {
			t.Fatalf("ToggleComplete failed: %v", err)
		}
		if !toggled.IsCompleted() || !tu.MustFindTask(t, store, task.ID()).IsCompleted() {
			t.Error("expected task to be completed after toggle")
		}

		if err := c.Delete(alice, task.ID()); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.FindByID(task.ID()); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound after delete, got %v", err)
		}
	})

	t.Run("validation keeps modal open", func(t *testing.T) {
		c, store := newController(t)

		c.OpenCreate()
		mustSet(t, c, forms.FieldTitle, "   ")
		mustSet(t, c, forms.FieldDueDate, "not-a-date")

		_, err := c.Save(alice)
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if c.Mode() != OpenForCreate {
			t.Errorf("expected modal to stay open, got %s", c.Mode())
		}
		errs := c.FieldErrors()
		if !errs.Has(forms.FieldTitle) || !errs.Has(forms.FieldDueDate) {
			t.Errorf("expected title and due date errors, got %v", errs)
		}
		if total, _ := store.Count(alice); total != 0 {
			t.Errorf("expected nothing persisted, got %d", total)
		}

		mustSet(t, c, forms.FieldTitle, "Fixed")
		mustSet(t, c, forms.FieldDueDate, "")
		if _, err := c.Save(alice); err != nil {
			t.Fatalf("Save after fix failed: %v", err)
		}
		if c.FieldErrors() != nil {
			t.Error("field errors should clear after a successful save")
		}
	})

	t.Run("save while closed", func(t *testing.T) {
		c, _ := newController(t)

		if _, err := c.Save(alice); !errors.Is(err, shared.ErrModalClosed) {
			t.Fatalf("expected ErrModalClosed, got %v", err)
		}
	})

	t.Run("edit", func(t *testing.T) {
		c, store := newController(t)
		task := tu.MustCreateTask(t, store, alice, "Draft")

		if err := c.OpenEdit(alice, task.ID()); err != nil {
			t.Fatalf("OpenEdit failed: %v", err)
		}
		if s := c.State(); !s.IsModalOpen || !s.IsEditing || c.Form().ID != task.ID() {
			t.Fatalf("expected edit modal for %s, got %+v", task.ID(), s)
		}

		mustSet(t, c, forms.FieldTitle, "Final")
		mustSet(t, c, forms.FieldIsCompleted, "true")
		saved, err := c.Save(alice)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if saved.ID() != task.ID() || saved.Title() != "Final" || !saved.IsCompleted() {
			t.Errorf("unexpected saved task: %+v", saved.Fields())
		}
		if c.Mode() != Closed {
			t.Errorf("expected modal closed, got %s", c.Mode())
		}
	})

	t.Run("edit of another user's task is denied", func(t *testing.T) {
		c, store := newController(t)
		task := tu.MustCreateTask(t, store, bob, "Bob's")

		err := c.OpenEdit(alice, task.ID())
		if !errors.Is(err, shared.ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
		if c.Mode() != Closed || c.Form().ID != "" {
			t.Errorf("state must not change on denial: mode=%s form=%q", c.Mode(), c.Form().ID)
		}
	})

	t.Run("edit of a missing task", func(t *testing.T) {
		c, _ := newController(t)

		if err := c.OpenEdit(alice, "missing"); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Fatalf("expected ErrTaskNotFound, got %v", err)
		}
		if c.State().IsModalOpen {
			t.Error("modal should stay closed")
		}
	})

	t.Run("save re-checks the stored task", func(t *testing.T) {
		c, store := newController(t)
		task := tu.MustCreateTask(t, store, alice, "Mine")

		if err := c.OpenEdit(alice, task.ID()); err != nil {
			t.Fatalf("OpenEdit failed: %v", err)
		}
		if err := store.Delete(task.ID()); err != nil {
			t.Fatalf("failed to delete task: %v", err)
		}

		mustSet(t, c, forms.FieldTitle, "Too late")
		if _, err := c.Save(alice); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Fatalf("expected ErrTaskNotFound, got %v", err)
		}
		if c.Mode() != OpenForEdit {
			t.Errorf("modal should stay open after a failed save, got %s", c.Mode())
		}
	})

	t.Run("save denied by policy at save time", func(t *testing.T) {
		store := tu.NewTestStore(t)
		auth := &tu.StubAuthorizer{AllowModify: true}
		c := NewController(store, auth)
		task := tu.MustCreateTask(t, store, alice, "Mine")

		if err := c.OpenEdit(alice, task.ID()); err != nil {
			t.Fatalf("OpenEdit failed: %v", err)
		}
		auth.AllowModify = false

		mustSet(t, c, forms.FieldTitle, "Changed")
		if _, err := c.Save(alice); !errors.Is(err, shared.ErrPermissionDenied) {
			t.Fatalf("expected ErrPermissionDenied, got %v", err)
		}
		if got := tu.MustFindTask(t, store, task.ID()).Title(); got != "Mine" {
			t.Errorf("expected title unchanged, got %q", got)
		}
	})

	t.Run("close keeps unsaved edits", func(t *testing.T) {
		c, _ := newController(t)

		c.OpenCreate()
		mustSet(t, c, forms.FieldTitle, "Half typed")
		c.Close()

		if c.State().IsModalOpen {
			t.Error("modal should be closed")
		}
		if c.Form().Title != "Half typed" {
			t.Errorf("expected form to keep input, got %q", c.Form().Title)
		}
	})

	t.Run("toggle and delete require permission", func(t *testing.T) {
		c, store := newController(t)
		task := tu.MustCreateTask(t, store, bob, "Bob's")

		if _, err := c.ToggleComplete(alice, task.ID()); !errors.Is(err, shared.ErrPermissionDenied) {
			t.Errorf("expected toggle to be denied, got %v", err)
		}
		if err := c.Delete(alice, task.ID()); !errors.Is(err, shared.ErrPermissionDenied) {
			t.Errorf("expected delete to be denied, got %v", err)
		}

		stored := tu.MustFindTask(t, store, task.ID())
		if stored.IsCompleted() {
			t.Error("denied toggle must not mutate")
		}
	})

	t.Run("toggle and delete on missing task", func(t *testing.T) {
		c, _ := newController(t)

		if _, err := c.ToggleComplete(alice, "missing"); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound, got %v", err)
		}
		if err := c.Delete(alice, "missing"); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound, got %v", err)
		}
	})

	t.Run("delete closes modal editing the same task", func(t *testing.T) {
		c, store := newController(t)
		task := tu.MustCreateTask(t, store, alice, "Doomed")

		if err := c.OpenEdit(alice, task.ID()); err != nil {
			t.Fatalf("OpenEdit failed: %v", err)
		}
		if err := c.Delete(alice, task.ID()); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if c.State().IsModalOpen || c.Form().IsEditing() {
			t.Error("modal should close and leave edit mode")
		}
	})

	t.Run("toggle keeps concurrent edits", func(t *testing.T) {
		base := tu.NewTestStore(t)
		task := tu.MustCreateTask(t, base, alice, "original")
		store := &racingStore{TaskStore: base, edit: func() {
			if _, err := base.Update(task.ID(), models.TaskFields{Title: "renamed elsewhere"}); err != nil {
				t.Fatalf("concurrent update failed: %v", err)
			}
		}}
		c := NewController(store, policy.OwnerPolicy{})

		toggled, err := c.ToggleComplete(alice, task.ID())
		if err != nil {
			t.Fatalf("ToggleComplete failed: %v", err)
		}

		stored := tu.MustFindTask(t, base, task.ID())
		if stored.Title() != "renamed elsewhere" || !stored.IsCompleted() {
			t.Errorf("expected renamed, completed task, got title=%q completed=%v", stored.Title(), stored.IsCompleted())
		}
		if toggled.Title() != "renamed elsewhere" {
			t.Errorf("returned task should reflect the stored row, got %q", toggled.Title())
		}
	})

	t.Run("store write failure", func(t *testing.T) {
		base := tu.NewTestStore(t)
		task := tu.MustCreateTask(t, base, alice, "Stuck")
		store := &tu.FailingStore{TaskStore: base}
		c := NewController(store, policy.OwnerPolicy{})

		if _, err := c.ToggleComplete(alice, task.ID()); !errors.Is(err, tu.ErrStoreDown) {
			t.Errorf("expected store error, got %v", err)
		}

		c.OpenCreate()
		mustSet(t, c, forms.FieldTitle, "New")
		if _, err := c.Save(alice); !errors.Is(err, tu.ErrStoreDown) {
			t.Errorf("expected store error, got %v", err)
		}
		if c.Mode() != OpenForCreate {
			t.Errorf("modal should stay open after a write failure, got %s", c.Mode())
		}
	})
}

func TestListPage(t *testing.T) {
	t.Run("pagination scenario", func(t *testing.T) {
		c, store := newController(t)
		tu.MustCreateTask(t, store, alice, "first")
		tu.MustCreateTask(t, store, alice, "second")
		tu.MustCreateTask(t, store, bob, "someone else's")

		page, err := c.ListPage(alice, 1)
		if err != nil {
			t.Fatalf("ListPage failed: %v", err)
		}
		if len(page.Items) != 2 || page.TotalPages != 1 || page.Total != 2 || page.HasPagination() {
			t.Fatalf("unexpected page: items=%d pages=%d total=%d", len(page.Items), page.TotalPages, page.Total)
		}

		tu.MustCreateTask(t, store, alice, "third")
		page, err = c.ListPage(alice, 2)
		if err != nil {
			t.Fatalf("ListPage failed: %v", err)
		}
		if len(page.Items) != 1 || page.Items[0].Title() != "third" || page.TotalPages != 2 {
			t.Fatalf("unexpected second page: items=%d pages=%d", len(page.Items), page.TotalPages)
		}
		if c.State().CurrentPage != 2 {
			t.Errorf("expected current page 2, got %d", c.State().CurrentPage)
		}
	})

	t.Run("clamps and overflows", func(t *testing.T) {
		c, store := newController(t)
		tu.MustCreateTask(t, store, alice, "only")

		page, err := c.ListPage(alice, -3)
		if err != nil {
			t.Fatalf("ListPage failed: %v", err)
		}
		if page.Number != 1 || len(page.Items) != 1 {
			t.Errorf("expected page 1 with one item, got page %d with %d", page.Number, len(page.Items))
		}

		page, err = c.ListPage(alice, 9)
		if err != nil {
			t.Fatalf("ListPage failed: %v", err)
		}
		if len(page.Items) != 0 || page.TotalPages != 1 {
			t.Errorf("expected empty overflow page, got %d items of %d pages", len(page.Items), page.TotalPages)
		}
	})

	t.Run("empty list has one page", func(t *testing.T) {
		c, _ := newController(t)

		page, err := c.ListPage(alice, 1)
		if err != nil {
			t.Fatalf("ListPage failed: %v", err)
		}
		if page.TotalPages != 1 || page.Total != 0 || len(page.Items) != 0 {
			t.Errorf("unexpected empty page: %+v", page)
		}
	})

	t.Run("configured page size", func(t *testing.T) {
		c, store := newController(t, WithPageSize(3), WithPageSize(0))
		for _, title := range []string{"a", "b", "c", "d"} {
			tu.MustCreateTask(t, store, alice, title)
		}

		page, err := c.ListPage(alice, 1)
		if err != nil {
			t.Fatalf("ListPage failed: %v", err)
		}
		if len(page.Items) != 3 || page.TotalPages != 2 {
			t.Errorf("expected 3 items over 2 pages, got %d over %d", len(page.Items), page.TotalPages)
		}
	})

	t.Run("delete on last page resets to page one", func(t *testing.T) {
		c, store := newController(t)
		tu.MustCreateTask(t, store, alice, "a")
		tu.MustCreateTask(t, store, alice, "b")
		last := tu.MustCreateTask(t, store, alice, "c")

		if _, err := c.ListPage(alice, 2); err != nil {
			t.Fatalf("ListPage failed: %v", err)
		}
		if err := c.Delete(alice, last.ID()); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if c.State().CurrentPage != 1 {
			t.Fatalf("expected current page 1, got %d", c.State().CurrentPage)
		}

		page, err := c.Refresh(alice)
		if err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
		if len(page.Items) == 0 {
			t.Error("expected remaining tasks on page 1")
		}
	})
}

func TestUpdates(t *testing.T) {
	t.Run("mutations are reported", func(t *testing.T) {
		ch := make(chan Update, 10)
		c, _ := newController(t, WithUpdates(ch))

		c.OpenCreate()
		mustSet(t, c, forms.FieldTitle, "Report me")
		task, err := c.Save(alice)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if _, err := c.ToggleComplete(alice, task.ID()); err != nil {
			t.Fatalf("ToggleComplete failed: %v", err)
		}
		if err := c.Delete(alice, task.ID()); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		close(ch)

		var got []Action
		for u := range ch {
			if u.TaskID != task.ID() {
				t.Errorf("update for wrong task: %s", u.TaskID)
			}
			got = append(got, u.Action)
		}
		want := []Action{Created, Toggled, Deleted}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("update %d: expected %s, got %s", i, want[i], got[i])
			}
		}
	})

	t.Run("non-blocking", func(t *testing.T) {
		ch := make(chan Update)
		c, _ := newController(t, WithUpdates(ch))

		done := make(chan struct{})
		go func() {
			defer close(done)
			c.OpenCreate()
			_ = c.Form().Set(forms.FieldTitle, "Nobody listens")
			if _, err := c.Save(alice); err != nil {
				t.Errorf("Save failed: %v", err)
			}
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Save blocked on an unread updates channel")
		}
	})
}
