package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestUserRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User")

		err := repo.Create(user)
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if user.ID() == "" {
			t.Error("user ID should be set after creation")
		}

		if user.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", user.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if retrieved.ID() != user.ID() {
			t.Errorf("expected ID %s, got %s", user.ID(), retrieved.ID())
		}

		if retrieved.Email() != user.Email() {
			t.Errorf("expected email %s, got %s", user.Email(), retrieved.Email())
		}
	})

	t.Run("GetByEmail", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.GetByEmail("test@example.com")
		if err != nil {
			t.Fatalf("failed to get user by email: %v", err)
		}

		if retrieved.UserID() != user.UserID() {
			t.Errorf("expected user ID %s, got %s", user.UserID(), retrieved.UserID())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		retrieved.SetName("Renamed")
		if err := repo.Update(retrieved); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		updated, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get updated user: %v", err)
		}

		if updated.Name() != "Renamed" {
			t.Errorf("expected name Renamed, got %s", updated.Name())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if err := repo.Delete(user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		_, err := repo.Get(user.ID())
		if !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound for deleted user, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)

		users := []*models.User{
			models.NewUser(0, "user1@example.com", "User One"),
			models.NewUser(0, "user2@example.com", "User Two"),
			models.NewUser(0, "user3@example.com", "User Three"),
		}

		for _, user := range users {
			if err := repo.Create(user); err != nil {
				t.Fatalf("failed to create user: %v", err)
			}
		}

		retrieved, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}

		if len(retrieved) != 3 {
			t.Errorf("expected 3 users, got %d", len(retrieved))
		}

		filtered, err := repo.List(map[string]any{"email": "user2@example.com"})
		if err != nil {
			t.Fatalf("failed to list filtered users: %v", err)
		}

		if len(filtered) != 1 {
			t.Errorf("expected 1 user, got %d", len(filtered))
		}

		if len(filtered) > 0 && filtered[0].Email() != "user2@example.com" {
			t.Errorf("expected user2@example.com, got %s", filtered[0].Email())
		}
	})
}

func TestTaskRepository(t *testing.T) {
	const owner models.UserID = "owner-1"

	t.Run("Create & FindByID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRepository(db)
		due := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

		task, err := repo.Create(owner, models.TaskFields{Title: "Buy milk", Description: "2 litres", DueDate: &due})
		if err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		if task.ID() == "" {
			t.Fatal("task ID should be assigned by the store")
		}

		if task.IsCompleted() {
			t.Error("new task should not be completed")
		}

		found, err := repo.FindByID(task.ID())
		if err != nil {
			t.Fatalf("failed to find task: %v", err)
		}

		if found.Owner() != owner {
			t.Errorf("expected owner %s, got %s", owner, found.Owner())
		}

		if found.Title() != "Buy milk" || found.Description() != "2 litres" {
			t.Errorf("unexpected title/description: %q %q", found.Title(), found.Description())
		}

		if found.DueDate() == nil || !found.DueDate().Equal(due) {
			t.Errorf("expected due date %v, got %v", due, found.DueDate())
		}
	})

	t.Run("Create without optional fields", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRepository(db)

		task, err := repo.Create(owner, models.TaskFields{Title: "Call mum"})
		if err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		found, err := repo.FindByID(task.ID())
		if err != nil {
			t.Fatalf("failed to find task: %v", err)
		}

		if found.HasDescription() {
			t.Errorf("expected no description, got %q", found.Description())
		}

		if found.DueDate() != nil {
			t.Errorf("expected no due date, got %v", found.DueDate())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRepository(db)

		task, err := repo.Create(owner, models.TaskFields{Title: "Draft", Description: "old"})
		if err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		updated, err := repo.Update(task.ID(), models.TaskFields{Title: "Final", IsCompleted: true})
		if err != nil {
			t.Fatalf("failed to update task: %v", err)
		}

		if updated.Title() != "Final" || !updated.IsCompleted() {
			t.Errorf("update not applied: title=%q completed=%v", updated.Title(), updated.IsCompleted())
		}

		if updated.HasDescription() {
			t.Errorf("expected description to be cleared, got %q", updated.Description())
		}

		if updated.Owner() != owner || updated.Sequence() != task.Sequence() {
			t.Error("update must not change owner or sequence")
		}
	})

	t.Run("ToggleCompleted", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRepository(db)

		task, err := repo.Create(owner, models.TaskFields{Title: "Walk the dog", Description: "twice"})
		if err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		// another writer renames the task after it was read
		if _, err := repo.Update(task.ID(), models.TaskFields{Title: "Walk the cat", Description: "once"}); err != nil {
			t.Fatalf("failed to update task: %v", err)
		}

		toggled, err := repo.ToggleCompleted(task.ID())
		if err != nil {
			t.Fatalf("failed to toggle task: %v", err)
		}

		if !toggled.IsCompleted() {
			t.Error("expected task to be completed after first toggle")
		}

		if toggled.Title() != "Walk the cat" || toggled.Description() != "once" {
			t.Errorf("toggle must only change the flag, got %q %q", toggled.Title(), toggled.Description())
		}

		toggled, err = repo.ToggleCompleted(task.ID())
		if err != nil {
			t.Fatalf("failed to toggle task: %v", err)
		}

		if toggled.IsCompleted() {
			t.Error("expected task to be reopened after second toggle")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRepository(db)

		task, err := repo.Create(owner, models.TaskFields{Title: "Temporary"})
		if err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		if err := repo.Delete(task.ID()); err != nil {
			t.Fatalf("failed to delete task: %v", err)
		}

		if _, err := repo.FindByID(task.ID()); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound after delete, got %v", err)
		}
	})

	t.Run("Page", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRepository(db)
		titles := []string{"A", "B", "C", "D", "E"}
		for _, title := range titles {
			if _, err := repo.Create(owner, models.TaskFields{Title: title}); err != nil {
				t.Fatalf("failed to create task %s: %v", title, err)
			}
		}
		if _, err := repo.Create("someone-else", models.TaskFields{Title: "Not mine"}); err != nil {
			t.Fatalf("failed to create foreign task: %v", err)
		}

		tests := []struct {
			name      string
			page      int
			want      []string
			wantPages int
		}{
			{name: "first page", page: 1, want: []string{"A", "B"}, wantPages: 3},
			{name: "last partial page", page: 3, want: []string{"E"}, wantPages: 3},
			{name: "past the end", page: 4, want: nil, wantPages: 3},
			{name: "clamped below one", page: 0, want: []string{"A", "B"}, wantPages: 3},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				items, totalPages, err := repo.Page(owner, tt.page, 2)
				if err != nil {
					t.Fatalf("failed to page tasks: %v", err)
				}

				if totalPages != tt.wantPages {
					t.Errorf("expected %d pages, got %d", tt.wantPages, totalPages)
				}

				if len(items) != len(tt.want) {
					t.Fatalf("expected %d items, got %d", len(tt.want), len(items))
				}

				for i, item := range items {
					if item.Title() != tt.want[i] {
						t.Errorf("item %d: expected %s, got %s", i, tt.want[i], item.Title())
					}
				}
			})
		}
	})

	t.Run("Page empty", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		items, totalPages, err := NewTaskRepository(db).Page(owner, 1, 2)
		if err != nil {
			t.Fatalf("failed to page tasks: %v", err)
		}

		if len(items) != 0 || totalPages != 1 {
			t.Errorf("expected no items and 1 page, got %d items and %d pages", len(items), totalPages)
		}
	})

	t.Run("Count & ListByOwner", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTaskRepository(db)
		for _, title := range []string{"one", "two", "three"} {
			if _, err := repo.Create(owner, models.TaskFields{Title: title}); err != nil {
				t.Fatalf("failed to create task: %v", err)
			}
		}

		total, err := repo.Count(owner)
		if err != nil {
			t.Fatalf("failed to count tasks: %v", err)
		}
		if total != 3 {
			t.Errorf("expected 3 tasks, got %d", total)
		}

		all, err := repo.ListByOwner(owner)
		if err != nil {
			t.Fatalf("failed to list tasks: %v", err)
		}
		if len(all) != 3 || all[0].Title() != "one" || all[2].Title() != "three" {
			t.Errorf("expected tasks in creation order, got %d tasks", len(all))
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	seq1, err := NextSequence(db, "users")
	if err != nil {
		t.Fatalf("failed to get first sequence: %v", err)
	}

	if seq1 != 1 {
		t.Errorf("expected first sequence to be 1, got %d", seq1)
	}

	seq2, err := NextSequence(db, "users")
	if err != nil {
		t.Fatalf("failed to get second sequence: %v", err)
	}

	if seq2 != 2 {
		t.Errorf("expected second sequence to be 2, got %d", seq2)
	}

	taskSeq, err := NextSequence(db, "tasks")
	if err != nil {
		t.Fatalf("failed to get task sequence: %v", err)
	}

	if taskSeq != 1 {
		t.Errorf("expected first task sequence to be 1, got %d", taskSeq)
	}
}
