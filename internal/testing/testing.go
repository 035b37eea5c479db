// package testing contains shared testing utilities
package testing

import (
	"database/sql"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/repositories"
	"github.com/desertthunder/taskr/internal/shared"
)

// NewTestDB opens an in-memory SQLite database with migrations applied and closes it when the test ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

// NewTestStore returns a [repositories.TaskRepository] over a fresh [NewTestDB].
func NewTestStore(t *testing.T) *repositories.TaskRepository {
	t.Helper()
	return repositories.NewTaskRepository(NewTestDB(t))
}

// MustCreateTask persists a task or fails the test.
func MustCreateTask(t *testing.T, store models.TaskStore, owner models.UserID, title string) *models.Task {
	t.Helper()
	task, err := store.Create(owner, models.TaskFields{Title: title})
	if err != nil {
		t.Fatalf("failed to create task %q: %v", title, err)
	}
	return task
}

// MustFindTask loads a task or fails the test.
func MustFindTask(t *testing.T, store models.TaskStore, id string) *models.Task {
	t.Helper()
	task, err := store.FindByID(id)
	if err != nil {
		t.Fatalf("failed to find task %s: %v", id, err)
	}
	return task
}

// Date builds a UTC time at minute resolution.
func Date(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

// StubAuthorizer answers every check with fixed values and counts calls.
type StubAuthorizer struct {
	AllowModify bool
	AllowDelete bool
	Calls       int
}

func (s *StubAuthorizer) CanModify(models.UserID, *models.Task) bool { s.Calls++; return s.AllowModify }
func (s *StubAuthorizer) CanDelete(models.UserID, *models.Task) bool { s.Calls++; return s.AllowDelete }

// ErrStoreDown is returned by [FailingStore] writes.
var ErrStoreDown = errors.New("store unavailable")

// FailingStore delegates reads to the wrapped store and fails every write.
type FailingStore struct {
	models.TaskStore
	Writes int
}

func (f *FailingStore) Create(models.UserID, models.TaskFields) (*models.Task, error) {
	f.Writes++
	return nil, ErrStoreDown
}

func (f *FailingStore) Update(string, models.TaskFields) (*models.Task, error) {
	f.Writes++
	return nil, ErrStoreDown
}

func (f *FailingStore) ToggleCompleted(string) (*models.Task, error) {
	f.Writes++
	return nil, ErrStoreDown
}

func (f *FailingStore) Delete(string) error {
	f.Writes++
	return ErrStoreDown
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
