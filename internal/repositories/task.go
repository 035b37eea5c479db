package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/shared"
)

// TaskRepository implements [models.TaskStore] on SQLite.
type TaskRepository struct {
	db *sql.DB
}

var _ models.TaskStore = (*TaskRepository)(nil)

// NewTaskRepository creates a new [TaskRepository] with the given database connection
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, sequence, owner_id, title, description, due_date, is_completed, created_at, updated_at, deleted_at`

// Create inserts a task for owner. The ID and sequence are assigned here.
func (r *TaskRepository) Create(owner models.UserID, fields models.TaskFields) (*models.Task, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", shared.ErrStoreWrite, err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, "tasks")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate sequence: %w", shared.ErrStoreWrite, err)
	}

	task := models.NewTask(sequence, owner, fields)
	task.SetID(shared.GenerateID())

	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	_, err = tx.Exec(
		`INSERT INTO tasks (id, sequence, owner_id, title, description, due_date, is_completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID(), sequence, string(owner), task.Title(), nullString(task.Description()),
		nullTime(task.DueDate()), task.IsCompleted(), task.CreatedAt(), task.UpdatedAt(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert task: %w", shared.ErrStoreWrite, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: failed to commit task: %w", shared.ErrStoreWrite, err)
	}

	return task, nil
}

// FindByID retrieves a live task by ID
func (r *TaskRepository) FindByID(id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND deleted_at IS NULL`

	task, err := scanTask(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	return task, err
}

// Update overwrites the mutable columns of a live task in a single statement and returns the stored row.
func (r *TaskRepository) Update(id string, fields models.TaskFields) (*models.Task, error) {
	if err := fields.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	result, err := r.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, due_date = ?, is_completed = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		fields.Title, nullString(fields.Description), nullTime(fields.DueDate), fields.IsCompleted,
		time.Now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to update task: %w", shared.ErrStoreWrite, err)
	}

	if err := rowsAffected(result, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)); err != nil {
		return nil, err
	}

	return r.FindByID(id)
}

// ToggleCompleted flips is_completed of a live task in a single statement and leaves the other columns untouched.
func (r *TaskRepository) ToggleCompleted(id string) (*models.Task, error) {
	result, err := r.db.Exec(
		`UPDATE tasks SET is_completed = NOT is_completed, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to toggle task: %w", shared.ErrStoreWrite, err)
	}

	if err := rowsAffected(result, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)); err != nil {
		return nil, err
	}

	return r.FindByID(id)
}

// Delete soft-deletes a task by ID
func (r *TaskRepository) Delete(id string) error {
	result, err := r.db.Exec(
		`UPDATE tasks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to delete task: %w", shared.ErrStoreWrite, err)
	}

	return rowsAffected(result, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id))
}

// Count returns the number of live tasks owned by owner
func (r *TaskRepository) Count(owner models.UserID) (int, error) {
	var total int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM tasks WHERE owner_id = ? AND deleted_at IS NULL`, string(owner),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return total, nil
}

// Page returns the page-th (1-based) slice of owner's tasks in sequence order.
//
// Pages below 1 are treated as page 1. totalPages is never less than 1, and a page
// past the end yields no items.
func (r *TaskRepository) Page(owner models.UserID, page, size int) ([]*models.Task, int, error) {
	if size < 1 {
		return nil, 0, fmt.Errorf("%w: page size must be positive, got %d", shared.ErrInvalidArgument, size)
	}
	page = max(page, 1)

	total, err := r.Count(owner)
	if err != nil {
		return nil, 0, err
	}
	totalPages := max(1, (total+size-1)/size)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ? AND deleted_at IS NULL
		ORDER BY sequence ASC LIMIT ? OFFSET ?`
	tasks, err := r.query(query, string(owner), size, (page-1)*size)
	if err != nil {
		return nil, 0, err
	}

	return tasks, totalPages, nil
}

// ListByOwner returns every live task owned by owner in sequence order
func (r *TaskRepository) ListByOwner(owner models.UserID) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ? AND deleted_at IS NULL ORDER BY sequence ASC`
	return r.query(query, string(owner))
}

func (r *TaskRepository) query(query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tasks, nil
}

// scanTask scans one row from either [*sql.Row] or [*sql.Rows]. [sql.ErrNoRows] is returned unwrapped.
func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	var (
		id          string
		sequence    int
		owner       string
		title       string
		description sql.NullString
		dueDate     sql.NullTime
		isCompleted bool
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &owner, &title, &description, &dueDate, &isCompleted, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	fields := models.TaskFields{
		Title:       title,
		Description: description.String,
		IsCompleted: isCompleted,
	}
	if dueDate.Valid {
		fields.DueDate = &dueDate.Time
	}

	task := models.NewTask(sequence, models.UserID(owner), fields)
	task.SetID(id)
	task.SetCreatedAt(createdAt)
	task.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		task.SetDeletedAt(&deletedAt.Time)
	}

	return task, nil
}
