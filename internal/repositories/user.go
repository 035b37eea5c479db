package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/shared"
)

// UserRepository implements [models.Repository] for user [models.User] persistence.
type UserRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.User] = (*UserRepository)(nil)

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, sequence, email, name, created_at, updated_at, deleted_at`

// Create inserts a new user into the database with generated ID and sequence
func (r *UserRepository) Create(user *models.User) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", shared.ErrStoreWrite, err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, "users")
	if err != nil {
		return fmt.Errorf("%w: failed to generate sequence: %w", shared.ErrStoreWrite, err)
	}

	user.SetID(shared.GenerateID())
	user.SetSequence(sequence)

	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	_, err = tx.Exec(
		`INSERT INTO users (id, sequence, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID(), sequence, user.Email(), user.Name(), user.CreatedAt(), user.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert user: %w", shared.ErrStoreWrite, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit user: %w", shared.ErrStoreWrite, err)
	}

	return nil
}

// Get retrieves a user by ID, excluding soft-deleted users
func (r *UserRepository) Get(id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? AND deleted_at IS NULL`

	user, err := scanUser(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	return user, err
}

// GetByEmail retrieves a live user by email address
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? AND deleted_at IS NULL`

	user, err := scanUser(r.db.QueryRow(query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, email)
	}
	return user, err
}

// Update modifies an existing user in the database
func (r *UserRepository) Update(user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	now := time.Now()
	user.SetUpdatedAt(now)

	result, err := r.db.Exec(
		`UPDATE users SET email = ?, name = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		user.Email(), user.Name(), now, user.ID(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to update user: %w", shared.ErrStoreWrite, err)
	}

	return rowsAffected(result, fmt.Errorf("%w: %s", shared.ErrUserNotFound, user.ID()))
}

// Delete soft-deletes a user by ID
func (r *UserRepository) Delete(id string) error {
	result, err := r.db.Exec(
		`UPDATE users SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to delete user: %w", shared.ErrStoreWrite, err)
	}

	return rowsAffected(result, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id))
}

// List retrieves all users matching the given criteria, excluding soft-deleted users
func (r *UserRepository) List(criteria map[string]any) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`
	args := []any{}

	if email, ok := criteria["email"].(string); ok && email != "" {
		query += " AND email = ?"
		args = append(args, email)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return users, nil
}

// scanUser scans one row from either [*sql.Row] or [*sql.Rows]. [sql.ErrNoRows] is returned unwrapped.
func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		id        string
		sequence  int
		email     string
		name      string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &email, &name, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user := models.NewUser(sequence, email, name)
	user.SetID(id)
	user.SetCreatedAt(createdAt)
	user.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		user.SetDeletedAt(&deletedAt.Time)
	}

	return user, nil
}
