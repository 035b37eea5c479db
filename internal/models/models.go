// package models defines the data model for the task list
package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// TaskStore is the persistence contract the task form and list controller depend on.
//
// Every mutating call is a single atomic row write. Lookups of missing or deleted tasks
// fail with an error matching shared.ErrTaskNotFound.
type TaskStore interface {
	Create(owner UserID, fields TaskFields) (*Task, error)                        // Create persists a new task with a store-assigned ID
	FindByID(id string) (*Task, error)                                            // FindByID returns the live task with the given ID
	Update(id string, fields TaskFields) (*Task, error)                           // Update overwrites the mutable fields of a task
	ToggleCompleted(id string) (*Task, error)                                     // ToggleCompleted flips only the completion flag of a task
	Delete(id string) error                                                       // Delete removes a task
	Page(owner UserID, page, size int) (items []*Task, totalPages int, err error) // Page returns one owner-scoped page of tasks
	Count(owner UserID) (int, error)                                              // Count returns how many live tasks owner has
}
