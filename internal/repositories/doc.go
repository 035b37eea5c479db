// Package repositories implements SQLite persistence for the task list.
//
// Key Implementations:
//   - [TaskRepository] : task persistence implementing [models.TaskStore], with owner-scoped pagination
//   - [UserRepository] : user account persistence with email-based lookups
//
// Both repositories soft delete via deleted_at timestamps and exclude deleted records from every query,
// so a deleted task is reported as not found. [NextSequence] hands out per-table sequence numbers that
// give pages a deterministic order.
package repositories
