// Package models defines the domain entities and persistence interfaces of the task list.
//
// Persistent entities:
//   - [Task] : a to-do item with title, optional description and due date, and a completion flag
//   - [User] : the account that owns tasks, identified to task operations by [UserID]
//
// Entity identity (ID, owner, sequence, timestamps) is held in unexported fields and exposed through
// getters, so callers cannot reassign it. User-writable task columns travel as [TaskFields], which is
// the only way to change a task's content.
//
// [Repository] is the generic CRUD contract used for users. [TaskStore] is the narrower contract the
// task form and list controller consume.
package models
