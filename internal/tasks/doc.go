// Package tasks drives the task list: which page is shown, whether the create/edit modal is open,
// and every mutation a user can trigger from the list.
//
// # Modal lifecycle
//
// A [Controller] is always in one of three [ModalState]s:
//
//  1. [Closed] : only the list is shown
//  2. [OpenForCreate] : the form is empty and saving creates a task owned by the acting user
//  3. [OpenForEdit] : the form holds an existing task and saving overwrites it
//
// [Controller.OpenCreate] and [Controller.OpenEdit] open the modal, [Controller.Close] hides it without
// discarding the form, and [Controller.Save] validates, persists and closes. A failed validation keeps the
// modal open with [Controller.FieldErrors] set.
//
// # Authorization
//
// Every operation that touches an existing task loads it from the store first and asks the
// [policy.Authorizer] before doing anything else. Saving an edit repeats the check against the freshly
// loaded row, so a task that changed hands or disappeared after the modal opened is never overwritten.
//
// # Updates
//
// Successful mutations emit an [Update] on the optional channel passed with [WithUpdates]. Sends never
// block; a full channel drops the update.
//
// # Bulk export
//
// [BulkExport] writes every listed owner's tasks to files with a worker pool and reports per-owner
// results plus a JSON manifest.
package tasks
