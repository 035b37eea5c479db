// Package ui implements the interactive task list using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [ListView] : the current page of tasks with a cursor, page dots and key help
//  2. [FormView] : the create/edit modal with title, description and due date inputs
//  3. [ConfirmDeleteView] : a y/n prompt before a task is deleted
//
// The [Model] is a thin shell over [tasks.Controller]: every key press maps to one controller call,
// after which the current page is re-read from the store. Updates published by the controller arrive
// through a channel and are shown as a status line.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, n, e, space, d, q) with contextual help rendered by
// charmbracelet/bubbles/help.
package ui
