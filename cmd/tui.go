package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/taskr/internal/shared"
	"github.com/desertthunder/taskr/internal/tasks"
	"github.com/desertthunder/taskr/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive task list for the acting user.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := r.currentUser(cmd, db)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	updates := make(chan tasks.Update, 16)
	ctrl, err := r.controller(db, tasks.WithUpdates(updates))
	if err != nil {
		return err
	}

	model := ui.NewModel(ctrl, user.UserID(), updates)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err = p.Run()
	close(updates)
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
