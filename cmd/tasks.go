package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/taskr/internal/formatter"
	"github.com/desertthunder/taskr/internal/forms"
	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/repositories"
	"github.com/desertthunder/taskr/internal/shared"
	"github.com/desertthunder/taskr/internal/tasks"
	"github.com/urfave/cli/v3"
)

// requiredID returns the --id flag, rejecting blank values.
func requiredID(cmd *cli.Command) (string, error) {
	id := strings.TrimSpace(cmd.String("id"))
	if id == "" {
		return "", fmt.Errorf("%w: --id must not be blank", shared.ErrMissingArgument)
	}
	return id, nil
}

// flagFields maps task flags to the form fields they fill.
var flagFields = []struct{ flag, field string }{
	{"title", forms.FieldTitle},
	{"description", forms.FieldDescription},
	{"due", forms.FieldDueDate},
}

// bindFlags copies the task flags the user actually passed into form.
func bindFlags(cmd *cli.Command, form *forms.TaskForm) error {
	for _, f := range flagFields {
		if !cmd.IsSet(f.flag) {
			continue
		}
		if err := form.Set(f.field, cmd.String(f.flag)); err != nil {
			return err
		}
	}
	return nil
}

// reportFieldErrors prints validation failures one per line and returns err.
func (r *Runner) reportFieldErrors(err error) error {
	var fieldErrs forms.FieldErrors
	if errors.As(err, &fieldErrs) {
		r.writePlain("Task not saved:\n")
		for _, fe := range fieldErrs {
			r.writePlain("  %s: %s\n", fe.Field, fe.Message)
		}
	}
	return err
}

// TasksAdd creates a task owned by the acting user.
func (r *Runner) TasksAdd(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := r.currentUser(cmd, db)
	if err != nil {
		return err
	}
	ctrl, err := r.controller(db)
	if err != nil {
		return err
	}

	ctrl.OpenCreate()
	if err := bindFlags(cmd, ctrl.Form()); err != nil {
		return err
	}

	task, err := ctrl.Save(user.UserID())
	if err != nil {
		return r.reportFieldErrors(err)
	}
	return r.writePlain("✓ Created task %s: %s\n", task.ID(), task.Title())
}

// TasksList prints one page of the acting user's tasks.
func (r *Runner) TasksList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := r.currentUser(cmd, db)
	if err != nil {
		return err
	}
	ctrl, err := r.controller(db)
	if err != nil {
		return err
	}

	page, err := ctrl.ListPage(user.UserID(), cmd.Int("page"))
	if err != nil {
		return err
	}

	return formatter.WriteTo(r.output, &formatter.TaskExport{
		Owner:      user.UserID(),
		Page:       page.Number,
		TotalPages: page.TotalPages,
		Tasks:      page.Items,
		Location:   ctrl.Location(),
	}, format)
}

// TasksEdit changes the fields given on the command line and leaves the rest alone.
func (r *Runner) TasksEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := requiredID(cmd)
	if err != nil {
		return err
	}

	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := r.currentUser(cmd, db)
	if err != nil {
		return err
	}
	ctrl, err := r.controller(db)
	if err != nil {
		return err
	}

	if err := ctrl.OpenEdit(user.UserID(), id); err != nil {
		return err
	}
	if err := bindFlags(cmd, ctrl.Form()); err != nil {
		return err
	}
	if cmd.IsSet("completed") {
		ctrl.Form().SetCompleted(cmd.Bool("completed"))
	}

	task, err := ctrl.Save(user.UserID())
	if err != nil {
		return r.reportFieldErrors(err)
	}
	return r.writePlain("✓ Saved task %s: %s\n", task.ID(), task.Title())
}

// TasksToggle flips the completed flag of a task.
func (r *Runner) TasksToggle(ctx context.Context, cmd *cli.Command) error {
	id, err := requiredID(cmd)
	if err != nil {
		return err
	}

	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := r.currentUser(cmd, db)
	if err != nil {
		return err
	}
	ctrl, err := r.controller(db)
	if err != nil {
		return err
	}

	task, err := ctrl.ToggleComplete(user.UserID(), id)
	if err != nil {
		return err
	}
	if task.IsCompleted() {
		return r.writePlain("✓ Completed %q\n", task.Title())
	}
	return r.writePlain("✓ Reopened %q\n", task.Title())
}

// TasksDelete removes a task.
func (r *Runner) TasksDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requiredID(cmd)
	if err != nil {
		return err
	}

	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := r.currentUser(cmd, db)
	if err != nil {
		return err
	}
	ctrl, err := r.controller(db)
	if err != nil {
		return err
	}

	if err := ctrl.Delete(user.UserID(), id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted task %s\n", id)
}

// TasksExport writes every task of the acting user (or of every user with --all) to files.
func (r *Runner) TasksExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	loc, err := r.config.Tasks.Location()
	if err != nil {
		return err
	}

	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	var owners []models.UserID
	if cmd.Bool("all") {
		users, err := repositories.NewUserRepository(db).List(nil)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		for _, u := range users {
			owners = append(owners, u.UserID())
		}
	} else {
		user, err := r.currentUser(cmd, db)
		if err != nil {
			return err
		}
		owners = append(owners, user.UserID())
	}

	progress := make(chan tasks.Update, len(owners)+1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range progress {
			r.logger.Info(u.Message, "step", u.Step, "total", u.Total)
		}
	}()

	result, err := tasks.BulkExport(ctx, progress, repositories.NewTaskRepository(db), owners, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		Location:   loc,
	})
	close(progress)
	wg.Wait()
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %d of %d users to %s\n", result.SuccessfulExports, result.TotalOwners, result.OutputDirectory)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %s\n", res.Owner, res.Reason)
		}
	}
	if result.FailedExports > 0 {
		return fmt.Errorf("%d exports failed", result.FailedExports)
	}
	return nil
}
