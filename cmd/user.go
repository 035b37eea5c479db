package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/repositories"
	"github.com/urfave/cli/v3"
)

// UserAdd creates a user that --user can refer to.
func (r *Runner) UserAdd(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	user := models.NewUser(0, cmd.String("email"), cmd.String("name"))
	if err := repositories.NewUserRepository(db).Create(user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info("user created", "id", user.ID(), "email", user.Email())
	return r.writePlain("✓ Created user %s (%s)\n", user.Email(), user.ID())
}

type userRecord struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// UserList prints every user.
func (r *Runner) UserList(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	users, err := repositories.NewUserRepository(db).List(nil)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if cmd.Bool("json") {
		records := make([]userRecord, 0, len(users))
		for _, u := range users {
			records = append(records, userRecord{ID: u.ID(), Email: u.Email(), Name: u.Name()})
		}
		return r.writeJSON(records, true)
	}

	if len(users) == 0 {
		return r.writePlain("No users yet. Run 'taskr user add --email you@example.com'.\n")
	}
	for _, u := range users {
		r.writePlain("%s  %s  %s\n", u.ID(), u.Email(), u.Name())
	}
	return nil
}
