package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/taskr/internal/policy"
	"github.com/desertthunder/taskr/internal/repositories"
	"github.com/desertthunder/taskr/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := r.controllerOptions()
	if err != nil {
		return err
	}

	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	api := server.NewAPI(server.APIConfig{
		Store:     repositories.NewTaskRepository(db),
		Auth:      policy.OwnerPolicy{},
		Users:     repositories.NewUserRepository(db),
		Logger:    r.logger,
		RateLimit: r.config.Server.RateLimit,
		Burst:     r.config.Server.Burst,
		Options:   opts,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx, addr, api, r.logger)
}
