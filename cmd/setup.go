package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/desertthunder/taskr/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase writes the config file if it is missing, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else if err := r.loadConfig(configPath); err != nil {
			r.logger.Warn("failed to load created config, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	version, _, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s (schema version %d)\n", r.config.Database.Path, version)
}

// SetupStatus prints the applied schema version without migrating.
func (r *Runner) SetupStatus(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.rawDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	version, applied, err := shared.CurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if !applied {
		return r.writePlain("no migrations applied\n")
	}
	return r.writePlain("schema version %d\n", version)
}

// SetupRollback rolls back the most recent migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.rawDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	r.logger.Info("rolled back migration", "path", r.config.Database.Path)
	return r.writePlain("✓ Rolled back the most recent migration\n")
}

// rawDatabase is [Runner.openDatabase] without running migrations.
func (r *Runner) rawDatabase() (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, func() { db.Close() }, nil
}
