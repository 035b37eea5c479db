// submodule cmd contains command definitions
package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// newApp builds the root command. Global flags are inherited by every subcommand.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "taskr",
		Usage:   "Manage a personal task list from the terminal, a TUI or HTTP",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "Email of the acting user (default: [session] user)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				r.EnableDebug()
			}
			return ctx, r.loadConfig(cmd.String("config"))
		},
		Commands: r.register(),
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show the applied schema version",
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// userCommand manages the accounts tasks belong to.
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage users",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Email address, used with --user",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name",
					},
				},
				Action: r.UserAdd,
			},
			{
				Name:  "list",
				Usage: "List users",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.UserList,
			},
		},
	}
}

func taskFieldFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "title",
			Aliases:  []string{"t"},
			Usage:    "Task title (1-255 characters)",
			Required: required,
		},
		&cli.StringFlag{
			Name:    "description",
			Aliases: []string{"d"},
			Usage:   "Task description",
		},
		&cli.StringFlag{
			Name:  "due",
			Usage: "Due date, e.g. 2024-03-01T09:30 or 2024-03-01",
		},
	}
}

// tasksCommand handles task list operations.
func tasksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tasks",
		Aliases: []string{"task", "t"},
		Usage:   "Task list operations",
		Commands: []*cli.Command{
			{
				Name:   "add",
				Usage:  "Create a task",
				Flags:  taskFieldFlags(true),
				Action: r.TasksAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List one page of tasks",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "page",
						Aliases: []string{"p"},
						Usage:   "Page number",
						Value:   1,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, csv, md or json",
						Value:   "text",
					},
				},
				Action: r.TasksList,
			},
			{
				Name:  "edit",
				Usage: "Edit a task",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Task ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "completed",
						Usage: "Mark the task completed (--completed=false to reopen)",
					},
				}, taskFieldFlags(false)...),
				Action: r.TasksEdit,
			},
			{
				Name:  "toggle",
				Usage: "Flip the completed flag of a task",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Task ID",
						Required: true,
					},
				},
				Action: r.TasksToggle,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Delete a task",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Task ID",
						Required: true,
					},
				},
				Action: r.TasksDelete,
			},
			{
				Name:  "export",
				Usage: "Export every task to files, one per user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, csv, md or json",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: tasks_export_{epoch})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers (max 8)",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export every user instead of the acting user",
					},
				},
				Action: r.TasksExport,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive task management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive task list",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where TUI logs are written",
				Value: "./tmp/taskr-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the task list over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: [server] host:port)",
			},
		},
		Action: r.Serve,
	}
}
