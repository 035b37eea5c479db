package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/policy"
	"github.com/desertthunder/taskr/internal/repositories"
	"github.com/desertthunder/taskr/internal/shared"
	"github.com/desertthunder/taskr/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB // used instead of opening [shared.DatabaseConfig.Path] when set
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
	}
}

// SetLogger replaces the logger used by the runner and everything it builds.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// EnableDebug lowers the runner's log level to debug.
func (r *Runner) EnableDebug() {
	shared.SetLogLevel(r.logger, log.DebugLevel)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, userCommand, tasksCommand, tuiCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig replaces the runner's config with the file named by --config, when it exists.
// Without a file, TASKR_* environment variables are applied over the current config.
func (r *Runner) loadConfig(path string) error {
	config, err := shared.LoadConfig(path)
	if errors.Is(err, shared.ErrMissingConfig) {
		r.logger.Debug("config file not found, using defaults", "path", path)
		if err := shared.ApplyEnv(r.config); err != nil {
			return err
		}
		return r.config.Validate()
	} else if err != nil {
		return err
	}

	r.config = config
	r.configPath = path
	return nil
}

// openDatabase returns the injected database or opens the configured one.
// The returned func closes only databases opened here.
func (r *Runner) openDatabase() (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, func() { db.Close() }, nil
}

// currentUser resolves --user, falling back to [shared.SessionConfig.User].
func (r *Runner) currentUser(cmd *cli.Command, db *sql.DB) (*models.User, error) {
	email := strings.TrimSpace(cmd.String("user"))
	if email == "" {
		email = strings.TrimSpace(r.config.Session.User)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: pass --user or set [session] user", shared.ErrNotAuthenticated)
	}

	user, err := repositories.NewUserRepository(db).GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}
	return user, nil
}

// controllerOptions translates the [tasks] config section.
func (r *Runner) controllerOptions() ([]tasks.Option, error) {
	loc, err := r.config.Tasks.Location()
	if err != nil {
		return nil, err
	}
	return []tasks.Option{
		tasks.WithPageSize(r.config.Tasks.PageSize),
		tasks.WithLocation(loc),
		tasks.WithLogger(r.logger),
	}, nil
}

func (r *Runner) controller(db *sql.DB, extra ...tasks.Option) (*tasks.Controller, error) {
	opts, err := r.controllerOptions()
	if err != nil {
		return nil, err
	}
	store := repositories.NewTaskRepository(db)
	return tasks.NewController(store, policy.OwnerPolicy{}, append(opts, extra...)...), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
