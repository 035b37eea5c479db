package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Tasks    TasksConfig    `toml:"tasks"`
	Session  SessionConfig  `toml:"session"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"TASKR_DATABASE_PATH"`
	MaxOpenConns int    `toml:"max_open_conns" env:"TASKR_DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns int    `toml:"max_idle_conns" env:"TASKR_DATABASE_MAX_IDLE_CONNS"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host      string  `toml:"host" env:"TASKR_SERVER_HOST"`
	Port      int     `toml:"port" env:"TASKR_SERVER_PORT"`
	RateLimit float64 `toml:"rate_limit" env:"TASKR_SERVER_RATE_LIMIT"`
	Burst     int     `toml:"burst" env:"TASKR_SERVER_BURST"`
}

// TasksConfig contains task list presentation settings.
type TasksConfig struct {
	PageSize int    `toml:"page_size" env:"TASKR_TASKS_PAGE_SIZE"`
	Timezone string `toml:"timezone" env:"TASKR_TASKS_TIMEZONE"`
}

// SessionConfig identifies the acting user for the CLI and TUI.
type SessionConfig struct {
	User string `toml:"user" env:"TASKR_USER"`
}

// Addr returns the host:port pair the HTTP server listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Location resolves the configured timezone, defaulting to [time.Local].
func (c TasksConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults. TASKR_* environment variables override both.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv overrides c with any TASKR_* environment variables that are set.
func ApplyEnv(c *Config) error {
	if err := cleanenv.ReadEnv(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate reports settings that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is empty", ErrInvalidConfig)
	}
	if c.Tasks.PageSize < 1 {
		return fmt.Errorf("%w: tasks.page_size must be at least 1, got %d", ErrInvalidConfig, c.Tasks.PageSize)
	}
	if _, err := c.Tasks.Location(); err != nil {
		return err
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
