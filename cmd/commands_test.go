package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/taskr/internal/shared"
	tu "github.com/desertthunder/taskr/internal/testing"
)

type harness struct {
	t      *testing.T
	runner *Runner
	output *bytes.Buffer
	config string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Logger: log.New(io.Discard),
		Output: output,
		DB:     tu.NewTestDB(t),
	})
	return &harness{t: t, runner: runner, output: output, config: filepath.Join(t.TempDir(), "config.toml")}
}

// run executes args and returns what the command printed.
func (c *harness) run(args ...string) (string, error) {
	c.t.Helper()
	c.output.Reset()

	app := newApp(c.runner)
	app.Writer = io.Discard
	app.ErrWriter = io.Discard

	argv := append([]string{"taskr", "--config", c.config}, args...)
	err := app.Run(context.Background(), argv)
	return c.output.String(), err
}

func (c *harness) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("%v failed: %v", args, err)
	}
	return out
}

var taskIDPattern = regexp.MustCompile(`Created task ([0-9a-f-]{36})`)

func (c *harness) addTask(user, title string) string {
	c.t.Helper()
	out := c.mustRun("--user", user, "tasks", "add", "--title", title)
	m := taskIDPattern.FindStringSubmatch(out)
	if m == nil {
		c.t.Fatalf("no task ID in %q", out)
	}
	return m[1]
}

func TestCommands(t *testing.T) {
	t.Run("user add and list", func(t *testing.T) {
		c := newHarness(t)

		out := c.mustRun("user", "add", "--email", "alice@example.com", "--name", "Alice")
		if !strings.Contains(out, "Created user alice@example.com") {
			t.Errorf("unexpected output: %q", out)
		}

		out = c.mustRun("user", "list", "--json")
		var users []userRecord
		if err := json.Unmarshal([]byte(out), &users); err != nil {
			t.Fatalf("failed to decode users: %v", err)
		}
		if len(users) != 1 || users[0].Email != "alice@example.com" || users[0].Name != "Alice" {
			t.Errorf("unexpected users: %+v", users)
		}

		if _, err := c.run("user", "add", "--email", "not-an-email"); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("tasks require a user", func(t *testing.T) {
		c := newHarness(t)

		_, err := c.run("tasks", "list")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}

		_, err = c.run("--user", "ghost@example.com", "tasks", "list")
		if !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("session user from config", func(t *testing.T) {
		c := newHarness(t)
		c.mustRun("user", "add", "--email", "alice@example.com")
		c.runner.config.Session.User = "alice@example.com"

		out := c.mustRun("tasks", "list")
		if !strings.Contains(out, "No tasks yet.") {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("task lifecycle", func(t *testing.T) {
		c := newHarness(t)
		c.mustRun("user", "add", "--email", "alice@example.com")

		id := c.addTask("alice@example.com", "Buy milk")

		out := c.mustRun("--user", "alice@example.com", "tasks", "list")
		if !strings.Contains(out, "1. [ ] Buy milk") {
			t.Errorf("expected task in list, got %q", out)
		}

		out = c.mustRun("--user", "alice@example.com", "tasks", "edit", "--id", id, "--title", "Buy oat milk", "--due", "2024-03-01")
		if !strings.Contains(out, "Saved task "+id+": Buy oat milk") {
			t.Errorf("unexpected edit output: %q", out)
		}

		out = c.mustRun("--user", "alice@example.com", "tasks", "toggle", "--id", id)
		if !strings.Contains(out, `Completed "Buy oat milk"`) {
			t.Errorf("unexpected toggle output: %q", out)
		}

		out = c.mustRun("--user", "alice@example.com", "tasks", "list", "--format", "json")
		var export struct {
			Tasks []struct {
				Title       string `json:"title"`
				IsCompleted bool   `json:"is_completed"`
			} `json:"tasks"`
		}
		if err := json.Unmarshal([]byte(out), &export); err != nil {
			t.Fatalf("failed to decode %q: %v", out, err)
		}
		if len(export.Tasks) != 1 || !export.Tasks[0].IsCompleted || export.Tasks[0].Title != "Buy oat milk" {
			t.Errorf("unexpected tasks: %+v", export.Tasks)
		}

		out = c.mustRun("--user", "alice@example.com", "tasks", "edit", "--id", id, "--completed=false")
		if !strings.Contains(out, "Saved task") {
			t.Errorf("unexpected edit output: %q", out)
		}

		c.mustRun("--user", "alice@example.com", "tasks", "delete", "--id", id)
		if _, err := c.run("--user", "alice@example.com", "tasks", "toggle", "--id", id); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound after delete, got %v", err)
		}
	})

	t.Run("validation errors are printed", func(t *testing.T) {
		c := newHarness(t)
		c.mustRun("user", "add", "--email", "alice@example.com")

		out, err := c.run("--user", "alice@example.com", "tasks", "add", "--title", "Trip", "--due", "next week")
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if !strings.Contains(out, "due_date: due date must be a valid date") {
			t.Errorf("expected field error in output, got %q", out)
		}
	})

	t.Run("other users cannot modify", func(t *testing.T) {
		c := newHarness(t)
		c.mustRun("user", "add", "--email", "alice@example.com")
		c.mustRun("user", "add", "--email", "bob@example.com")
		id := c.addTask("alice@example.com", "Private")

		for _, args := range [][]string{
			{"tasks", "edit", "--id", id, "--title", "Mine now"},
			{"tasks", "toggle", "--id", id},
			{"tasks", "delete", "--id", id},
		} {
			_, err := c.run(append([]string{"--user", "bob@example.com"}, args...)...)
			if !errors.Is(err, shared.ErrPermissionDenied) {
				t.Errorf("%v: expected ErrPermissionDenied, got %v", args, err)
			}
		}

		out := c.mustRun("--user", "bob@example.com", "tasks", "list")
		if strings.Contains(out, "Private") {
			t.Errorf("bob should not see alice's tasks: %q", out)
		}
	})

	t.Run("blank id is rejected", func(t *testing.T) {
		c := newHarness(t)
		c.mustRun("user", "add", "--email", "alice@example.com")

		for _, sub := range []string{"edit", "toggle", "delete"} {
			if _, err := c.run("--user", "alice@example.com", "tasks", sub, "--id", "  "); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("%s: expected ErrMissingArgument, got %v", sub, err)
			}
		}
	})

	t.Run("debug flag", func(t *testing.T) {
		c := newHarness(t)
		c.mustRun("--debug", "setup", "status")
		if c.runner.logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", c.runner.logger.GetLevel())
		}
	})

	t.Run("list pages", func(t *testing.T) {
		c := newHarness(t)
		c.mustRun("user", "add", "--email", "alice@example.com")
		for _, title := range []string{"one", "two", "three"} {
			c.addTask("alice@example.com", title)
		}

		out := c.mustRun("--user", "alice@example.com", "tasks", "list", "--page", "2")
		if !strings.Contains(out, "three") || strings.Contains(out, "one") {
			t.Errorf("unexpected page 2: %q", out)
		}
		if !strings.Contains(out, "Page 2 of 2") {
			t.Errorf("expected page footer, got %q", out)
		}

		if _, err := c.run("--user", "alice@example.com", "tasks", "list", "--format", "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for bad format, got %v", err)
		}
	})

	t.Run("export", func(t *testing.T) {
		c := newHarness(t)
		c.mustRun("user", "add", "--email", "alice@example.com")
		c.mustRun("user", "add", "--email", "bob@example.com")
		c.addTask("alice@example.com", "Alice's task")
		c.addTask("bob@example.com", "Bob's task")

		dir := filepath.Join(t.TempDir(), "export")
		out := c.mustRun("--user", "alice@example.com", "tasks", "export", "--all", "--format", "md", "--output", dir)
		if !strings.Contains(out, "Exported 2 of 2 users") {
			t.Errorf("unexpected output: %q", out)
		}
		tu.AssertDirExists(t, dir)
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
	})

	t.Run("setup status", func(t *testing.T) {
		c := newHarness(t)

		out := c.mustRun("setup", "status")
		if !strings.HasPrefix(out, "schema version ") {
			t.Errorf("unexpected output: %q", out)
		}
	})
}
