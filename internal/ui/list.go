package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/taskr/internal/formatter"
	"github.com/desertthunder/taskr/internal/models"
)

// renderTask draws one list row, with the description and due date on a second line when present.
func renderTask(t *models.Task, selected bool, loc *time.Location) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}

	title := t.Title()
	switch {
	case t.IsCompleted():
		title = styles.done.Render(title)
	case selected:
		title = styles.selected.Render(title)
	}

	line := fmt.Sprintf("%s%s %s", cursor, formatter.Checkbox(t.IsCompleted()), title)

	var details []string
	if t.HasDescription() {
		details = append(details, t.Description())
	}
	if due := formatter.DueDate(t, loc); due != "" {
		details = append(details, "due "+due)
	}
	if len(details) > 0 {
		line += "\n      " + styles.help.Render(strings.Join(details, " • "))
	}
	return line
}
