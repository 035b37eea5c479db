// package formatter renders tasks for display and exports them to various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/taskr/internal/models"
	"github.com/desertthunder/taskr/internal/shared"
)

// DisplayLayout is the day+minute layout due dates are shown with.
const DisplayLayout = "02/01/2006 15:04"

// Format names an export format.
type Format string

const (
	Text     Format = "text"
	CSV      Format = "csv"
	Markdown Format = "md"
	JSON     Format = "json"
)

// Formats lists every supported [Format].
var Formats = []Format{Text, CSV, Markdown, JSON}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	switch f {
	case Text:
		return "txt"
	default:
		return string(f)
	}
}

// ParseFormat accepts a format name or one of its common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt", "plain":
		return Text, nil
	case "csv":
		return CSV, nil
	case "md", "markdown":
		return Markdown, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want one of text, csv, md, json)", shared.ErrInvalidArgument, s)
	}
}

// TaskExport is one owner's tasks, either a single page or the full list.
type TaskExport struct {
	Owner      models.UserID
	Page       int // 0 when Tasks holds every task
	TotalPages int
	Tasks      []*models.Task
	Location   *time.Location // due dates are shown in this zone; nil means local time
}

func (e *TaskExport) location() *time.Location {
	if e.Location == nil {
		return time.Local
	}
	return e.Location
}

// TaskRecord is the JSON shape of a task.
type TaskRecord struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTaskRecord converts a task into its JSON shape.
func NewTaskRecord(t *models.Task) TaskRecord {
	return TaskRecord{
		ID:          t.ID(),
		Title:       t.Title(),
		Description: t.Description(),
		DueDate:     t.DueDate(),
		IsCompleted: t.IsCompleted(),
		CreatedAt:   t.CreatedAt(),
		UpdatedAt:   t.UpdatedAt(),
	}
}

// Checkbox renders a completion marker.
func Checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// DueDate formats the task's due date with [DisplayLayout] in loc, or returns "" when there is none.
func DueDate(t *models.Task, loc *time.Location) string {
	if t.DueDate() == nil {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.DueDate().In(loc).Format(DisplayLayout)
}

// ExportToCSV converts a TaskExport to CSV format with columns: ID, Title, Description, Due, Completed
func ExportToCSV(export *TaskExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Description", "Due", "Completed"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, task := range export.Tasks {
		record := []string{
			task.ID(),
			task.Title(),
			task.Description(),
			DueDate(task, export.location()),
			strconv.FormatBool(task.IsCompleted()),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a TaskExport to a Markdown checklist
func ExportToMarkdown(export *TaskExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Tasks\n\n")
	if export.Page > 0 {
		buf.WriteString(fmt.Sprintf("**Page**: %d of %d\n", export.Page, export.TotalPages))
	}
	buf.WriteString(fmt.Sprintf("**Tasks**: %d\n\n", len(export.Tasks)))

	if len(export.Tasks) == 0 {
		buf.WriteString("_No tasks._\n")
		return buf.Bytes(), nil
	}

	for _, task := range export.Tasks {
		title := task.Title()
		if task.IsCompleted() {
			title = "~~" + title + "~~"
		}
		buf.WriteString(fmt.Sprintf("- %s %s", Checkbox(task.IsCompleted()), title))
		if due := DueDate(task, export.location()); due != "" {
			buf.WriteString(fmt.Sprintf(" (due %s)", due))
		}
		buf.WriteString("\n")
		if task.HasDescription() {
			for line := range strings.SplitSeq(task.Description(), "\n") {
				buf.WriteString("  > " + line + "\n")
			}
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a TaskExport to plain text format
func ExportToText(export *TaskExport) ([]byte, error) {
	var buf bytes.Buffer

	if export.Page > 0 {
		buf.WriteString(fmt.Sprintf("Page %d of %d\n", export.Page, export.TotalPages))
	}
	buf.WriteString(fmt.Sprintf("Tasks: %d\n\n", len(export.Tasks)))

	if len(export.Tasks) == 0 {
		buf.WriteString("No tasks yet.\n")
		return buf.Bytes(), nil
	}

	for i, task := range export.Tasks {
		buf.WriteString(fmt.Sprintf("%d. %s %s", i+1, Checkbox(task.IsCompleted()), task.Title()))
		if due := DueDate(task, export.location()); due != "" {
			buf.WriteString(fmt.Sprintf(" (due %s)", due))
		}
		buf.WriteString(fmt.Sprintf("  [%s]\n", task.ID()))
		if task.HasDescription() {
			buf.WriteString(fmt.Sprintf("   %s\n", task.Description()))
		}
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a TaskExport to indented JSON
func ExportToJSON(export *TaskExport) ([]byte, error) {
	records := make([]TaskRecord, 0, len(export.Tasks))
	for _, task := range export.Tasks {
		records = append(records, NewTaskRecord(task))
	}

	doc := struct {
		Owner      models.UserID `json:"owner"`
		Page       int           `json:"page,omitempty"`
		TotalPages int           `json:"total_pages,omitempty"`
		Tasks      []TaskRecord  `json:"tasks"`
	}{export.Owner, export.Page, export.TotalPages, records}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tasks: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders export in the given format
func Export(export *TaskExport, format Format) ([]byte, error) {
	switch format {
	case CSV:
		return ExportToCSV(export)
	case Markdown:
		return ExportToMarkdown(export)
	case JSON:
		return ExportToJSON(export)
	case Text:
		return ExportToText(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteTo renders export in the given format and writes it to w
func WriteTo(w io.Writer, export *TaskExport, format Format) error {
	data, err := Export(export, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}
	return nil
}

// WriteExport writes export to a file named {base}.{ext} inside dir, creating dir if needed.
//
// base defaults to the owner ID.
func WriteExport(export *TaskExport, format Format, dir, base string) (string, error) {
	if base == "" {
		base = string(export.Owner)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := Export(export, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	path := filepath.Join(dir, base+"."+format.Ext())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}
