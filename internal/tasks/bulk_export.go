package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/taskr/internal/formatter"
	"github.com/desertthunder/taskr/internal/models"
)

// TaskLister lists every live task of one owner.
type TaskLister interface {
	ListByOwner(owner models.UserID) ([]*models.Task, error)
}

// BulkExportOpts contains configuration for bulk task exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format: text, csv, md or json
	OutputDir  string           // Base output directory (default: tasks_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 4, max: 8)
	Location   *time.Location   // Zone due dates are rendered in
}

// OwnerExportResult is the outcome of exporting one owner's tasks.
type OwnerExportResult struct {
	Owner   models.UserID `json:"owner"`
	Tasks   int           `json:"tasks"`
	File    string        `json:"file,omitempty"`
	Success bool          `json:"success"`
	Error   error         `json:"-"`
	Reason  string        `json:"error,omitempty"`
}

// BulkExportResult summarises a [BulkExport] run.
type BulkExportResult struct {
	TotalOwners       int                 `json:"total_owners"`
	SuccessfulExports int                 `json:"successful_exports"`
	FailedExports     int                 `json:"failed_exports"`
	OutputDirectory   string              `json:"output_directory"`
	Format            formatter.Format    `json:"format"`
	Results           []OwnerExportResult `json:"results"`
	ManifestPath      string              `json:"-"`
}

// BulkExport writes each owner's tasks to {OutputDir}/{owner}.{ext} using a worker pool.
//
// Failures for one owner are recorded in the result and do not stop the others. A manifest
// (export_manifest.json) summarising every owner is written last.
func BulkExport(
	ctx context.Context,
	prog chan<- Update,
	lister TaskLister,
	owners []models.UserID,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.JSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("tasks_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalOwners:     len(owners),
		OutputDirectory: opts.OutputDir,
		Format:          opts.Format,
		Results:         make([]OwnerExportResult, 0, len(owners)),
	}

	jobs := make(chan models.UserID, len(owners))
	results := make(chan OwnerExportResult, len(owners))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go exportWorker(ctx, &wg, lister, jobs, results, opts)
	}

	send(prog, exportStartedUpdate(len(owners)))
	go func() {
		defer close(jobs)
		for _, owner := range owners {
			select {
			case <-ctx.Done():
				return
			case jobs <- owner:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Success {
			result.SuccessfulExports++
			send(prog, exportedUpdate(completed, len(owners), res.Owner, res.File))
		} else {
			result.FailedExports++
			res.Reason = res.Error.Error()
			send(prog, exportFailedUpdate(completed, len(owners), res.Owner, res.Error))
		}
		result.Results = append(result.Results, res)
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted: %w", err)
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker exports owners from the jobs channel until it is drained or ctx is cancelled.
func exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	lister TaskLister,
	jobs <-chan models.UserID,
	results chan<- OwnerExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for owner := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- exportOwner(lister, owner, opts)
	}
}

func exportOwner(lister TaskLister, owner models.UserID, opts BulkExportOpts) OwnerExportResult {
	result := OwnerExportResult{Owner: owner}

	items, err := lister.ListByOwner(owner)
	if err != nil {
		result.Error = fmt.Errorf("failed to list tasks: %w", err)
		return result
	}
	result.Tasks = len(items)

	export := &formatter.TaskExport{Owner: owner, Tasks: items, Location: opts.Location}
	path, err := formatter.WriteExport(export, opts.Format, opts.OutputDir, "")
	if err != nil {
		result.Error = err
		return result
	}

	result.File = path
	result.Success = true
	return result
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
