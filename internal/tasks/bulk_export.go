package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/SofiaMurZ/bookkeeper/internal/formatter"
	"github.com/SofiaMurZ/bookkeeper/internal/shared"
)

// ManifestName is the file written next to the exports.
const ManifestName = "export_manifest.json"

// ExportJob names one table and how to read its snapshot.
type ExportJob struct {
	Name string
	Load func(ctx context.Context) (*formatter.Table, error)
}

// BulkExportOpts contains configuration for bulk table exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: table)
	OutputDir  string           // Base output directory (default: bookkeeper_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 4, max: 8)
}

// TableExportResult is the outcome of exporting one table.
type TableExportResult struct {
	Table        string `json:"table"`
	Rows         int    `json:"rows"`
	File         string `json:"file,omitempty"`
	Success      bool   `json:"success"`
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	Format            formatter.Format    `json:"format"`
	ExportedAt        time.Time           `json:"exported_at"`
	TotalTables       int                 `json:"total_tables"`
	SuccessfulExports int                 `json:"successful_exports"`
	FailedExports     int                 `json:"failed_exports"`
	OutputDirectory   string              `json:"output_directory"`
	ManifestPath      string              `json:"-"`
	Results           []TableExportResult `json:"results"`
}

// Exporter runs bulk exports.
type Exporter struct {
	logger *log.Logger
}

// NewExporter creates an Exporter. A nil logger discards output.
func NewExporter(logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Exporter{logger: logger}
}

// BulkExport exports every job concurrently and writes a manifest summarizing the results.
//
// Jobs that fail are reported in the result; the returned error is reserved for
// failures that affect the whole export (output directory, manifest, cancellation).
func (e *Exporter) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	jobs []ExportJob,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: nothing to export", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatTable
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("bookkeeper_export_%d", time.Now().Unix())
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
		Format:          opts.Format,
		ExportedAt:      time.Now().UTC().Truncate(time.Second),
		TotalTables:     len(jobs),
		OutputDirectory: opts.OutputDir,
		Results:         make([]TableExportResult, 0, len(jobs)),
	}

	queue := make(chan ExportJob, len(jobs))
	results := make(chan TableExportResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, queue, results, opts)
	}

	for i, job := range jobs {
		sendProgress(prog, readingTableUpdate(i+1, len(jobs), job.Name))
		queue <- job
	}
	close(queue)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(jobs), res))
		} else {
			result.FailedExports++
			res.ErrorMessage = res.Error.Error()
			sendProgress(prog, exportFailedUpdate(completed, len(jobs), res))
			e.logger.Warn("table export failed", "table", res.Table, "error", res.Error)
		}
		result.Results = append(result.Results, res)
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export cancelled: %w", err)
	}

	sort.Slice(result.Results, func(i, j int) bool { return result.Results[i].Table < result.Results[j].Table })

	manifestPath := filepath.Join(opts.OutputDir, ManifestName)
	sendProgress(prog, manifestUpdate(manifestPath))
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("bulk export finished", "dir", opts.OutputDir, "ok", result.SuccessfulExports, "failed", result.FailedExports)
	return result, nil
}

// exportWorker exports tables from the jobs channel until it is closed or ctx is done.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan ExportJob,
	results chan<- TableExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportTable(ctx, job, opts)
	}
}

// exportTable reads one table and writes it to {dir}/{name}{ext}.
func (e *Exporter) exportTable(ctx context.Context, job ExportJob, opts BulkExportOpts) TableExportResult {
	result := TableExportResult{Table: job.Name}

	table, err := job.Load(ctx)
	if err != nil {
		result.Error = fmt.Errorf("read failed: %w", err)
		return result
	}
	result.Rows = table.Len()

	path := filepath.Join(opts.OutputDir, job.Name+opts.Format.Ext())
	if result.File, err = formatter.WriteExport(table, opts.Format, path); err != nil {
		result.Error = fmt.Errorf("write failed: %w", err)
		return result
	}

	e.logger.Debug("exported table", "table", job.Name, "rows", result.Rows, "path", path)
	result.Success = true
	return result
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
