package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/SofiaMurZ/bookkeeper/internal/formatter"
	"github.com/SofiaMurZ/bookkeeper/internal/repositories"
	"github.com/SofiaMurZ/bookkeeper/internal/shared"
	"github.com/SofiaMurZ/bookkeeper/internal/tasks"
)

// Setup creates the config file when missing and (re)initializes every table.
//
// Without --force it refuses to drop tables that already hold rows.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.Root().String("config")

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	if !cmd.Bool("force") {
		total, err := r.storedRows(ctx)
		if err != nil {
			return err
		}
		if total > 0 {
			return fmt.Errorf("%w: database %s already holds %d rows; rerun with --force to discard them",
				shared.ErrInvalidState, r.config.Database.Path, total)
		}
	}

	r.logger.Info("initializing tables", "path", r.config.Database.Path)
	store, err := repositories.InitializeStore(ctx, db, repositories.WithLogger(r.logger))
	if err != nil {
		return fmt.Errorf("failed to initialize tables: %w", err)
	}
	r.store = store

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("%s\n", r.palette.OK("tables initialized in "+r.config.Database.Path))
}

// storedRows counts the rows of every table. A layout that no longer matches
// the record types counts as holding data, so only --force may replace it.
func (r *Runner) storedRows(ctx context.Context) (int, error) {
	store, err := r.openStore(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrSchema) {
			return 0, fmt.Errorf("%w: %w", shared.ErrInvalidState, err)
		}
		return 0, err
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

// Status prints the row count of every table and the usage of each budget.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader("Bookkeeper: " + r.config.Database.Path)

	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		r.writePlain("%-10s %d\n", table, counts[table])
	}

	budgets, err := store.Budgets.GetAll(ctx, nil)
	if err != nil {
		return err
	}
	if len(budgets) == 0 {
		return nil
	}

	r.writePlainln("Budgets")
	for _, b := range budgets {
		line := fmt.Sprintf("%s: %d of %d spent, %d remaining", b.Period, b.Spent, b.Limit, b.Remaining())
		if b.Remaining() < 0 {
			line = r.palette.Warn(line)
		}
		r.writePlain("%s\n", line)
	}
	return nil
}

// Export writes every record of one type to a file.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("all") {
		return r.ExportAll(ctx, cmd)
	}

	name := cmd.StringArg("type")
	if name == "" {
		return fmt.Errorf("%w: <type>", shared.ErrMissingArgument)
	}

	export, ok := r.exporters[name]
	if !ok {
		return fmt.Errorf("%w: unknown record type %q (want one of %v)", shared.ErrInvalidArgument, name, r.exporterNames())
	}

	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	store, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	table, err := export(ctx, store)
	if err != nil {
		return fmt.Errorf("failed to read %s records: %w", name, err)
	}

	path, err := formatter.WriteExport(table, f, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("exported records", "table", name, "format", f, "rows", table.Len(), "path", path)
	return r.writePlain("%s\n", r.palette.OK(fmt.Sprintf("exported %d %s records to %s", table.Len(), name, path)))
}

// CategoryExpenses lists the expenses recorded against one category.
func (r *Runner) CategoryExpenses(ctx context.Context, cmd *cli.Command) error {
	pk, err := parsePK(cmd)
	if err != nil {
		return err
	}

	store, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	category, err := store.Categories.Get(ctx, pk)
	if err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("%w: category pk=%d", shared.ErrNotFound, pk)
	}

	expenses, err := store.ExpensesIn(ctx, pk)
	if err != nil {
		return err
	}

	table, err := formatter.NewTable(store.Expenses.Descriptor(), expenses)
	if err != nil {
		return err
	}
	return r.render(cmd, table)
}

// ExportAll writes every table into one directory, reporting progress as tables finish.
func (r *Runner) ExportAll(ctx context.Context, cmd *cli.Command) error {
	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	store, err := r.openStore(ctx)
	if err != nil {
		return err
	}

	names := r.exporterNames()
	jobs := make([]tasks.ExportJob, 0, len(names))
	for _, name := range names {
		export := r.exporters[name]
		jobs = append(jobs, tasks.ExportJob{
			Name: name,
			Load: func(ctx context.Context) (*formatter.Table, error) { return export(ctx, store) },
		})
	}

	prog := make(chan tasks.ProgressUpdate, 2*len(jobs)+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.logger.Debug(update.Message, "phase", update.Phase)
		}
	}()

	result, err := tasks.NewExporter(r.logger).BulkExport(ctx, prog, jobs, tasks.BulkExportOpts{
		Format:     f,
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	for _, res := range result.Results {
		if res.Success {
			r.writePlain("%s\n", r.palette.OK(fmt.Sprintf("%-10s %d rows -> %s", res.Table, res.Rows, res.File)))
		} else {
			r.writePlain("%s\n", r.palette.Err(fmt.Sprintf("%-10s %v", res.Table, res.Error)))
		}
	}
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.FailedExports > 0 {
		return fmt.Errorf("%w: %d of %d tables failed to export", shared.ErrStore, result.FailedExports, result.TotalTables)
	}
	return nil
}
