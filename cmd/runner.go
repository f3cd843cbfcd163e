package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/SofiaMurZ/bookkeeper/internal/formatter"
	"github.com/SofiaMurZ/bookkeeper/internal/repositories"
	"github.com/SofiaMurZ/bookkeeper/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	logger    *log.Logger
	output    io.Writer
	palette   *formatter.Palette
	session   string
	db        *sql.DB
	ownsDB    bool
	store     *repositories.Store
	exporters map[string]exporter
}

// exporter snapshots every stored record of one type.
type exporter func(ctx context.Context, s *repositories.Store) (*formatter.Table, error)

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Logger  *log.Logger
	Output  io.Writer
	Palette *formatter.Palette
	DB      *sql.DB // used as is and never closed by the Runner
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
	if opts.Palette == nil {
		opts.Palette = formatter.DefaultPalette
	}

	session := shared.GenerateID()

	return &Runner{
		config:    opts.Config,
		logger:    shared.WithLogger(opts.Logger, "session", session[:8]),
		output:    opts.Output,
		palette:   opts.Palette,
		session:   session,
		db:        opts.DB,
		exporters: map[string]exporter{},
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, statusCommand, accountCommand, categoryCommand, expenseCommand, budgetCommand, exportCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure is the root Before hook: it loads the config file and applies flag overrides.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else if cmd.IsSet("config") {
		return ctx, fmt.Errorf("%w: %s", shared.ErrMissingConfig, configPath)
	}

	if cmd.IsSet("db") {
		r.config.Database.Path = cmd.String("db")
	}
	if cmd.IsSet("driver") {
		r.config.Database.Driver = cmd.String("driver")
	}
	if cmd.IsSet("log-level") {
		r.config.Log.Level = cmd.String("log-level")
	}

	if err := r.config.Validate(); err != nil {
		return ctx, err
	}
	if err := shared.SetLogLevelName(r.logger, r.config.Log.Level); err != nil {
		return ctx, err
	}

	r.logger.Debug("configuration loaded", "path", configPath, "database", r.config.Database.Path, "driver", r.config.Database.Driver)
	return ctx, nil
}

// database returns the configured database handle, opening it on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	cfg := r.config.Database
	db, err := shared.OpenDatabase(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if !shared.IsMemoryPath(cfg.Path) {
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}

	r.logger.Debug("opened database", "path", cfg.Path, "driver", cfg.Driver)
	r.db, r.ownsDB = db, true
	return db, nil
}

// openStore attaches to every table without touching stored rows.
func (r *Runner) openStore(ctx context.Context) (*repositories.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}

	store, err := repositories.OpenStore(ctx, db, repositories.WithLogger(r.logger))
	if err != nil {
		if errors.Is(err, shared.ErrSchema) {
			return nil, fmt.Errorf("%w (run 'bookkeeper setup --force' to recreate the tables)", err)
		}
		return nil, err
	}

	r.store = store
	return store, nil
}

// Close releases the database if the Runner opened it.
func (r *Runner) Close() error {
	r.store = nil
	if r.db == nil || !r.ownsDB {
		return nil
	}
	err := r.db.Close()
	r.db, r.ownsDB = nil, false
	return err
}

// format resolves the --format flag, falling back to the configured output format.
func (r *Runner) format(cmd *cli.Command) (formatter.Format, error) {
	name := r.config.Output.Format
	if cmd.IsSet("format") {
		name = cmd.String("format")
	}
	return formatter.ParseFormat(name)
}

func (r *Runner) render(cmd *cli.Command, t *formatter.Table) error {
	f, err := r.format(cmd)
	if err != nil {
		return err
	}
	return formatter.Render(r.output, t, f)
}

func (r *Runner) exporterNames() []string {
	names := make([]string, 0, len(r.exporters))
	for name := range r.exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", r.palette.Title(title))
	r.writePlain("═══════════════════════════════════════\n")
}
