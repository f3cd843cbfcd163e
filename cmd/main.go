package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/SofiaMurZ/bookkeeper/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})
	app := newApp(runner)

	err := app.Run(context.Background(), os.Args)
	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close database", "error", cerr)
	}
	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "bookkeeper",
		Usage:  "Track accounts, categories, expenses, and budgets in a local SQLite database",
		Before: r.configure,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Database path, overriding database.path",
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "SQLite driver (sqlite3 or sqlite), overriding database.driver",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error), overriding log.level",
			},
		},
		Commands: r.register(),
	}
}
