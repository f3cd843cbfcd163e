// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/SofiaMurZ/bookkeeper/internal/formatter"
	"github.com/SofiaMurZ/bookkeeper/internal/models"
	"github.com/SofiaMurZ/bookkeeper/internal/repositories"
)

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file if missing and initialize every table",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Drop and recreate tables even if they hold rows",
			},
		},
		Action: r.Setup,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show row counts and budget usage",
		Action: r.Status,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write every record of one type (or of every type with --all) to a file",
		ArgsUsage: "<" + strings.Join(r.exporterNames(), "|") + ">",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "type"},
		},
		Flags: []cli.Flag{
			formatFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (defaults to <type>.<ext>), or directory with --all",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Export every table into one directory with a manifest",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent table exports with --all",
				Value: 4,
			},
		},
		Action: r.Export,
	}
}

func formatFlag() cli.Flag {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return &cli.StringFlag{
		Name:  "format",
		Usage: "Output format (" + strings.Join(names, ", ") + ")",
	}
}

func accountCommand(r *Runner) *cli.Command {
	return newRecordCommand(r, recordCommand[models.Account]{
		name:  "account",
		usage: "Manage accounts",
		repo:  func(s *repositories.Store) *repositories.SQLiteRepository[models.Account] { return s.Accounts },
	})
}

func categoryCommand(r *Runner) *cli.Command {
	return newRecordCommand(r, recordCommand[models.Category]{
		name:  "category",
		usage: "Manage expense categories",
		repo:  func(s *repositories.Store) *repositories.SQLiteRepository[models.Category] { return s.Categories },
		extra: []*cli.Command{
			{
				Name:      "expenses",
				Usage:     "List the expenses recorded against a category",
				ArgsUsage: "<pk>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "pk"},
				},
				Flags:  []cli.Flag{formatFlag()},
				Action: r.CategoryExpenses,
			},
		},
	})
}

func expenseCommand(r *Runner) *cli.Command {
	return newRecordCommand(r, recordCommand[models.Expense]{
		name:      "expense",
		usage:     "Manage expenses",
		repo:      func(s *repositories.Store) *repositories.SQLiteRepository[models.Expense] { return s.Expenses },
		newRecord: func() *models.Expense { return models.NewExpense(0, 0, "") },
	})
}

func budgetCommand(r *Runner) *cli.Command {
	return newRecordCommand(r, recordCommand[models.Budget]{
		name:  "budget",
		usage: "Manage budgets",
		repo:  func(s *repositories.Store) *repositories.SQLiteRepository[models.Budget] { return s.Budgets },
	})
}
