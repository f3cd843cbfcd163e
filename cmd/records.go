package main

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/SofiaMurZ/bookkeeper/internal/formatter"
	"github.com/SofiaMurZ/bookkeeper/internal/models"
	"github.com/SofiaMurZ/bookkeeper/internal/repositories"
	"github.com/SofiaMurZ/bookkeeper/internal/schema"
	"github.com/SofiaMurZ/bookkeeper/internal/shared"
)

// recordCommand builds the add/get/list/update/delete commands of one record type.
// Column flags are derived from the record's schema descriptor.
type recordCommand[T any] struct {
	name      string
	usage     string
	repo      func(*repositories.Store) *repositories.SQLiteRepository[T]
	newRecord func() *T // defaults to new(T)
	extra     []*cli.Command

	r    *Runner
	desc *schema.Descriptor
}

func newRecordCommand[T any](r *Runner, rc recordCommand[T]) *cli.Command {
	desc, err := schema.Describe[T]()
	if err != nil {
		panic(fmt.Sprintf("invalid record type for %s command: %v", rc.name, err))
	}
	if rc.newRecord == nil {
		rc.newRecord = func() *T { return new(T) }
	}
	rc.r, rc.desc = r, desc

	r.exporters[desc.Table] = rc.export

	pkArg := []cli.Argument{&cli.StringArg{Name: "pk"}}

	return &cli.Command{
		Name:  rc.name,
		Usage: rc.usage,
		Commands: append([]*cli.Command{
			{
				Name:   "add",
				Usage:  "Add a " + rc.name,
				Flags:  append(rc.columnFlags("Value of"), formatFlag()),
				Action: rc.add,
			},
			{
				Name:      "get",
				Usage:     "Show one " + rc.name,
				ArgsUsage: "<pk>",
				Arguments: pkArg,
				Flags:     []cli.Flag{formatFlag()},
				Action:    rc.get,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List " + rc.name + " records; column flags filter by exact value",
				Flags:   append(rc.columnFlags("Only show records whose"), formatFlag()),
				Action:  rc.list,
			},
			{
				Name:      "update",
				Usage:     "Change columns of a stored " + rc.name,
				ArgsUsage: "<pk>",
				Arguments: pkArg,
				Flags:     append(rc.columnFlags("New value of"), formatFlag()),
				Action:    rc.update,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a " + rc.name,
				ArgsUsage: "<pk>",
				Arguments: pkArg,
				Action:    rc.delete,
			},
		}, rc.extra...),
	}
}

// flagName maps a column to its flag ("expense_date" -> "expense-date").
func flagName(column string) string {
	return strings.ReplaceAll(column, "_", "-")
}

func (rc recordCommand[T]) columnFlags(prefix string) []cli.Flag {
	flags := make([]cli.Flag, 0, len(rc.desc.Fields))
	for _, f := range rc.desc.Fields {
		usage := fmt.Sprintf("%s %s (%s)", prefix, f.Column, strings.ToLower(f.Kind.String()))
		usage += valueHint(f)
		if f.Nullable {
			usage += `, "null" for none`
		}
		flags = append(flags, &cli.StringFlag{Name: flagName(f.Column), Usage: usage})
	}
	return flags
}

// valueHint describes the accepted input for columns whose Go type is not evident from the kind.
func valueHint(f schema.Field) string {
	typ := f.Type()
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	switch {
	case typ == reflect.TypeOf(time.Time{}):
		return ", RFC3339 or YYYY-MM-DD"
	case typ.Kind() == reflect.Bool:
		return ", true or false"
	}
	return ""
}

// flagValue returns the raw value of a column flag; nil clears a nullable column.
func flagValue(cmd *cli.Command, f schema.Field) any {
	v := cmd.String(flagName(f.Column))
	if f.Nullable && (v == "" || strings.EqualFold(v, "null")) {
		return nil
	}
	return v
}

// apply copies every column flag that was set on cmd into record.
func (rc recordCommand[T]) apply(cmd *cli.Command, record *T) (int, error) {
	rv := reflect.ValueOf(record).Elem()
	set := 0
	for _, f := range rc.desc.Fields {
		if !cmd.IsSet(flagName(f.Column)) {
			continue
		}
		if err := f.Decode(rv, flagValue(cmd, f)); err != nil {
			return set, fmt.Errorf("%w: --%s: %w", shared.ErrInvalidFlag, flagName(f.Column), err)
		}
		set++
	}
	return set, nil
}

func (rc recordCommand[T]) repository(ctx context.Context) (*repositories.SQLiteRepository[T], error) {
	store, err := rc.r.openStore(ctx)
	if err != nil {
		return nil, err
	}
	return rc.repo(store), nil
}

func (rc recordCommand[T]) render(cmd *cli.Command, records ...*T) error {
	t, err := formatter.NewTable(rc.desc, records)
	if err != nil {
		return err
	}
	return rc.r.render(cmd, t)
}

func (rc recordCommand[T]) add(ctx context.Context, cmd *cli.Command) error {
	repo, err := rc.repository(ctx)
	if err != nil {
		return err
	}

	record := rc.newRecord()
	if _, err := rc.apply(cmd, record); err != nil {
		return err
	}

	pk, err := repo.Add(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", rc.name, err)
	}

	rc.r.logger.Info("added record", "table", rc.desc.Table, "pk", pk)
	return rc.render(cmd, record)
}

func (rc recordCommand[T]) get(ctx context.Context, cmd *cli.Command) error {
	pk, err := parsePK(cmd)
	if err != nil {
		return err
	}

	repo, err := rc.repository(ctx)
	if err != nil {
		return err
	}

	record, err := repo.Get(ctx, pk)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", rc.name, err)
	}
	if record == nil {
		return fmt.Errorf("%w: %s pk=%d", shared.ErrNotFound, rc.name, pk)
	}

	return rc.render(cmd, record)
}

func (rc recordCommand[T]) list(ctx context.Context, cmd *cli.Command) error {
	filter := models.Filter{}
	for _, f := range rc.desc.Fields {
		if cmd.IsSet(flagName(f.Column)) {
			filter[f.Column] = flagValue(cmd, f)
		}
	}

	repo, err := rc.repository(ctx)
	if err != nil {
		return err
	}

	records, err := repo.GetAll(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list %s records: %w", rc.name, err)
	}

	rc.r.logger.Debug("listed records", "table", rc.desc.Table, "filter", len(filter), "count", len(records))
	return rc.render(cmd, records...)
}

func (rc recordCommand[T]) update(ctx context.Context, cmd *cli.Command) error {
	pk, err := parsePK(cmd)
	if err != nil {
		return err
	}

	repo, err := rc.repository(ctx)
	if err != nil {
		return err
	}

	record, err := repo.Get(ctx, pk)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", rc.name, err)
	}
	if record == nil {
		return fmt.Errorf("%w: %s pk=%d", shared.ErrNotFound, rc.name, pk)
	}

	set, err := rc.apply(cmd, record)
	if err != nil {
		return err
	}
	if set == 0 {
		return fmt.Errorf("%w: no column flags given", shared.ErrMissingArgument)
	}

	if err := repo.Update(ctx, record); err != nil {
		return fmt.Errorf("failed to update %s: %w", rc.name, err)
	}

	rc.r.logger.Info("updated record", "table", rc.desc.Table, "pk", pk, "columns", set)
	return rc.render(cmd, record)
}

func (rc recordCommand[T]) delete(ctx context.Context, cmd *cli.Command) error {
	pk, err := parsePK(cmd)
	if err != nil {
		return err
	}

	repo, err := rc.repository(ctx)
	if err != nil {
		return err
	}

	if err := repo.Delete(ctx, pk); err != nil {
		return fmt.Errorf("failed to delete %s: %w", rc.name, err)
	}

	rc.r.logger.Info("deleted record", "table", rc.desc.Table, "pk", pk)
	return rc.r.writePlain("%s\n", rc.r.palette.OK(fmt.Sprintf("deleted %s %d", rc.name, pk)))
}

func (rc recordCommand[T]) export(ctx context.Context, s *repositories.Store) (*formatter.Table, error) {
	records, err := rc.repo(s).GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	return formatter.NewTable(rc.desc, records)
}

// parsePK reads the positional <pk> argument.
func parsePK(cmd *cli.Command) (int64, error) {
	raw := cmd.StringArg("pk")
	if raw == "" {
		return 0, fmt.Errorf("%w: <pk>", shared.ErrMissingArgument)
	}

	pk, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || pk <= 0 {
		return 0, fmt.Errorf("%w: pk must be a positive integer, got %q", shared.ErrInvalidArgument, raw)
	}
	return pk, nil
}
