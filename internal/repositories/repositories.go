package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/charmbracelet/log"

	"github.com/SofiaMurZ/bookkeeper/internal/models"
	"github.com/SofiaMurZ/bookkeeper/internal/schema"
	"github.com/SofiaMurZ/bookkeeper/internal/shared"
)

// SQLiteRepository implements [models.Repository] for any record struct T.
//
// The table layout is derived from T by [schema.Describe]. Every operation acquires its own
// connection from the pool and releases it before returning, on success and error alike.
type SQLiteRepository[T any] struct {
	db     *sql.DB
	desc   *schema.Descriptor
	stmts  statements
	logger *log.Logger
}

var _ models.Repository[models.Expense] = (*SQLiteRepository[models.Expense])(nil)

// Option configures a [SQLiteRepository].
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger makes the repository log schema changes and compiled statements.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Initialize drops T's table if it exists and creates it fresh, discarding any stored rows.
//
// Use [Open] to attach to an existing table without losing data.
func Initialize[T any](ctx context.Context, db *sql.DB, opts ...Option) (*SQLiteRepository[T], error) {
	r, err := newRepository[T](db, opts)
	if err != nil {
		return nil, err
	}

	err = r.withConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return storeError("begin schema transaction", r.desc.Table, err)
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, r.desc.DropTableSQL()); err != nil {
			return storeError("drop table", r.desc.Table, err)
		}
		if _, err := tx.ExecContext(ctx, r.desc.CreateTableSQL()); err != nil {
			return storeError("create table", r.desc.Table, err)
		}
		if err := tx.Commit(); err != nil {
			return storeError("commit schema transaction", r.desc.Table, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("initialized table", "table", r.desc.Table, "columns", len(r.desc.Fields)+1)
	return r, nil
}

// Open attaches to T's table, creating it when it does not exist yet.
//
// Returns [shared.ErrSchema] when the stored columns do not match the record type.
func Open[T any](ctx context.Context, db *sql.DB, opts ...Option) (*SQLiteRepository[T], error) {
	r, err := newRepository[T](db, opts)
	if err != nil {
		return nil, err
	}

	err = r.withConn(ctx, func(conn *sql.Conn) error {
		stored, err := storedLayout(ctx, conn, r.desc.Table)
		if err != nil {
			return err
		}
		if stored == nil {
			if _, err := conn.ExecContext(ctx, r.desc.CreateTableSQL()); err != nil {
				return storeError("create table", r.desc.Table, err)
			}
			r.logger.Info("created table", "table", r.desc.Table)
			return nil
		}
		return r.desc.Compare(stored)
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

func newRepository[T any](db *sql.DB, opts []Option) (*SQLiteRepository[T], error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil database", shared.ErrStore)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}

	desc, err := schema.Describe[T]()
	if err != nil {
		return nil, err
	}

	r := &SQLiteRepository[T]{
		db:     db,
		desc:   desc,
		stmts:  compile(desc),
		logger: o.logger.With("table", desc.Table),
	}
	r.logger.Debug("compiled statements", "insert", r.stmts.insert, "update", r.stmts.update)
	return r, nil
}

// Descriptor returns the table layout derived from T.
func (r *SQLiteRepository[T]) Descriptor() *schema.Descriptor {
	return r.desc
}

// Add inserts record and assigns the new row's identity to its PK field.
//
// The record must be unsaved (PK == 0); otherwise [shared.ErrInvalidState] is returned.
func (r *SQLiteRepository[T]) Add(ctx context.Context, record *T) (int64, error) {
	if record == nil {
		return 0, fmt.Errorf("%w: nil %s record", shared.ErrInvalidState, r.desc.Table)
	}

	rv := reflect.ValueOf(record).Elem()
	if pk := r.desc.Identity(rv); pk != 0 {
		return 0, fmt.Errorf("%w: %s record already has an assigned identity (pk=%d)", shared.ErrInvalidState, r.desc.Table, pk)
	}

	args, err := insertArgs(r.desc, rv)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.withConn(ctx, func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, r.stmts.insert, args...)
		if err != nil {
			return storeError("insert into", r.desc.Table, err)
		}
		if id, err = result.LastInsertId(); err != nil {
			return storeError("read identity of", r.desc.Table, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.desc.SetIdentity(rv, id)
	r.logger.Debug("added record", "pk", id)
	return id, nil
}

// Get retrieves the record with the given identity. A missing row is not an error: Get returns nil, nil.
func (r *SQLiteRepository[T]) Get(ctx context.Context, pk int64) (*T, error) {
	var record *T
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		dest := scanArgs(r.desc)
		err := conn.QueryRowContext(ctx, r.stmts.selectOne, pk).Scan(dest...)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return storeError("select from", r.desc.Table, err)
		}
		record, err = unmarshalRow[T](r.desc, dest)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetAll retrieves every record in identity order, keeping those that match filter.
//
// The filter is applied in memory after a full table read; every named column must equal the given value.
func (r *SQLiteRepository[T]) GetAll(ctx context.Context, filter models.Filter) ([]*T, error) {
	preds, err := compileFilter(r.desc, filter)
	if err != nil {
		return nil, err
	}

	var records []*T
	err = r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, r.stmts.selectAll)
		if err != nil {
			return storeError("select from", r.desc.Table, err)
		}
		defer rows.Close()

		for rows.Next() {
			dest := scanArgs(r.desc)
			if err := rows.Scan(dest...); err != nil {
				return storeError("scan row of", r.desc.Table, err)
			}
			record, err := unmarshalRow[T](r.desc, dest)
			if err != nil {
				return err
			}
			records = append(records, record)
		}

		if err := rows.Err(); err != nil {
			return storeError("iterate rows of", r.desc.Table, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(preds) == 0 {
		return records, nil
	}

	matched := records[:0]
	for _, record := range records {
		ok, err := matchAll(r.desc, preds, reflect.ValueOf(record).Elem())
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

// Update overwrites every business column of the stored row identified by record's PK.
//
// Returns [shared.ErrInvalidState] for an unsaved record and [shared.ErrNotFound] when no row has that identity.
func (r *SQLiteRepository[T]) Update(ctx context.Context, record *T) error {
	if record == nil {
		return fmt.Errorf("%w: nil %s record", shared.ErrInvalidState, r.desc.Table)
	}

	rv := reflect.ValueOf(record).Elem()
	pk := r.desc.Identity(rv)
	if pk == 0 {
		return fmt.Errorf("%w: cannot update %s record with unknown primary key", shared.ErrInvalidState, r.desc.Table)
	}

	args, err := insertArgs(r.desc, rv)
	if err != nil {
		return err
	}
	args = append(args, pk)

	return r.withConn(ctx, func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, r.stmts.update, args...)
		if err != nil {
			return storeError("update", r.desc.Table, err)
		}
		return r.requireAffected(result, pk)
	})
}

// Delete removes the row with the given identity, or returns [shared.ErrNotFound].
func (r *SQLiteRepository[T]) Delete(ctx context.Context, pk int64) error {
	return r.withConn(ctx, func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, r.stmts.delete, pk)
		if err != nil {
			return storeError("delete from", r.desc.Table, err)
		}
		if err := r.requireAffected(result, pk); err != nil {
			return err
		}
		r.logger.Debug("deleted record", "pk", pk)
		return nil
	})
}

// Count returns the number of stored rows.
func (r *SQLiteRepository[T]) Count(ctx context.Context) (int, error) {
	var n int
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		if err := conn.QueryRowContext(ctx, r.stmts.count).Scan(&n); err != nil {
			return storeError("count rows of", r.desc.Table, err)
		}
		return nil
	})
	return n, err
}

func (r *SQLiteRepository[T]) requireAffected(result sql.Result, pk int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return storeError("get affected rows of", r.desc.Table, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s pk=%d", shared.ErrNotFound, r.desc.Table, pk)
	}
	return nil
}

// withConn runs fn on a dedicated connection and releases it afterwards.
func (r *SQLiteRepository[T]) withConn(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return storeError("acquire connection for", r.desc.Table, err)
	}
	defer conn.Close()

	return fn(conn)
}

// storedLayout reads the columns of table, returning nil when the table does not exist.
func storedLayout(ctx context.Context, conn *sql.Conn, table string) (*schema.Descriptor, error) {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", schema.Quote(table)))
	if err != nil {
		return nil, storeError("read layout of", table, err)
	}
	defer rows.Close()

	var (
		fields   []schema.Field
		columns  int
		identity = -1
	)
	for rows.Next() {
		var (
			cid      int
			name     string
			declType string
			notNull  int
			dflt     sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return nil, storeError("scan layout of", table, err)
		}
		columns++

		if name == schema.IdentityColumn {
			if pk == 0 || declType != "INTEGER" {
				return nil, fmt.Errorf("%w: table %s column %q is not an integer primary key", shared.ErrSchema, table, name)
			}
			identity = cid
			continue
		}

		kind, err := schema.ParseKind(declType)
		if err != nil {
			return nil, fmt.Errorf("table %s column %q: %w", table, name, err)
		}
		fields = append(fields, schema.Field{Column: name, Kind: kind, Nullable: notNull == 0})
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate layout of", table, err)
	}

	if columns == 0 {
		return nil, nil
	}
	if identity != columns-1 {
		return nil, fmt.Errorf("%w: table %s has no trailing %q column", shared.ErrSchema, table, schema.IdentityColumn)
	}
	return schema.New(table, fields...)
}

func storeError(action, table string, err error) error {
	return fmt.Errorf("%w: failed to %s %s: %w", shared.ErrStore, action, table, err)
}
