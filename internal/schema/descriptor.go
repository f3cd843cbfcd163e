package schema

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/SofiaMurZ/bookkeeper/internal/shared"
)

// IdentityColumn is the name of the primary key column of every table.
const IdentityColumn = "pk"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Tabler lets a record type choose its own table name.
type Tabler interface {
	TableName() string
}

// Field describes one business column.
type Field struct {
	Name     string // Go field name, empty for layout-only descriptors
	Column   string
	Kind     Kind
	Nullable bool

	typ   reflect.Type
	index []int
}

// Type returns the Go type of the field, or nil for layout-only fields.
func (f Field) Type() reflect.Type { return f.typ }

// Descriptor is the ordered column mapping of one record type.
type Descriptor struct {
	Table  string
	Fields []Field

	record   reflect.Type
	identity []int
	byColumn map[string]int
}

// Describe builds the [Descriptor] of struct type T.
func Describe[T any]() (*Descriptor, error) {
	return DescribeType(reflect.TypeFor[T]())
}

// DescribeType builds the [Descriptor] of a struct type (or pointer to struct).
func DescribeType(t reflect.Type) (*Descriptor, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil record type", shared.ErrSchema)
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: record type %s is not a struct", shared.ErrSchema, t)
	}

	d := &Descriptor{Table: tableName(t), record: t}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}

		column, ok := columnName(sf)
		if !ok {
			continue
		}

		if column == IdentityColumn {
			if d.identity != nil {
				return nil, fmt.Errorf("%w: %s declares more than one identity field", shared.ErrSchema, t.Name())
			}
			if !isIntegerType(sf.Type) {
				return nil, fmt.Errorf("%w: identity field %s.%s must be an integer, got %s", shared.ErrSchema, t.Name(), sf.Name, sf.Type)
			}
			d.identity = sf.Index
			continue
		}

		kind, nullable, err := classify(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name(), sf.Name, err)
		}

		d.Fields = append(d.Fields, Field{
			Name:     sf.Name,
			Column:   column,
			Kind:     kind,
			Nullable: nullable,
			typ:      sf.Type,
			index:    sf.Index,
		})
	}

	if d.identity == nil {
		return nil, fmt.Errorf("%w: %s has no identity field (PK or `db:\"pk\"`)", shared.ErrSchema, t.Name())
	}

	if err := d.index(); err != nil {
		return nil, err
	}

	return d, nil
}

// New builds a layout-only descriptor from explicit fields.
//
// Layout-only descriptors can generate DDL and be compared, but cannot read or write records.
func New(table string, fields ...Field) (*Descriptor, error) {
	d := &Descriptor{Table: table}
	for _, f := range fields {
		if f.Column == IdentityColumn {
			return nil, fmt.Errorf("%w: %q is reserved for the identity column", shared.ErrSchema, IdentityColumn)
		}
		if f.Kind != Integer && f.Kind != Text {
			return nil, fmt.Errorf("%w: column %q has no kind", shared.ErrSchema, f.Column)
		}
		d.Fields = append(d.Fields, Field{Column: f.Column, Kind: f.Kind, Nullable: f.Nullable})
	}

	if err := d.index(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Descriptor) index() error {
	if !identPattern.MatchString(d.Table) {
		return fmt.Errorf("%w: invalid table name %q", shared.ErrSchema, d.Table)
	}

	d.byColumn = make(map[string]int, len(d.Fields))
	for i, f := range d.Fields {
		if !identPattern.MatchString(f.Column) {
			return fmt.Errorf("%w: invalid column name %q", shared.ErrSchema, f.Column)
		}
		if _, dup := d.byColumn[f.Column]; dup {
			return fmt.Errorf("%w: duplicate column %q in %s", shared.ErrSchema, f.Column, d.Table)
		}
		d.byColumn[f.Column] = i
	}
	return nil
}

// Field looks up a business field by column name.
func (d *Descriptor) Field(column string) (Field, bool) {
	i, ok := d.byColumn[column]
	if !ok {
		return Field{}, false
	}
	return d.Fields[i], true
}

// Columns returns the business columns followed by the identity column.
func (d *Descriptor) Columns() []string {
	cols := make([]string, 0, len(d.Fields)+1)
	for _, f := range d.Fields {
		cols = append(cols, f.Column)
	}
	return append(cols, IdentityColumn)
}

// RecordType returns the struct type the descriptor was derived from, or nil.
func (d *Descriptor) RecordType() reflect.Type { return d.record }

// Identity returns the identity value of rec, which must be a struct value of the record type.
func (d *Descriptor) Identity(rec reflect.Value) int64 {
	v := rec.FieldByIndex(d.identity)
	if v.CanInt() {
		return v.Int()
	}
	return int64(v.Uint())
}

// SetIdentity assigns the identity of rec, which must be addressable.
func (d *Descriptor) SetIdentity(rec reflect.Value, pk int64) {
	v := rec.FieldByIndex(d.identity)
	if v.CanInt() {
		v.SetInt(pk)
		return
	}
	v.SetUint(uint64(pk))
}

func tableName(t reflect.Type) string {
	zero := reflect.New(t)
	if tn, ok := zero.Interface().(Tabler); ok {
		return tn.TableName()
	}
	return t.Name()
}

func columnName(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("db")
	if tag == "-" {
		return "", false
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, true
	}
	return SnakeCase(sf.Name), true
}

// SnakeCase converts a Go identifier to snake_case ("ExpenseDate" -> "expense_date", "PK" -> "pk").
func SnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
