package schema

import (
	"fmt"
	"reflect"
	"time"

	"github.com/SofiaMurZ/bookkeeper/internal/shared"
)

// Kind is the semantic storage type of a column.
type Kind int

const (
	Integer Kind = iota + 1
	Text
)

var timeType = reflect.TypeOf(time.Time{})

// String returns the SQL column type for k.
func (k Kind) String() string {
	switch k {
	case Integer:
		return "INTEGER"
	case Text:
		return "TEXT"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a declared SQL column type back to a [Kind].
func ParseKind(sqlType string) (Kind, error) {
	switch sqlType {
	case "INTEGER":
		return Integer, nil
	case "TEXT":
		return Text, nil
	default:
		return 0, fmt.Errorf("%w: unsupported column type %q", shared.ErrSchema, sqlType)
	}
}

// classify returns the kind of a Go field type and whether it is nullable.
func classify(t reflect.Type) (Kind, bool, error) {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	if t == timeType {
		return Text, nullable, nil
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Bool:
		return Integer, nullable, nil
	case reflect.String:
		return Text, nullable, nil
	default:
		return 0, false, fmt.Errorf("%w: unsupported field type %s", shared.ErrSchema, t)
	}
}

func isIntegerType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
