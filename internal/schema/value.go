package schema

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/SofiaMurZ/bookkeeper/internal/shared"
)

// TimeLayout is the text encoding of [time.Time] fields.
const TimeLayout = time.RFC3339Nano

// Extra layouts accepted when decoding text into a time field.
var timeLayouts = []string{TimeLayout, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

// Get returns the field's reflect.Value inside rec (a struct value of the record type).
func (f Field) Get(rec reflect.Value) reflect.Value {
	return rec.FieldByIndex(f.index)
}

// Encode returns the storage scalar for the field of rec: int64, string, or nil for a nil pointer.
func (f Field) Encode(rec reflect.Value) (any, error) {
	if f.index == nil {
		return nil, fmt.Errorf("%w: column %q is layout-only", shared.ErrSchema, f.Column)
	}
	return encode(f.Get(rec))
}

func encode(v reflect.Value) (any, error) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	if v.Type() == timeType {
		return v.Interface().(time.Time).Format(TimeLayout), nil
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Uint() > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d does not fit an INTEGER column", shared.ErrInvalidInput, v.Uint())
		}
		return int64(v.Uint()), nil
	case reflect.Bool:
		if v.Bool() {
			return int64(1), nil
		}
		return int64(0), nil
	case reflect.String:
		return v.String(), nil
	}
	return nil, fmt.Errorf("%w: cannot encode %s", shared.ErrSchema, v.Type())
}

// Decode assigns a scalar to the field of rec, which must be addressable.
//
// A nil value leaves a nil pointer, or the zero value for non-pointer fields. Strings are
// parsed for integer and time fields, so Decode also accepts command-line input.
func (f Field) Decode(rec reflect.Value, value any) error {
	if f.index == nil {
		return fmt.Errorf("%w: column %q is layout-only", shared.ErrSchema, f.Column)
	}
	if err := decode(f.Get(rec), value); err != nil {
		return fmt.Errorf("column %q: %w", f.Column, err)
	}
	return nil
}

func decode(dst reflect.Value, value any) error {
	if b, ok := value.([]byte); ok {
		value = string(b)
	}
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			value = nil
		} else {
			value = rv.Elem().Interface()
		}
	}

	if value == nil {
		dst.SetZero()
		return nil
	}

	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := decode(elem.Elem(), value); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	src := reflect.ValueOf(value)

	if dst.Type() == timeType {
		t, err := toTime(value)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	}

	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(src)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%w: %d overflows %s", shared.ErrInvalidInput, n, dst.Type())
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt64(src)
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("%w: %d overflows %s", shared.ErrInvalidInput, n, dst.Type())
		}
		dst.SetUint(uint64(n))
	case reflect.Bool:
		b, err := toBool(src)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case reflect.String:
		dst.SetString(toString(src))
	default:
		return fmt.Errorf("%w: cannot decode into %s", shared.ErrSchema, dst.Type())
	}
	return nil
}

// Normalize converts value to the storage scalar the field would hold after decoding it,
// so that values of different Go types can be compared (500 vs int64(500), "2024-01-02" vs a time).
func (f Field) Normalize(value any) (any, error) {
	if f.typ == nil {
		return nil, fmt.Errorf("%w: column %q is layout-only", shared.ErrSchema, f.Column)
	}
	tmp := reflect.New(f.typ).Elem()
	if err := decode(tmp, value); err != nil {
		return nil, fmt.Errorf("column %q: %w", f.Column, err)
	}
	return encode(tmp)
}

func toInt64(v reflect.Value) (int64, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Uint() > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d does not fit an INTEGER column", shared.ErrInvalidInput, v.Uint())
		}
		return int64(v.Uint()), nil
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	case reflect.String:
		n, err := strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", shared.ErrInvalidInput, v.String())
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: cannot use %s as an integer", shared.ErrInvalidInput, v.Type())
}

func toBool(v reflect.Value) (bool, error) {
	if v.Kind() == reflect.String {
		b, err := strconv.ParseBool(strings.TrimSpace(v.String()))
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a boolean", shared.ErrInvalidInput, v.String())
		}
		return b, nil
	}
	n, err := toInt64(v)
	return n != 0, err
}

func toString(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	}
	if t, ok := v.Interface().(time.Time); ok {
		return t.Format(TimeLayout)
	}
	return fmt.Sprint(v.Interface())
}

func toTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q is not a timestamp", shared.ErrInvalidInput, v)
	}
	return time.Time{}, fmt.Errorf("%w: cannot use %T as a timestamp", shared.ErrInvalidInput, value)
}
