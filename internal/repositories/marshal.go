package repositories

import (
	"fmt"
	"reflect"

	"github.com/SofiaMurZ/bookkeeper/internal/schema"
	"github.com/SofiaMurZ/bookkeeper/internal/shared"
)

// insertArgs returns the business field values of rec in column order, identity excluded.
func insertArgs(d *schema.Descriptor, rec reflect.Value) ([]any, error) {
	args := make([]any, 0, len(d.Fields))
	for _, f := range d.Fields {
		v, err := f.Encode(rec)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", d.Table, f.Column, err)
		}
		args = append(args, v)
	}
	return args, nil
}

// scanArgs returns one destination per selected column (business columns, then pk).
func scanArgs(d *schema.Descriptor) []any {
	dest := make([]any, len(d.Fields)+1)
	for i := range dest {
		dest[i] = new(any)
	}
	return dest
}

// unmarshalRow builds a new record from scanned column values.
func unmarshalRow[T any](d *schema.Descriptor, dest []any) (*T, error) {
	record := new(T)
	rv := reflect.ValueOf(record).Elem()

	for i, f := range d.Fields {
		if err := f.Decode(rv, *dest[i].(*any)); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", shared.ErrSchema, d.Table, err)
		}
	}

	pk, err := identityValue(*dest[len(d.Fields)].(*any))
	if err != nil {
		return nil, fmt.Errorf("%w: %s row: %w", shared.ErrSchema, d.Table, err)
	}
	d.SetIdentity(rv, pk)

	return record, nil
}
