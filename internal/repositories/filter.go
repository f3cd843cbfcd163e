package repositories

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/SofiaMurZ/bookkeeper/internal/models"
	"github.com/SofiaMurZ/bookkeeper/internal/schema"
	"github.com/SofiaMurZ/bookkeeper/internal/shared"
)

// predicate is one exact-match condition of a [models.Filter], with the wanted value
// already converted to the field's storage scalar.
type predicate struct {
	field    schema.Field
	identity bool
	want     any
}

func compileFilter(d *schema.Descriptor, filter models.Filter) ([]predicate, error) {
	columns := make([]string, 0, len(filter))
	for column := range filter {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	preds := make([]predicate, 0, len(columns))
	for _, column := range columns {
		value := filter[column]

		if column == schema.IdentityColumn {
			pk, err := identityValue(value)
			if err != nil {
				return nil, err
			}
			preds = append(preds, predicate{identity: true, want: pk})
			continue
		}

		f, ok := d.Field(column)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no column %q", shared.ErrSchema, d.Table, column)
		}
		want, err := f.Normalize(value)
		if err != nil {
			return nil, fmt.Errorf("filter on %s: %w", d.Table, err)
		}
		preds = append(preds, predicate{field: f, want: want})
	}
	return preds, nil
}

func matchAll(d *schema.Descriptor, preds []predicate, rec reflect.Value) (bool, error) {
	for _, p := range preds {
		var got any
		if p.identity {
			got = d.Identity(rec)
		} else {
			v, err := p.field.Encode(rec)
			if err != nil {
				return false, err
			}
			got = v
		}
		if got != p.want {
			return false, nil
		}
	}
	return true, nil
}

func identityValue(value any) (int64, error) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint()), nil
	}
	return 0, fmt.Errorf("%w: %s filter must be an integer, got %T", shared.ErrInvalidInput, schema.IdentityColumn, value)
}
