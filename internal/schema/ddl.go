package schema

import (
	"fmt"
	"strings"

	"github.com/SofiaMurZ/bookkeeper/internal/shared"
)

// Quote returns ident as a double-quoted SQL identifier.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// CreateTableSQL emits the CREATE TABLE statement for the descriptor.
//
// Business columns keep their declared order; the identity column comes last.
func (d *Descriptor) CreateTableSQL() string {
	cols := make([]string, 0, len(d.Fields)+1)
	for _, f := range d.Fields {
		cols = append(cols, fmt.Sprintf("%s %s", Quote(f.Column), f.Kind))
	}
	cols = append(cols, fmt.Sprintf("%s INTEGER PRIMARY KEY AUTOINCREMENT", Quote(IdentityColumn)))
	return fmt.Sprintf("CREATE TABLE %s (%s)", Quote(d.Table), strings.Join(cols, ", "))
}

// DropTableSQL emits the DROP TABLE statement for the descriptor.
func (d *Descriptor) DropTableSQL() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", Quote(d.Table))
}

// Compare reports an [shared.ErrSchema] describing the first difference between the
// descriptor and a stored table layout. Nullability is not compared since SQLite
// columns created here never carry NOT NULL.
func (d *Descriptor) Compare(stored *Descriptor) error {
	if len(stored.Fields) != len(d.Fields) {
		return fmt.Errorf("%w: table %s has %d columns, record type declares %d",
			shared.ErrSchema, d.Table, len(stored.Fields)+1, len(d.Fields)+1)
	}

	for i, f := range d.Fields {
		s := stored.Fields[i]
		if s.Column != f.Column {
			return fmt.Errorf("%w: table %s column %d is %q, expected %q", shared.ErrSchema, d.Table, i, s.Column, f.Column)
		}
		if s.Kind != f.Kind {
			return fmt.Errorf("%w: table %s column %q is %s, expected %s", shared.ErrSchema, d.Table, f.Column, s.Kind, f.Kind)
		}
	}
	return nil
}
