package repositories

import (
	"fmt"
	"strings"

	"github.com/SofiaMurZ/bookkeeper/internal/schema"
)

// statements holds the SQL compiled once per repository. Every value is bound with "?";
// only identifiers from the validated descriptor are written into the text.
type statements struct {
	insert    string
	selectOne string
	selectAll string
	update    string
	delete    string
	count     string
}

func compile(d *schema.Descriptor) statements {
	table := schema.Quote(d.Table)
	pk := schema.Quote(schema.IdentityColumn)

	all := make([]string, 0, len(d.Fields)+1)
	business := make([]string, 0, len(d.Fields))
	sets := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		col := schema.Quote(f.Column)
		business = append(business, col)
		sets = append(sets, col+" = ?")
	}
	all = append(append(all, business...), pk)
	columns := strings.Join(all, ", ")

	insert := fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", table)
	if len(business) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(business)), ", ")
		insert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(business, ", "), placeholders)
	}

	// With no business columns the update still has to touch the row so a missing pk is detected.
	if len(sets) == 0 {
		sets = append(sets, pk+" = "+pk)
	}

	return statements{
		insert:    insert,
		selectOne: fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", columns, table, pk),
		selectAll: fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", columns, table, pk),
		update:    fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", table, strings.Join(sets, ", "), pk),
		delete:    fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, pk),
		count:     fmt.Sprintf("SELECT COUNT(*) FROM %s", table),
	}
}
