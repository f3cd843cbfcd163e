// package formatter renders stored records as CSV, Markdown, text tables, JSON, or YAML
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/SofiaMurZ/bookkeeper/internal/schema"
	"github.com/SofiaMurZ/bookkeeper/internal/shared"
)

// Format names an output encoding.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatYAML     Format = "yaml"
)

// Formats lists every supported [Format] in help order.
var Formats = []Format{FormatTable, FormatJSON, FormatCSV, FormatMarkdown, FormatYAML}

// ParseFormat resolves a format name, accepting "markdown" and "yml" as aliases.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatTable, FormatJSON, FormatCSV, FormatMarkdown, FormatYAML:
		return f, nil
	case "markdown":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, name)
}

// Ext returns the file extension used when exporting in this format.
func (f Format) Ext() string {
	switch f {
	case FormatTable:
		return ".txt"
	case FormatMarkdown:
		return ".md"
	}
	return "." + string(f)
}

// Table is a snapshot of records as storage scalars, one row per record and one cell per column.
//
// Cells hold int64, string, or nil, exactly as they are written to the database.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// NewTable encodes records with the column layout of d (business columns, then pk).
func NewTable[T any](d *schema.Descriptor, records []*T) (*Table, error) {
	if rt := d.RecordType(); rt != nil && rt != reflect.TypeOf((*T)(nil)).Elem() {
		return nil, fmt.Errorf("%w: descriptor of %s used for %T records", shared.ErrSchema, rt, *new(T))
	}

	t := &Table{Name: d.Table, Columns: d.Columns(), Rows: make([][]any, 0, len(records))}

	for _, record := range records {
		if record == nil {
			continue
		}
		rv := reflect.ValueOf(record).Elem()

		row := make([]any, 0, len(t.Columns))
		for _, f := range d.Fields {
			v, err := f.Encode(rv)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s.%s: %w", d.Table, f.Column, err)
			}
			row = append(row, v)
		}
		t.Rows = append(t.Rows, append(row, d.Identity(rv)))
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Records returns the rows as column-keyed maps.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]any, len(t.Columns))
		for i, col := range t.Columns {
			m[col] = row[i]
		}
		out = append(out, m)
	}
	return out
}

// Cell formats a storage scalar for text output. NULL renders as an empty string.
func Cell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return fmt.Sprint(v)
}

// Render writes t to w in format f.
func Render(w io.Writer, t *Table, f Format) error {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatTable, "":
		data, err = ExportToTable(t)
	case FormatJSON:
		data, err = ExportToJSON(t)
	case FormatCSV:
		data, err = ExportToCSV(t)
	case FormatMarkdown:
		data, err = ExportToMarkdown(t)
	case FormatYAML:
		data, err = ExportToYAML(t)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// ExportToCSV converts t to CSV with the column names as header row
func ExportToCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range t.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = Cell(v)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts t to a Markdown document with a heading, a row count, and a pipe table
func ExportToMarkdown(t *Table) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", t.Name)
	fmt.Fprintf(&buf, "**Rows**: %d\n\n", t.Len())

	if t.Len() == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(t.Columns)) + "\n")

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = markdownEscaper.Replace(Cell(v))
		}
		buf.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	return buf.Bytes(), nil
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>")

// ExportToTable renders t as a box-drawn text table
func ExportToTable(t *Table) ([]byte, error) {
	var buf bytes.Buffer

	tw := table.NewWriter()
	tw.SetOutputMirror(&buf)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Footer = text.FormatDefault
	tw.SetTitle(t.Name)

	header := make(table.Row, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	tw.AppendHeader(header)

	for _, row := range t.Rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = Cell(v)
		}
		tw.AppendRow(r)
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d rows", t.Len())})

	tw.Render()
	return buf.Bytes(), nil
}

// ExportToJSON converts t to an indented JSON array of column-keyed objects
func ExportToJSON(t *Table) ([]byte, error) {
	data, err := shared.MarshalJSON(t.Records(), true)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ExportToYAML converts t to a YAML sequence of mappings, keeping the table's column order
func ExportToYAML(t *Table) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.SequenceNode}

	for _, row := range t.Rows {
		item := &yaml.Node{Kind: yaml.MappingNode}
		for i, col := range t.Columns {
			item.Content = append(item.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: col},
				yamlScalar(row[i]),
			)
		}
		doc.Content = append(doc.Content, item)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func yamlScalar(v any) *yaml.Node {
	switch v := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v, 10)}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: Cell(v)}
}

// WriteExport renders t in format f to path, creating parent directories as needed.
//
// Defaults to {table}{ext} in the working directory when path is empty.
func WriteExport(t *Table, f Format, path string) (string, error) {
	if path == "" {
		path = t.Name + f.Ext()
	}

	var buf bytes.Buffer
	if err := Render(&buf, t, f); err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}
	return path, nil
}
