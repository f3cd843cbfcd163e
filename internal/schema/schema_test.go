package schema

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/SofiaMurZ/bookkeeper/internal/shared"
)

type expense struct {
	Amount      int64
	Category    string
	ExpenseDate time.Time
	Comment     *string
	Hidden      string `db:"-"`
	internal    int
	PK          int64
}

type tagged struct {
	Title string `db:"title,omitempty"`
	ID    int    `db:"pk"`
}

func (tagged) TableName() string { return "tagged_things" }

type noIdentity struct {
	Name string
}

type textIdentity struct {
	PK string
}

type unsupported struct {
	Ratio float64
	PK    int64
}

type counter struct {
	N  uint64
	PK int64
}

type duplicate struct {
	A  string `db:"name"`
	B  string `db:"name"`
	PK int64
}

func TestDescribe(t *testing.T) {
	t.Run("derives ordered fields and excludes identity", func(t *testing.T) {
		d, err := Describe[expense]()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if d.Table != "expense" {
			t.Errorf("expected table expense, got %s", d.Table)
		}

		want := []Field{
			{Name: "Amount", Column: "amount", Kind: Integer},
			{Name: "Category", Column: "category", Kind: Text},
			{Name: "ExpenseDate", Column: "expense_date", Kind: Text},
			{Name: "Comment", Column: "comment", Kind: Text, Nullable: true},
		}
		if len(d.Fields) != len(want) {
			t.Fatalf("expected %d fields, got %d", len(want), len(d.Fields))
		}
		for i, w := range want {
			got := d.Fields[i]
			if got.Name != w.Name || got.Column != w.Column || got.Kind != w.Kind || got.Nullable != w.Nullable {
				t.Errorf("field %d: expected %+v, got %+v", i, w, got)
			}
		}

		cols := d.Columns()
		if cols[len(cols)-1] != IdentityColumn {
			t.Errorf("identity column should be last, got %v", cols)
		}
	})

	t.Run("tags and TableName", func(t *testing.T) {
		d, err := Describe[tagged]()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Table != "tagged_things" {
			t.Errorf("expected table tagged_things, got %s", d.Table)
		}
		if _, ok := d.Field("title"); !ok {
			t.Error("expected title column")
		}
	})

	t.Run("pointer type", func(t *testing.T) {
		d, err := DescribeType(reflect.TypeOf(&expense{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.RecordType() != reflect.TypeOf(expense{}) {
			t.Errorf("expected record type expense, got %v", d.RecordType())
		}
	})

	errCases := []struct {
		name string
		typ  reflect.Type
	}{
		{"missing identity", reflect.TypeOf(noIdentity{})},
		{"non-integer identity", reflect.TypeOf(textIdentity{})},
		{"unsupported field type", reflect.TypeOf(unsupported{})},
		{"duplicate column", reflect.TypeOf(duplicate{})},
		{"not a struct", reflect.TypeOf(42)},
		{"nil type", nil},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DescribeType(tt.typ)
			if !errors.Is(err, shared.ErrSchema) {
				t.Errorf("expected ErrSchema, got %v", err)
			}
		})
	}
}

func TestSnakeCase(t *testing.T) {
	tc := map[string]string{
		"Amount":      "amount",
		"ExpenseDate": "expense_date",
		"PK":          "pk",
		"HTTPCode":    "http_code",
		"Line2Total":  "line2_total",
		"already":     "already",
	}

	for in, want := range tc {
		t.Run(in, func(t *testing.T) {
			if got := SnakeCase(in); got != want {
				t.Errorf("SnakeCase(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func TestDDL(t *testing.T) {
	d, err := Describe[expense]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `CREATE TABLE "expense" ("amount" INTEGER, "category" TEXT, "expense_date" TEXT, "comment" TEXT, "pk" INTEGER PRIMARY KEY AUTOINCREMENT)`
	if got := d.CreateTableSQL(); got != want {
		t.Errorf("CreateTableSQL() =\n%s\nwant\n%s", got, want)
	}

	if got := d.DropTableSQL(); got != `DROP TABLE IF EXISTS "expense"` {
		t.Errorf("unexpected DropTableSQL(): %s", got)
	}

	if got := Quote(`we"ird`); got != `"we""ird"` {
		t.Errorf("unexpected Quote(): %s", got)
	}
}

func TestCompare(t *testing.T) {
	d, err := Describe[expense]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("matching layout", func(t *testing.T) {
		stored, err := New("expense",
			Field{Column: "amount", Kind: Integer},
			Field{Column: "category", Kind: Text},
			Field{Column: "expense_date", Kind: Text},
			Field{Column: "comment", Kind: Text},
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := d.Compare(stored); err != nil {
			t.Errorf("expected layouts to match, got %v", err)
		}
	})

	mismatches := map[string][]Field{
		"missing column": {
			{Column: "amount", Kind: Integer},
			{Column: "category", Kind: Text},
		},
		"renamed column": {
			{Column: "amount", Kind: Integer},
			{Column: "kind", Kind: Text},
			{Column: "expense_date", Kind: Text},
			{Column: "comment", Kind: Text},
		},
		"retyped column": {
			{Column: "amount", Kind: Text},
			{Column: "category", Kind: Text},
			{Column: "expense_date", Kind: Text},
			{Column: "comment", Kind: Text},
		},
	}
	for name, fields := range mismatches {
		t.Run(name, func(t *testing.T) {
			stored, err := New("expense", fields...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := d.Compare(stored); !errors.Is(err, shared.ErrSchema) {
				t.Errorf("expected ErrSchema, got %v", err)
			}
		})
	}

	t.Run("New rejects reserved and invalid names", func(t *testing.T) {
		if _, err := New("expense", Field{Column: "pk", Kind: Integer}); !errors.Is(err, shared.ErrSchema) {
			t.Errorf("expected ErrSchema for pk column, got %v", err)
		}
		if _, err := New("drop table;", Field{Column: "a", Kind: Integer}); !errors.Is(err, shared.ErrSchema) {
			t.Errorf("expected ErrSchema for invalid table name, got %v", err)
		}
		if _, err := New("t", Field{Column: "a"}); !errors.Is(err, shared.ErrSchema) {
			t.Errorf("expected ErrSchema for missing kind, got %v", err)
		}
	})
}

func TestEncodeDecode(t *testing.T) {
	d, err := Describe[expense]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	amount, _ := d.Field("amount")
	category, _ := d.Field("category")
	date, _ := d.Field("expense_date")
	comment, _ := d.Field("comment")

	t.Run("round trip", func(t *testing.T) {
		note := "lunch"
		when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
		src := reflect.ValueOf(expense{Amount: 500, Category: "food", ExpenseDate: when, Comment: &note})
		dst := reflect.New(reflect.TypeOf(expense{})).Elem()

		for _, f := range d.Fields {
			v, err := f.Encode(src)
			if err != nil {
				t.Fatalf("encode %s: %v", f.Column, err)
			}
			if err := f.Decode(dst, v); err != nil {
				t.Fatalf("decode %s: %v", f.Column, err)
			}
		}

		got := dst.Interface().(expense)
		if got.Amount != 500 || got.Category != "food" || !got.ExpenseDate.Equal(when) {
			t.Errorf("unexpected round trip result: %+v", got)
		}
		if got.Comment == nil || *got.Comment != "lunch" {
			t.Errorf("expected comment lunch, got %v", got.Comment)
		}
	})

	t.Run("null maps to nil pointer and zero value", func(t *testing.T) {
		note := "stale"
		dst := reflect.ValueOf(&expense{Amount: 7, Comment: &note}).Elem()

		if err := comment.Decode(dst, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := amount.Decode(dst, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := dst.Interface().(expense)
		if got.Comment != nil || got.Amount != 0 {
			t.Errorf("expected nil comment and zero amount, got %+v", got)
		}

		v, err := comment.Encode(dst)
		if err != nil || v != nil {
			t.Errorf("expected nil encoding for nil pointer, got %v (%v)", v, err)
		}
	})

	t.Run("decodes text input", func(t *testing.T) {
		dst := reflect.New(reflect.TypeOf(expense{})).Elem()
		if err := amount.Decode(dst, " 42 "); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := date.Decode(dst, []byte("2024-01-02")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := category.Decode(dst, int64(3)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := dst.Interface().(expense)
		if got.Amount != 42 || got.ExpenseDate.Format("2006-01-02") != "2024-01-02" || got.Category != "3" {
			t.Errorf("unexpected decode result: %+v", got)
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		dst := reflect.New(reflect.TypeOf(expense{})).Elem()
		if err := amount.Decode(dst, "five"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := date.Decode(dst, "yesterday"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("rejects unsigned values beyond INTEGER range", func(t *testing.T) {
		cd, err := Describe[counter]()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n, _ := cd.Field("n")

		if _, err := n.Encode(reflect.ValueOf(counter{N: math.MaxUint64})); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for MaxUint64, got %v", err)
		}
		if _, err := n.Normalize(uint64(math.MaxInt64) + 1); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput when normalizing MaxInt64+1, got %v", err)
		}

		v, err := n.Encode(reflect.ValueOf(counter{N: math.MaxInt64}))
		if err != nil || v != int64(math.MaxInt64) {
			t.Errorf("expected MaxInt64 to encode, got %v (%v)", v, err)
		}
	})

	t.Run("time keeps its offset", func(t *testing.T) {
		when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("UTC+3", 3*60*60))
		v, err := date.Encode(reflect.ValueOf(expense{ExpenseDate: when}))
		if err != nil || v != "2024-03-01T12:30:00+03:00" {
			t.Fatalf("unexpected encoding %v (%v)", v, err)
		}

		dst := reflect.New(reflect.TypeOf(expense{})).Elem()
		if err := date.Decode(dst, v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := dst.Interface().(expense).ExpenseDate
		if _, offset := got.Zone(); !got.Equal(when) || offset != 3*60*60 {
			t.Errorf("expected %v with +03:00 offset, got %v", when, got)
		}
	})

	t.Run("Normalize", func(t *testing.T) {
		for _, in := range []any{500, int32(500), uint(500), "500"} {
			v, err := amount.Normalize(in)
			if err != nil || v != int64(500) {
				t.Errorf("Normalize(%v) = %v, %v", in, v, err)
			}
		}

		v, err := comment.Normalize(nil)
		if err != nil || v != nil {
			t.Errorf("Normalize(nil) = %v, %v", v, err)
		}

		v, err = date.Normalize("2024-01-02")
		if err != nil || !strings.HasPrefix(v.(string), "2024-01-02T00:00:00") {
			t.Errorf("Normalize(date) = %v, %v", v, err)
		}
	})
}

func TestKind(t *testing.T) {
	if Integer.String() != "INTEGER" || Text.String() != "TEXT" {
		t.Errorf("unexpected kind names: %s %s", Integer, Text)
	}

	for _, name := range []string{"INTEGER", "TEXT"} {
		k, err := ParseKind(name)
		if err != nil || k.String() != name {
			t.Errorf("ParseKind(%q) = %v, %v", name, k, err)
		}
	}

	if _, err := ParseKind("REAL"); !errors.Is(err, shared.ErrSchema) {
		t.Errorf("expected ErrSchema for REAL, got %v", err)
	}
}
