package dialect

import (
	"errors"
	"reflect"
	"testing"
)

func mustLookup(t *testing.T, name string) Dialect {
	t.Helper()
	d, err := Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%q) failed: %v", name, err)
	}
	return d
}

func limit(n int64) *int64 { return &n }

func TestLookupUnsupported(t *testing.T) {
	_, err := Lookup("postgress")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	var ue *UnsupportedError
	if !errors.As(err, &ue) || ue.Name != "postgress" {
		t.Errorf("expected UnsupportedError naming postgress, got %v", err)
	}

	if _, err := Lookup("MySQL"); err == nil {
		t.Error("expected dialect names to be case-sensitive")
	}
}

func TestRegistryNames(t *testing.T) {
	expected := []string{DuckDB, MySQL, Postgres, SQLite, SQLServer}
	if names := NewRegistry().Names(); !reflect.DeepEqual(names, expected) {
		t.Errorf("expected %v, got %v", expected, names)
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	r.Register(New(Options{Name: "oracle", True: "1=1", False: "1=0"}))

	d, err := r.Lookup("oracle")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got := d.PrintBoolean(false); got != "1=0" {
		t.Errorf("expected '1=0', got '%s'", got)
	}

	if _, err := Lookup("oracle"); err == nil {
		t.Error("registering on a private registry must not affect the default one")
	}
}

func TestQuoteField(t *testing.T) {
	tests := []struct {
		dialect  string
		name     string
		expected string
	}{
		{MySQL, "date_joined", "`date_joined`"},
		{MySQL, "we`ird", "`we``ird`"},
		{Postgres, "name", `"name"`},
		{Postgres, `say "hi"`, `"say ""hi"""`},
		{SQLServer, "name", `"name"`},
		{SQLite, "age", `"age"`},
		{DuckDB, "age", `age`},
		{DuckDB, "order", `"order"`},
		{DuckDB, "first name", `"first name"`},
		{DuckDB, "2fa", `"2fa"`},
	}

	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.name, func(t *testing.T) {
			if got := mustLookup(t, tt.dialect).QuoteField(tt.name); got != tt.expected {
				t.Errorf("expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		dialect  string
		value    string
		expected string
	}{
		{MySQL, "cam", "'cam'"},
		{MySQL, "O'Brien", "'O''Brien'"},
		{MySQL, `C:\temp`, `'C:\\temp'`},
		{Postgres, "cam", "'cam'"},
		{Postgres, "O'Brien", "'O''Brien'"},
		{Postgres, `C:\temp`, `E'C:\\temp'`},
		{SQLServer, "it's", "'it''s'"},
		{DuckDB, "it's", "'it''s'"},
		{SQLite, "2015-11-01", "'2015-11-01'"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.value, func(t *testing.T) {
			if got := mustLookup(t, tt.dialect).QuoteString(tt.value); got != tt.expected {
				t.Errorf("expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestPrintBoolean(t *testing.T) {
	tests := []struct {
		dialect       string
		true_, false_ string
	}{
		{MySQL, "TRUE", "FALSE"},
		{Postgres, "TRUE", "FALSE"},
		{SQLServer, "1=1", "0=1"},
		{DuckDB, "TRUE", "FALSE"},
		{SQLite, "TRUE", "FALSE"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			d := mustLookup(t, tt.dialect)
			if got := d.PrintBoolean(true); got != tt.true_ {
				t.Errorf("expected '%s', got '%s'", tt.true_, got)
			}
			if got := d.PrintBoolean(false); got != tt.false_ {
				t.Errorf("expected '%s', got '%s'", tt.false_, got)
			}
		})
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  string
		where    string
		limit    *int64
		expected string
	}{
		{"plain", Postgres, "", nil, "SELECT * FROM data;"},
		{"where", Postgres, `"name" = 'cam'`, nil, `SELECT * FROM data WHERE "name" = 'cam';`},
		{"limit", Postgres, "", limit(20), "SELECT * FROM data LIMIT 20;"},
		{"where and limit", MySQL, "`name` = 'cam'", limit(10), "SELECT * FROM data WHERE `name` = 'cam' LIMIT 10;"},
		{"zero limit", MySQL, "", limit(0), "SELECT * FROM data LIMIT 0;"},
		{"top", SQLServer, "", limit(20), "SELECT TOP 20 * FROM data;"},
		{"top with where", SQLServer, `"age" > 18`, limit(5), `SELECT TOP 5 * FROM data WHERE "age" > 18;`},
		{"no top", SQLServer, `"age" > 18`, nil, `SELECT * FROM data WHERE "age" > 18;`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustLookup(t, tt.dialect).BuildQuery("SELECT", "data", tt.where, tt.limit)
			if got != tt.expected {
				t.Errorf("expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}
