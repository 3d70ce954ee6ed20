package dialect

import (
	"errors"
	"slices"
	"sync"
)

// Built-in dialect names.
const (
	MySQL     = "mysql"
	Postgres  = "postgres"
	SQLServer = "sqlserver"
	DuckDB    = "duckdb"
	SQLite    = "sqlite"
)

// ErrUnsupported indicates a dialect name with no registered dialect.
var ErrUnsupported = errors.New("unsupported dialect")

// UnsupportedError reports the unknown dialect name.
type UnsupportedError struct {
	Name string
}

func (e *UnsupportedError) Error() string {
	return "dialect: unsupported dialect " + e.Name
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// Builtins returns fresh instances of the built-in dialects.
func Builtins() []Dialect {
	return []Dialect{
		New(Options{
			Name:        MySQL,
			QuoteField:  quoteBacktick,
			QuoteString: quoteMySQLLiteral,
		}),
		New(Options{
			Name:        Postgres,
			QuoteField:  quotePostgresIdentifier,
			QuoteString: quotePostgresLiteral,
		}),
		New(Options{
			Name: SQLServer,
			// SQL Server has no boolean literals.
			True:  "1=1",
			False: "0=1",
			Limit: LimitTop,
		}),
		New(Options{
			Name:       DuckDB,
			QuoteField: quoteIdentifierIfNeeded,
		}),
		New(Options{
			Name: SQLite,
		}),
	}
}

// Registry maps dialect names to dialects. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	dialects map[string]Dialect
}

// NewRegistry creates a registry holding the built-in dialects.
func NewRegistry() *Registry {
	r := &Registry{dialects: make(map[string]Dialect)}
	for _, d := range Builtins() {
		r.dialects[d.Name()] = d
	}
	return r
}

// Register adds d under d.Name(), replacing any dialect of the same name.
func (r *Registry) Register(d Dialect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dialects[d.Name()] = d
}

// Lookup returns the dialect registered under name.
// Names are case-sensitive.
func (r *Registry) Lookup(name string) (Dialect, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.dialects[name]
	if !ok {
		return nil, &UnsupportedError{Name: name}
	}
	return d, nil
}

// Names returns the registered dialect names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.dialects))
	for name := range r.dialects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Lookup returns a dialect from the default registry.
func Lookup(name string) (Dialect, error) {
	return defaultRegistry.Lookup(name)
}
