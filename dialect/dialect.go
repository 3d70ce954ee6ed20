// Package dialect provides the SQL dialects a filter can be compiled for.
//
// A Dialect spells literals (identifier quoting, string escaping, boolean
// constants) and assembles the final statement around a WHERE condition.
// Built-in dialects:
//
//	mysql      `name`, 'str', TRUE/FALSE, ... LIMIT n
//	postgres   "name", 'str', TRUE/FALSE, ... LIMIT n
//	sqlserver  "name", 'str', 1=1/0=1,    SELECT TOP n ...
//	duckdb     name,   'str', TRUE/FALSE, ... LIMIT n (identifiers quoted only when needed)
//	sqlite     "name", 'str', TRUE/FALSE, ... LIMIT n
//
// Additional dialects can be registered on a Registry.
package dialect

import (
	"strconv"
	"strings"

	"github.com/hugr-lab/wheresql/filter"
)

// Dialect formats literals and assembles statements for one SQL flavor.
type Dialect interface {
	filter.Formatter

	// Name returns the name the dialect is registered under.
	Name() string

	// BuildQuery assembles a full statement. where is the condition without
	// the WHERE keyword and may be empty; limit may be nil.
	BuildQuery(verb, table, where string, limit *int64) string
}

// LimitStyle selects where a row limit is placed.
type LimitStyle int

const (
	// LimitTrailing appends "LIMIT n" after the WHERE clause.
	LimitTrailing LimitStyle = iota
	// LimitTop inserts "TOP n" right after the statement verb.
	LimitTop
)

// Options describes a dialect built with New.
type Options struct {
	Name string

	// QuoteField quotes identifiers. Defaults to double quotes.
	QuoteField func(name string) string

	// QuoteString quotes string literals. Defaults to single quotes with
	// embedded quotes doubled.
	QuoteString func(s string) string

	// True and False spell the boolean constants. Default TRUE and FALSE.
	True, False string

	Limit LimitStyle
}

type dialect struct {
	name        string
	quoteField  func(string) string
	quoteString func(string) string
	trueLit     string
	falseLit    string
	limit       LimitStyle
}

// New creates a dialect from options, filling unset fields with the
// ANSI defaults.
func New(opts Options) Dialect {
	d := &dialect{
		name:        opts.Name,
		quoteField:  opts.QuoteField,
		quoteString: opts.QuoteString,
		trueLit:     opts.True,
		falseLit:    opts.False,
		limit:       opts.Limit,
	}
	if d.quoteField == nil {
		d.quoteField = quoteIdentifier
	}
	if d.quoteString == nil {
		d.quoteString = quoteLiteral
	}
	if d.trueLit == "" {
		d.trueLit = "TRUE"
	}
	if d.falseLit == "" {
		d.falseLit = "FALSE"
	}
	return d
}

func (d *dialect) Name() string { return d.name }

func (d *dialect) QuoteField(name string) string { return d.quoteField(name) }

func (d *dialect) QuoteString(s string) string { return d.quoteString(s) }

func (d *dialect) PrintBoolean(v bool) string {
	if v {
		return d.trueLit
	}
	return d.falseLit
}

func (d *dialect) BuildQuery(verb, table, where string, limit *int64) string {
	var sb strings.Builder
	sb.WriteString(verb)
	if limit != nil && d.limit == LimitTop {
		sb.WriteString(" TOP ")
		sb.WriteString(strconv.FormatInt(*limit, 10))
	}
	sb.WriteString(" * FROM ")
	sb.WriteString(table)
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if limit != nil && d.limit == LimitTrailing {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatInt(*limit, 10))
	}
	sb.WriteByte(';')
	return sb.String()
}
