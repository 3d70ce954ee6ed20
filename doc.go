// Package wheresql compiles a nested-array filter DSL into SQL statements for
// several SQL dialects.
//
// A query carries an optional where expression, an optional row limit and an
// optional table of named macros:
//
//	q := wheresql.Query{
//	    Where: []any{"macro", "is_adult_joe"},
//	    Limit: wheresql.Limit(10),
//	    Macros: map[string]any{
//	        "is_joe":       []any{"=", []any{"field", 2}, "joe"},
//	        "is_adult":     []any{">", []any{"field", 4}, 18},
//	        "is_adult_joe": []any{"and", []any{"macro", "is_joe"}, []any{"macro", "is_adult"}},
//	    },
//	}
//	fields := wheresql.FieldsFromInts(map[int]string{2: "name", 4: "age"})
//	sql, err := wheresql.CompileWhere("mysql", fields, q)
//	// SELECT * FROM data WHERE `name` = 'joe' AND `age` > 18 LIMIT 10;
//
// The same query can be assembled with NewQueryBuilder and the expression
// helpers of package filter (filter.And, filter.Eq, filter.Field, ...).
// Queries also decode from JSON (ParseQuery) and travel in MessagePack
// batches (MarshalRequests, UnmarshalRequests).
//
// # Pipeline
//
// Each compilation runs four stages, all pure and independent between
// queries:
//
//   - macro expansion (package macro): references are replaced transitively,
//     cycles are rejected
//   - tree building (package filter): the expression is validated against
//     the operator catalog
//   - optimization (package filter): constants fold, junctions flatten,
//     double negations cancel and comparisons with NULL become IS [NOT] NULL
//   - printing (package filter, package dialect): identifiers and literals
//     are spelled by the dialect, which also assembles the statement
//
// # Dialects
//
// Built-in dialects are "mysql", "postgres", "sqlserver", "duckdb" and
// "sqlite". Custom dialects are created with dialect.New and registered on a
// dialect.Registry passed in Config.Dialects.
//
// # Errors
//
// Every failure matches exactly one category with errors.Is:
// ErrConfiguration (unknown dialect, invalid Config), ErrValidation
// (structurally invalid expression, negative limit), ErrReference (unknown
// macro or field id) or ErrCycle (circular macro dependency). Status maps
// the categories to gRPC status codes. No partial statement is ever
// returned.
//
// # Concurrency
//
// A Compiler is safe for concurrent use. CompileBatch compiles many
// requests in parallel.
package wheresql
