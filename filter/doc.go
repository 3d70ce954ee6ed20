// Package filter compiles the nested-array filter DSL into SQL condition text.
//
// An expression is a JSON-like value. Arrays select an operator with their
// first element and pass the remaining elements as operands; any other value
// is a literal:
//
//	["and",
//	    ["=", ["field", 2], "joe"],
//	    [">", ["field", 4], 18]]
//
// Compilation has three steps:
//
//	expr, err := filter.ParseJSON(data)     // or any []any value
//	tree, err := filter.Build(expr)         // validate and build the tree
//	tree = filter.Optimize(tree)            // fold, flatten, prune
//	sql, err := filter.NewEncoder(d, fields, nil).Encode(tree)
//
// # Operators
//
//   - and, or: n-ary junctions; nested junctions of the same kind are flattened
//   - not: negation; double negations cancel
//   - =, !=, <, >: binary comparisons; "=" with more than two operands
//     becomes an IN list
//   - is-empty, not-empty: IS NULL / IS NOT NULL
//   - in: explicit IN list
//   - field: a column, looked up by id in the Fields table
//   - null, blank, plain: rarely written by hand; null is the NULL literal,
//     blank a no-op placeholder and plain a transparent wrapper
//
// Macro references (["macro", id]) must be expanded with the macro package
// before Build.
//
// # Optimization
//
// Optimize folds comparisons between literals of the same kind, folds
// negations of constants, short-circuits AND on FALSE and OR on TRUE, drops
// TRUE and blank operands of AND (FALSE and blank operands of OR), rewrites
// comparisons against NULL into IS [NOT] NULL tests and flattens nested
// junctions. A root that optimizes to TRUE or blank encodes to an empty
// string: the query needs no WHERE clause.
package filter
