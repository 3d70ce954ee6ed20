package wheresql

import "fmt"

// QueryBuilder builds a Query using a fluent API.
// Not thread-safe - use only while assembling a single query.
type QueryBuilder struct {
	where  any
	limit  *int64
	macros []macroDef
	built  bool
}

type macroDef struct {
	id   string
	expr any
}

// NewQueryBuilder creates an empty query builder. An empty query compiles
// to a statement without a WHERE clause.
//
// Example:
//
//	q, err := wheresql.NewQueryBuilder().
//	    Where(filter.And(filter.Macro("adult"), filter.Eq(filter.Field(2), "joe"))).
//	    Macro("adult", filter.Gt(filter.Field(4), 18)).
//	    Limit(10).
//	    Build()
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// Where sets the filter expression, replacing any previous one.
// Returns self for method chaining.
func (qb *QueryBuilder) Where(expr any) *QueryBuilder {
	qb.where = expr
	return qb
}

// Limit caps the number of returned rows.
// Returns self for method chaining.
func (qb *QueryBuilder) Limit(n int64) *QueryBuilder {
	qb.limit = &n
	return qb
}

// Macro defines a named expression referenced by filter.Macro(id).
// Returns self for method chaining.
// Macro id MUST be non-empty and unique within the query.
func (qb *QueryBuilder) Macro(id string, expr any) *QueryBuilder {
	qb.macros = append(qb.macros, macroDef{id: id, expr: expr})
	return qb
}

// Build finalizes the query.
// Can only be called once. Further calls return error.
func (qb *QueryBuilder) Build() (Query, error) {
	if qb.built {
		return Query{}, fmt.Errorf("query already built")
	}

	if qb.limit != nil && *qb.limit < 0 {
		return Query{}, validation("%w: %d", ErrNegativeLimit, *qb.limit)
	}

	var macros map[string]any
	for _, m := range qb.macros {
		if m.id == "" {
			return Query{}, validation("%w: macro id cannot be empty", ErrInvalidQuery)
		}
		if macros == nil {
			macros = make(map[string]any, len(qb.macros))
		}
		if _, ok := macros[m.id]; ok {
			return Query{}, validation("%w: duplicate macro id %s", ErrInvalidQuery, m.id)
		}
		macros[m.id] = m.expr
	}

	qb.built = true
	return Query{Where: qb.where, Limit: qb.limit, Macros: macros}, nil
}
