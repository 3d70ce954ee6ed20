package wheresql

import (
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/hugr-lab/wheresql/filter"
)

// Fields maps field ids to column names. Number ids are keyed by their
// shortest decimal text, so 2 and "2" name the same column.
type Fields = filter.Fields

// FieldsFromInts builds a field table from integer ids.
func FieldsFromInts(m map[int]string) Fields {
	return filter.FieldsFromInts(m)
}

// Query is one compilation input.
type Query struct {
	// Where is the nested-array filter expression; nil places no
	// restriction on the rows.
	Where any `json:"where,omitempty" yaml:"where,omitempty"`

	// Limit caps the number of rows; nil means no limit. MUST NOT be
	// negative.
	Limit *int64 `json:"limit,omitempty" yaml:"limit,omitempty"`

	// Macros maps macro ids to expressions referenced with ["macro", id].
	Macros map[string]any `json:"macros,omitempty" yaml:"macros,omitempty"`
}

// Limit returns a pointer to n, for building queries inline.
func Limit(n int64) *int64 { return &n }

// ParseQuery decodes a JSON query document:
//
//	{"where": [...], "limit": 10, "macros": {"id": [...]}}
//
// Every key is optional and null is the same as absent. Unknown keys are
// ignored.
func ParseQuery(data []byte) (Query, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return Query{}, wrap(fmt.Errorf("%w: %v", filter.ErrInvalidJSON, err))
	}
	return queryFromJSON(v)
}

func queryFromJSON(v *fastjson.Value) (Query, error) {
	var q Query
	if v.Type() != fastjson.TypeObject {
		return q, wrap(fmt.Errorf("%w: expected an object, got %s", ErrInvalidQuery, v.Type()))
	}

	where, err := filter.FromJSONValue(v.Get("where"))
	if err != nil {
		return q, wrap(fmt.Errorf("where: %w", err))
	}
	q.Where = where

	if lv := v.Get("limit"); lv != nil && lv.Type() != fastjson.TypeNull {
		n, err := lv.Int64()
		if err != nil {
			return q, wrap(fmt.Errorf("%w: limit %s is not an integer", ErrInvalidQuery, lv))
		}
		q.Limit = &n
	}

	if mv := v.Get("macros"); mv != nil && mv.Type() != fastjson.TypeNull {
		obj, err := mv.Object()
		if err != nil {
			return q, wrap(fmt.Errorf("%w: macros must be an object", ErrInvalidQuery))
		}
		q.Macros = make(map[string]any, obj.Len())
		obj.Visit(func(key []byte, body *fastjson.Value) {
			if err != nil {
				return
			}
			var def any
			def, err = filter.FromJSONValue(body)
			if err != nil {
				err = fmt.Errorf("macro %s: %w", key, err)
				return
			}
			q.Macros[string(key)] = def
		})
		if err != nil {
			return q, wrap(err)
		}
	}
	return q, nil
}

// ParseQueries decodes either a single query document or an array of them.
func ParseQueries(data []byte) ([]Query, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, wrap(fmt.Errorf("%w: %v", filter.ErrInvalidJSON, err))
	}
	if v.Type() != fastjson.TypeArray {
		q, err := queryFromJSON(v)
		if err != nil {
			return nil, err
		}
		return []Query{q}, nil
	}

	items, _ := v.Array()
	queries := make([]Query, 0, len(items))
	for i, item := range items {
		q, err := queryFromJSON(item)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
		queries = append(queries, q)
	}
	return queries, nil
}
