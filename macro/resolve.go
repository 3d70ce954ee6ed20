package macro

import (
	"fmt"
	"slices"

	"github.com/hugr-lab/wheresql/filter"
)

// resolver expands one macro table. Expanded bodies are memoized in done;
// expanding holds the ids on the current expansion path.
type resolver struct {
	defs      map[string]any
	done      map[string]any
	expanding map[string]bool
}

// Resolve expands every macro in defs, substituting each ["macro", id]
// reference, at any depth, with the referenced macro's own expansion.
//
// Definitions are normalized with filter.Normalize first, so tables decoded
// from JSON, YAML or MessagePack are all accepted.
//
// Error conditions:
//   - *CycleError: a macro reaches itself through its references
//   - *NotFoundError: a body references an id missing from defs
//   - ErrMalformed: a reference without a single string id
func Resolve(defs map[string]any) (*Table, error) {
	r := &resolver{
		defs:      make(map[string]any, len(defs)),
		done:      make(map[string]any, len(defs)),
		expanding: make(map[string]bool),
	}
	for id, def := range defs {
		n, err := filter.Normalize(def)
		if err != nil {
			return nil, err
		}
		r.defs[id] = n
	}

	// Sorted so that the reported cycle participant does not depend on map
	// iteration order.
	ids := make([]string, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if _, err := r.expand(id); err != nil {
			return nil, err
		}
	}
	return &Table{resolved: r.done}, nil
}

func (r *resolver) expand(id string) (any, error) {
	if v, ok := r.done[id]; ok {
		return v, nil
	}
	if r.expanding[id] {
		return nil, &CycleError{ID: id}
	}

	r.expanding[id] = true
	v, err := r.substitute(id, r.defs[id])
	delete(r.expanding, id)
	if err != nil {
		return nil, err
	}

	r.done[id] = v
	return v, nil
}

// substitute rewrites the body of macro owner.
func (r *resolver) substitute(owner string, expr any) (any, error) {
	ref, ok, err := reference(expr)
	if err != nil {
		return nil, err
	}
	if ok {
		if _, defined := r.defs[ref]; !defined {
			return nil, &NotFoundError{ID: ref, From: owner}
		}
		return r.expand(ref)
	}

	args, isArray := expr.([]any)
	if !isArray {
		return expr, nil
	}
	out := make([]any, len(args))
	for i, arg := range args {
		v, err := r.substitute(owner, arg)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// DefaultMaxNodes bounds the size of an expanded expression when no limit is
// configured.
const DefaultMaxNodes = 100_000

// ReplaceOption configures Replace.
type ReplaceOption func(*replacer)

// WithMaxNodes limits the number of values (arrays and literals) in the
// expression Replace returns. Values <= 0 select DefaultMaxNodes.
func WithMaxNodes(n int) ReplaceOption {
	return func(r *replacer) {
		if n > 0 {
			r.maxNodes = n
		}
	}
}

type replacer struct {
	table    *Table
	maxNodes int
	left     int
}

// Replace substitutes every ["macro", id] reference in expr, including expr
// itself, with the resolved macro. The result shares no slices with the
// table, so callers may modify it.
//
// Replace performs no cycle detection: resolved bodies are macro-free.
// An id absent from the table yields a *NotAvailableError. A nil table
// accepts only expressions without references. Resolved bodies may be
// shared many times over, so the output is bounded by WithMaxNodes; a
// larger expansion fails with ErrTooLarge before it is materialized.
func (t *Table) Replace(expr any, opts ...ReplaceOption) (any, error) {
	r := &replacer{table: t, maxNodes: DefaultMaxNodes}
	for _, opt := range opts {
		opt(r)
	}
	r.left = r.maxNodes
	return r.replace(expr)
}

// take accounts for one output value.
func (r *replacer) take() error {
	if r.left == 0 {
		return fmt.Errorf("%w: more than %d nodes", ErrTooLarge, r.maxNodes)
	}
	r.left--
	return nil
}

func (r *replacer) replace(expr any) (any, error) {
	ref, ok, err := reference(expr)
	if err != nil {
		return nil, err
	}
	if ok {
		v, found := r.table.Lookup(ref)
		if !found {
			return nil, &NotAvailableError{ID: ref}
		}
		return r.clone(v)
	}

	if err := r.take(); err != nil {
		return nil, err
	}
	args, isArray := expr.([]any)
	if !isArray {
		return expr, nil
	}
	out := make([]any, len(args))
	for i, arg := range args {
		v, err := r.replace(arg)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// clone deep-copies the array structure of a resolved body.
func (r *replacer) clone(expr any) (any, error) {
	if err := r.take(); err != nil {
		return nil, err
	}
	args, ok := expr.([]any)
	if !ok {
		return expr, nil
	}
	out := make([]any, len(args))
	for i, arg := range args {
		v, err := r.clone(arg)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
