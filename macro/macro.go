// Package macro expands named, reusable filter sub-expressions.
//
// A macro table maps ids to expressions that may reference other macros with
// ["macro", id]. Resolve substitutes those references transitively, once per
// table, and rejects reference cycles:
//
//	table, err := macro.Resolve(map[string]any{
//	    "is_joe":       []any{"=", []any{"field", 2}, "joe"},
//	    "is_adult":     []any{">", []any{"field", 4}, 18},
//	    "is_adult_joe": []any{"and", []any{"macro", "is_joe"}, []any{"macro", "is_adult"}},
//	})
//	where, err := table.Replace([]any{"macro", "is_adult_joe"})
package macro

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hugr-lab/wheresql/filter"
)

var (
	// ErrCycle indicates a macro that references itself, directly or not.
	ErrCycle = errors.New("circular macro dependency")

	// ErrNotFound indicates a macro body referencing an undefined id.
	ErrNotFound = errors.New("macro not found")

	// ErrNotAvailable indicates a query referencing an id absent from the
	// resolved table.
	ErrNotAvailable = errors.New("macro not available")

	// ErrMalformed indicates a ["macro", ...] reference without a string id.
	ErrMalformed = errors.New("malformed macro reference")

	// ErrTooLarge indicates an expansion exceeding the node limit.
	ErrTooLarge = errors.New("macro expansion too large")
)

// CycleError reports the macro at which a reference cycle was detected.
type CycleError struct {
	ID string
}

func (e *CycleError) Error() string {
	return "macro: circular macro dependency detected for macro " + e.ID
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// NotFoundError reports an undefined id referenced from a macro body.
type NotFoundError struct {
	ID string
	// From is the macro whose body holds the reference.
	From string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("macro: macro with id %s not found (referenced from %s)", e.ID, e.From)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotAvailableError reports an id the query references but the table lacks.
type NotAvailableError struct {
	ID string
}

func (e *NotAvailableError) Error() string {
	return "macro: macro " + e.ID + " not available"
}

func (e *NotAvailableError) Unwrap() error { return ErrNotAvailable }

// Table is a resolved, macro-free macro table.
type Table struct {
	resolved map[string]any
}

// Len returns the number of macros in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.resolved)
}

// Lookup returns the resolved expression for id.
// The returned value must not be modified.
func (t *Table) Lookup(id string) (any, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.resolved[id]
	return v, ok
}

// IDs returns the macro ids in sorted order.
func (t *Table) IDs() []string {
	if t == nil {
		return nil
	}
	ids := make([]string, 0, len(t.resolved))
	for id := range t.resolved {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// reference returns the id of a ["macro", id] expression.
func reference(expr any) (id string, ok bool, err error) {
	args, isArray := expr.([]any)
	if !isArray || len(args) == 0 {
		return "", false, nil
	}
	if token, _ := args[0].(string); token != filter.TokenMacro {
		return "", false, nil
	}
	if len(args) != 2 {
		return "", true, fmt.Errorf("%w: %v", ErrMalformed, args[1:])
	}
	id, isString := args[1].(string)
	if !isString {
		return "", true, fmt.Errorf("%w: id %v", ErrMalformed, args[1])
	}
	return id, true, nil
}
