package filter

import (
	"errors"
	"fmt"
)

// Errors returned while building or encoding an expression tree.
var (
	// ErrInvalidChild indicates a child the parent operator does not accept.
	ErrInvalidChild = errors.New("invalid child for operator")

	// ErrInvalidArity indicates a wrong number of operands.
	ErrInvalidArity = errors.New("invalid number of operands")

	// ErrUnknownOperator indicates an unrecognized operator token.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrUnsupportedLiteral indicates a value that is not a boolean, string,
	// number, null or array.
	ErrUnsupportedLiteral = errors.New("unsupported literal")

	// ErrTooDeep indicates an expression nested beyond the configured limit.
	ErrTooDeep = errors.New("expression nested too deeply")

	// ErrUnresolvedMacro indicates a macro reference that reached the builder.
	ErrUnresolvedMacro = errors.New("unresolved macro reference")

	// ErrUnknownField indicates a field id missing from the field table.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidJSON indicates malformed expression JSON.
	ErrInvalidJSON = errors.New("invalid expression JSON")
)

// BuildError describes a structurally invalid expression.
type BuildError struct {
	// Path locates the offending element as child indexes from the root.
	Path []int
	// Parent is the operator being built, empty at the root.
	Parent string
	// Child describes the offending element.
	Child string
	Err   error
}

func (e *BuildError) Error() string {
	msg := e.Err.Error()
	if e.Child != "" {
		msg += " " + e.Child
	}
	if e.Parent != "" {
		msg += " (operator " + e.Parent + ")"
	}
	if len(e.Path) > 0 {
		msg += fmt.Sprintf(" at %v", e.Path)
	}
	return "filter: " + msg
}

func (e *BuildError) Unwrap() error { return e.Err }

// UnknownFieldError reports a field id with no entry in the field table.
type UnknownFieldError struct {
	ID string
}

func (e *UnknownFieldError) Error() string {
	return "filter: unknown field id " + e.ID
}

func (e *UnknownFieldError) Unwrap() error { return ErrUnknownField }
