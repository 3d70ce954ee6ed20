package wheresql

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/wheresql/dialect"
	"github.com/hugr-lab/wheresql/filter"
	"github.com/hugr-lab/wheresql/macro"
)

// Error categories. Every error returned by a Compiler matches exactly one
// of them with errors.Is, except internal failures (a panicking custom
// dialect), which match none.
var (
	// ErrConfiguration indicates an unknown dialect or an invalid Config.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation indicates a structurally invalid query: a bad child for
	// an operator, a wrong operand count, an unknown operator token, an
	// unsupported literal, excessive nesting or a negative limit.
	ErrValidation = errors.New("validation error")

	// ErrReference indicates an unknown macro id or field id.
	ErrReference = errors.New("reference error")

	// ErrCycle indicates a circular macro dependency.
	ErrCycle = errors.New("cycle error")
)

var (
	// ErrInvalidConfig indicates Config validation failed.
	ErrInvalidConfig = errors.New("invalid compiler config")

	// ErrNegativeLimit indicates a row limit below zero.
	ErrNegativeLimit = errors.New("limit must not be negative")

	// ErrInvalidQuery indicates a query document of the wrong shape.
	ErrInvalidQuery = errors.New("invalid query document")
)

// Error is returned by every compilation failure. It carries the category
// the cause belongs to; errors.Is matches both the category and the cause.
type Error struct {
	Category error
	Err      error
}

func (e *Error) Error() string {
	return "wheresql: " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Category == nil {
		return []error{e.Err}
	}
	return []error{e.Category, e.Err}
}

// GRPCStatus lets status.FromError report the category's code.
func (e *Error) GRPCStatus() *status.Status {
	return status.New(code(e.Category), e.Error())
}

// wrap attaches the category of err. Errors already wrapped pass through.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Category: Classify(err), Err: err}
}

func validation(format string, args ...any) error {
	return &Error{Category: ErrValidation, Err: fmt.Errorf(format, args...)}
}

// Classify returns the category sentinel err belongs to, or nil when err is
// nil or not a compilation failure.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConfiguration),
		errors.Is(err, dialect.ErrUnsupported),
		errors.Is(err, ErrInvalidConfig):
		return ErrConfiguration
	case errors.Is(err, ErrCycle),
		errors.Is(err, macro.ErrCycle):
		return ErrCycle
	case errors.Is(err, ErrReference),
		errors.Is(err, macro.ErrNotFound),
		errors.Is(err, macro.ErrNotAvailable),
		errors.Is(err, filter.ErrUnknownField):
		return ErrReference
	case errors.Is(err, ErrValidation),
		errors.Is(err, filter.ErrInvalidChild),
		errors.Is(err, filter.ErrInvalidArity),
		errors.Is(err, filter.ErrUnknownOperator),
		errors.Is(err, filter.ErrUnsupportedLiteral),
		errors.Is(err, filter.ErrTooDeep),
		errors.Is(err, filter.ErrUnresolvedMacro),
		errors.Is(err, filter.ErrInvalidJSON),
		errors.Is(err, macro.ErrMalformed),
		errors.Is(err, macro.ErrTooLarge),
		errors.Is(err, ErrNegativeLimit),
		errors.Is(err, ErrInvalidQuery):
		return ErrValidation
	}
	return nil
}

func code(category error) codes.Code {
	switch category {
	case ErrValidation, ErrCycle:
		return codes.InvalidArgument
	case ErrReference:
		return codes.NotFound
	case ErrConfiguration:
		return codes.FailedPrecondition
	}
	return codes.Internal
}

// Status converts err to a gRPC status error for callers serving
// compilation over RPC. It returns nil for a nil error.
//
//	validation, cycle  -> InvalidArgument
//	reference          -> NotFound
//	configuration      -> FailedPrecondition
//	anything else      -> Internal
func Status(err error) error {
	if err == nil {
		return nil
	}
	return status.Error(code(Classify(err)), err.Error())
}
