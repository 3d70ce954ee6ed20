package filter

// Helpers for writing expressions in Go. Each returns the nested-array form
// Build accepts, so they compose with hand-written []any values:
//
//	filter.And(
//	    filter.Eq(filter.Field(2), "joe"),
//	    filter.Gt(filter.Field(4), 18),
//	)

// Field references a column by id (a number or a string).
func Field(id any) []any { return []any{TokenField, id} }

// Macro references a macro by id.
func Macro(id string) []any { return []any{TokenMacro, id} }

// And requires every operand to hold.
func And(operands ...any) []any { return prepend(TokenAnd, operands) }

// Or requires at least one operand to hold.
func Or(operands ...any) []any { return prepend(TokenOr, operands) }

// Not negates operand.
func Not(operand any) []any { return []any{TokenNot, operand} }

// Eq tests equality. Additional values turn it into an IN list.
func Eq(left, right any, more ...any) []any {
	return prepend(TokenEquals, append([]any{left, right}, more...))
}

// NotEq tests inequality.
func NotEq(left, right any) []any { return []any{TokenNotEqual, left, right} }

// Lt tests left < right.
func Lt(left, right any) []any { return []any{TokenLess, left, right} }

// Gt tests left > right.
func Gt(left, right any) []any { return []any{TokenGreater, left, right} }

// IsEmpty tests for NULL.
func IsEmpty(operand any) []any { return []any{TokenIsEmpty, operand} }

// NotEmpty tests for non-NULL.
func NotEmpty(operand any) []any { return []any{TokenNotEmpty, operand} }

// In tests membership of operand in values.
func In(operand any, values ...any) []any {
	return prepend(TokenIn, append([]any{operand}, values...))
}

func prepend(token string, operands []any) []any {
	out := make([]any, 0, len(operands)+1)
	out = append(out, token)
	return append(out, operands...)
}
