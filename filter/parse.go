package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/valyala/fastjson"
)

// DefaultMaxDepth bounds expression nesting when no limit is configured.
const DefaultMaxDepth = 256

// BuildOption configures Build.
type BuildOption func(*builder)

// WithMaxDepth limits how deeply expressions may nest. Values <= 0 select
// DefaultMaxDepth.
func WithMaxDepth(n int) BuildOption {
	return func(b *builder) {
		if n > 0 {
			b.maxDepth = n
		}
	}
}

type builder struct {
	maxDepth int
	path     []int
}

// Build parses a nested-array expression into a tree.
//
// Arrays select an operator with their first element and build the rest as
// children; any other value becomes a literal leaf. Accepted values are the
// ones produced by Normalize: nil, bool, string, float64 and []any (plus the
// common integer types and json.Number, which are normalized on the fly).
//
// Error conditions (all wrap the matching sentinel):
//   - ErrUnknownOperator: the first element is not a known token
//   - ErrInvalidChild: a child rejected by its parent operator
//   - ErrInvalidArity: wrong number of operands
//   - ErrUnsupportedLiteral: a value of an unsupported Go type
//   - ErrUnresolvedMacro: a ['macro', id] reference
//   - ErrTooDeep: nesting beyond the configured depth
func Build(expr any, opts ...BuildOption) (*Node, error) {
	b := &builder{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(b)
	}
	return b.build(expr, 1)
}

func (b *builder) fail(err error, parent, child string) error {
	return &BuildError{
		Path:   append([]int(nil), b.path...),
		Parent: parent,
		Child:  child,
		Err:    err,
	}
}

func (b *builder) build(expr any, depth int) (*Node, error) {
	if depth > b.maxDepth {
		return nil, b.fail(ErrTooDeep, "", fmt.Sprintf("(limit %d)", b.maxDepth))
	}

	args, ok := expr.([]any)
	if !ok {
		op, err := literal(expr)
		if err != nil {
			return nil, b.fail(ErrUnsupportedLiteral, "", fmt.Sprintf("%T", expr))
		}
		return &Node{Op: op}, nil
	}

	if len(args) == 0 {
		return nil, b.fail(ErrUnknownOperator, "", "[]")
	}
	token, ok := args[0].(string)
	if !ok {
		return nil, b.fail(ErrUnknownOperator, "", fmt.Sprintf("%v", args[0]))
	}
	if token == TokenMacro {
		return nil, b.fail(ErrUnresolvedMacro, "", fmt.Sprintf("%v", args[1:]))
	}
	kind, ok := LookupToken(token)
	if !ok {
		return nil, b.fail(ErrUnknownOperator, "", strconv.Quote(token))
	}

	contract := &catalog[kind]
	n := len(args) - 1
	if n < contract.minArgs || (contract.maxArgs >= 0 && n > contract.maxArgs) {
		return nil, b.fail(ErrInvalidArity, kind.String(), fmt.Sprintf("(got %d)", n))
	}

	node := &Node{Op: Op(kind), Children: make([]*Node, 0, n)}
	for i, arg := range args[1:] {
		b.path = append(b.path, i)
		child, err := b.build(arg, depth+1)
		if err != nil {
			return nil, err
		}
		if contract.validChild != nil && !contract.validChild(child.Op) {
			return nil, b.fail(ErrInvalidChild, kind.String(), child.Op.String())
		}
		b.path = b.path[:len(b.path)-1]
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// literal maps a non-array value to its leaf operator.
func literal(v any) (Operator, error) {
	v, err := normalizeScalar(v)
	if err != nil {
		return Operator{}, err
	}
	switch x := v.(type) {
	case nil:
		return Op(KindNull), nil
	case bool:
		return BoolOp(x), nil
	case string:
		return StringOp(x), nil
	case float64:
		return NumberOp(x), nil
	}
	return Operator{}, ErrUnsupportedLiteral
}

// Normalize converts a decoded expression to the canonical form accepted by
// Build and by the macro package: nested []any, with every number converted to
// float64. Values produced by encoding/json, fastjson, yaml.v3 and msgpack are
// all accepted.
func Normalize(v any) (any, error) {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case []string:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, nil
	}
	return normalizeScalar(v)
}

// maxExactInt is the largest magnitude at which every integer has an exact
// float64 representation.
const maxExactInt = 1 << 53

func normalizeScalar(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string:
		return v, nil
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return exactInt(int64(x))
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return exactInt(x)
	case uint:
		return exactUint(uint64(x))
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return exactUint(x)
	case json.Number:
		return numberText(x.String())
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedLiteral, v)
}

func finite(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: non-finite number %v", ErrUnsupportedLiteral, f)
	}
	return f, nil
}

func exactInt(i int64) (any, error) {
	if i > maxExactInt || i < -maxExactInt {
		return nil, fmt.Errorf("%w: integer %d is not exactly representable", ErrUnsupportedLiteral, i)
	}
	return float64(i), nil
}

func exactUint(u uint64) (any, error) {
	if u > maxExactInt {
		return nil, fmt.Errorf("%w: integer %d is not exactly representable", ErrUnsupportedLiteral, u)
	}
	return float64(u), nil
}

// numberText converts the text of a JSON number. Integer text must be exact
// as a float64; other numbers must be finite.
func numberText(text string) (any, error) {
	if isIntegerText(text) {
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: integer %s is not exactly representable", ErrUnsupportedLiteral, text)
		}
		return exactInt(i)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: number %q", ErrUnsupportedLiteral, text)
	}
	return finite(f)
}

func isIntegerText(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseJSON decodes an expression from JSON text into the form accepted by
// Build. Empty input decodes to nil (no expression).
func ParseJSON(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return FromJSONValue(v)
}

// FromJSONValue converts a parsed fastjson value into expression form.
// Objects are rejected: the DSL has no map-shaped values.
func FromJSONValue(v *fastjson.Value) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch v.Type() {
	case fastjson.TypeNull:
		return nil, nil
	case fastjson.TypeTrue:
		return true, nil
	case fastjson.TypeFalse:
		return false, nil
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b), nil
	case fastjson.TypeNumber:
		return numberText(v.String())
	case fastjson.TypeArray:
		items, _ := v.Array()
		out := make([]any, len(items))
		for i, item := range items {
			e, err := FromJSONValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedLiteral, v.Type())
}
