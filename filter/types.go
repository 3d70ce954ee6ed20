package filter

import (
	"strconv"
	"strings"
)

// Kind identifies the operator a node carries.
type Kind uint8

const (
	KindBlank Kind = iota
	KindBool
	KindNull
	KindField
	KindString
	KindNumber
	KindAnd
	KindOr
	KindNot
	KindPlain
	KindLessThan
	KindGreaterThan
	KindEquals
	KindNotEquals
	KindIsEmpty
	KindNotEmpty
	KindIn

	kindCount
)

// Operator tokens recognized in the first position of a DSL array.
const (
	TokenAnd      = "and"
	TokenOr       = "or"
	TokenNot      = "not"
	TokenEquals   = "="
	TokenNotEqual = "!="
	TokenLess     = "<"
	TokenGreater  = ">"
	TokenIsEmpty  = "is-empty"
	TokenNotEmpty = "not-empty"
	TokenIn       = "in"
	TokenField    = "field"
	TokenNull     = "null"
	TokenBlank    = "blank"
	TokenPlain    = "plain"

	// TokenMacro references a named macro. It is handled by the macro
	// package and never reaches the tree builder.
	TokenMacro = "macro"
)

var tokenKinds = map[string]Kind{
	TokenAnd:      KindAnd,
	TokenOr:       KindOr,
	TokenNot:      KindNot,
	TokenEquals:   KindEquals,
	TokenNotEqual: KindNotEquals,
	TokenLess:     KindLessThan,
	TokenGreater:  KindGreaterThan,
	TokenIsEmpty:  KindIsEmpty,
	TokenNotEmpty: KindNotEmpty,
	TokenIn:       KindIn,
	TokenField:    KindField,
	TokenNull:     KindNull,
	TokenBlank:    KindBlank,
	TokenPlain:    KindPlain,
}

// LookupToken returns the operator kind for a DSL token.
func LookupToken(token string) (Kind, bool) {
	k, ok := tokenKinds[token]
	return k, ok
}

// String returns the operator name used in error messages.
func (k Kind) String() string {
	if k < kindCount {
		return catalog[k].name
	}
	return "KIND(" + strconv.Itoa(int(k)) + ")"
}

// IsLiteral reports whether the kind is a value leaf rather than a predicate.
func (k Kind) IsLiteral() bool {
	switch k {
	case KindNull, KindField, KindString, KindNumber:
		return true
	}
	return false
}

// Operator is a tagged operator value. Literal kinds carry their payload:
// Bool for KindBool, Str for KindString, Num and Text for KindNumber.
type Operator struct {
	Kind Kind
	Bool bool
	Str  string
	Num  float64
	// Text is the printed form of a number literal.
	Text string
}

// Op returns a payload-free operator of kind k.
func Op(k Kind) Operator { return Operator{Kind: k} }

// BoolOp returns a boolean constant.
func BoolOp(v bool) Operator { return Operator{Kind: KindBool, Bool: v} }

// StringOp returns a string literal.
func StringOp(s string) Operator { return Operator{Kind: KindString, Str: s} }

// NumberOp returns a number literal printed in its shortest decimal form.
func NumberOp(f float64) Operator {
	return Operator{Kind: KindNumber, Num: f, Text: formatNumber(f)}
}

// IsTrue reports whether the operator is the constant TRUE.
func (o Operator) IsTrue() bool { return o.Kind == KindBool && o.Bool }

// IsFalse reports whether the operator is the constant FALSE.
func (o Operator) IsFalse() bool { return o.Kind == KindBool && !o.Bool }

// IsPrintable reports whether a root carrying this operator produces a
// WHERE clause at all.
func (o Operator) IsPrintable() bool {
	return o.Kind != KindBlank && !o.IsTrue()
}

func (o Operator) String() string {
	switch o.Kind {
	case KindBool:
		return strconv.FormatBool(o.Bool)
	case KindString:
		return strconv.Quote(o.Str)
	case KindNumber:
		return o.Text
	}
	return o.Kind.String()
}

// foldable reports whether two literal operators can be folded against
// each other: both numbers or both strings.
func foldable(a, b Operator) bool {
	return (a.Kind == KindNumber && b.Kind == KindNumber) ||
		(a.Kind == KindString && b.Kind == KindString)
}

// Node is one element of an expression tree.
// Children are ordered; a node owns its children exclusively.
type Node struct {
	Op       Operator
	Children []*Node
}

// NewNode returns a node with the given operator and children.
func NewNode(op Operator, children ...*Node) *Node {
	return &Node{Op: op, Children: children}
}

// String renders the tree in DSL-like prefix form, for diagnostics and tests.
func (n *Node) String() string {
	var sb strings.Builder
	n.writeTo(&sb)
	return sb.String()
}

func (n *Node) writeTo(sb *strings.Builder) {
	if len(n.Children) == 0 && n.Op.Kind != KindAnd && n.Op.Kind != KindOr {
		sb.WriteString(n.Op.String())
		return
	}
	sb.WriteByte('[')
	sb.WriteString(n.Op.String())
	for _, c := range n.Children {
		sb.WriteString(", ")
		c.writeTo(sb)
	}
	sb.WriteByte(']')
}

// Equal reports whether two trees are structurally identical.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Op != other.Op || len(n.Children) != len(other.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// Fields maps textual field ids to column names.
type Fields map[string]string

// FieldsFromInts builds a Fields table from integer ids.
func FieldsFromInts(m map[int]string) Fields {
	f := make(Fields, len(m))
	for id, name := range m {
		f[strconv.Itoa(id)] = name
	}
	return f
}

// Lookup resolves a field reference operand.
func (f Fields) Lookup(ref Operator) (string, bool) {
	name, ok := f[fieldKey(ref)]
	return name, ok
}

// fieldKey is the textual id of a field reference operand.
func fieldKey(ref Operator) string {
	if ref.Kind == KindNumber {
		return ref.Text
	}
	return ref.Str
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
