package filter

import "strings"

// behavior is the per-kind contract used by the builder, the optimizer and
// the encoder. Nil callbacks fall back to the defaults: never stop, keep the
// operator, keep the children, prune nothing, accept any child.
type behavior struct {
	name string

	// minArgs and maxArgs bound the number of children accepted at build
	// time. maxArgs < 0 means unbounded.
	minArgs, maxArgs int

	print      func(p *printArgs) string
	stop       func(child *Node) bool
	next       func(op Operator, children []*Node) Operator
	unnest     func(children []*Node) []*Node
	prune      func(child *Node) bool
	validChild func(child Operator) bool
}

// printArgs carries what an operator needs to render itself. Rendered holds
// the children already encoded one level deeper.
type printArgs struct {
	enc      *Encoder
	op       Operator
	children []*Node
	rendered []string
	level    int
}

var catalog = [kindCount]behavior{
	KindBlank: {
		name:  "BLANK",
		print: func(*printArgs) string { return "" },
	},
	KindBool: {
		name:  "BOOL",
		print: func(p *printArgs) string { return p.enc.dialect.PrintBoolean(p.op.Bool) },
	},
	KindNull: {
		name:  "NULL",
		print: func(*printArgs) string { return "NULL" },
	},
	KindString: {
		name:  "STRING",
		print: func(p *printArgs) string { return p.enc.dialect.QuoteString(p.op.Str) },
	},
	KindNumber: {
		name:  "NUMBER",
		print: func(p *printArgs) string { return p.op.Text },
	},
	KindField: {
		name:    "FIELD",
		minArgs: 1, maxArgs: 1,
		print: func(p *printArgs) string { return p.enc.field(p.children[0].Op) },
		validChild: func(child Operator) bool {
			return child.Kind == KindNumber || child.Kind == KindString
		},
	},
	KindAnd: {
		name:    "AND",
		maxArgs: -1,
		print:   func(p *printArgs) string { return joinLevel(p, " AND ") },
		stop:    func(child *Node) bool { return child.Op.IsFalse() },
		next: func(op Operator, children []*Node) Operator {
			return foldJunction(op, children, false)
		},
		unnest:     func(children []*Node) []*Node { return flatten(KindAnd, children) },
		prune:      func(child *Node) bool { return child.Op.IsTrue() || child.Op.Kind == KindBlank },
		validChild: isWhereClause,
	},
	KindOr: {
		name:    "OR",
		maxArgs: -1,
		print:   func(p *printArgs) string { return joinLevel(p, " OR ") },
		stop:    func(child *Node) bool { return child.Op.IsTrue() },
		next: func(op Operator, children []*Node) Operator {
			return foldJunction(op, children, true)
		},
		unnest:     func(children []*Node) []*Node { return flatten(KindOr, children) },
		prune:      func(child *Node) bool { return child.Op.IsFalse() || child.Op.Kind == KindBlank },
		validChild: isWhereClause,
	},
	KindNot: {
		name:    "NOT",
		minArgs: 1, maxArgs: 1,
		print: func(p *printArgs) string {
			return parenthesize("NOT "+p.rendered[0], p.level)
		},
		next: func(op Operator, children []*Node) Operator {
			child := children[0].Op
			switch {
			case child.Kind == KindNot:
				return Op(KindPlain)
			case child.Kind == KindBlank:
				return child
			case child.IsTrue():
				return BoolOp(false)
			case child.IsFalse():
				return BoolOp(true)
			}
			return op
		},
		unnest: func(children []*Node) []*Node {
			// NOT NOT x: the pair cancels and x is adopted by a PLAIN node.
			if children[0].Op.Kind == KindNot {
				return children[0].Children
			}
			return children
		},
		validChild: isWhereClause,
	},
	KindPlain: {
		name:    "PLAIN",
		minArgs: 1, maxArgs: 1,
		print:   func(p *printArgs) string { return p.rendered[0] },
	},
	KindLessThan: {
		name:    "<",
		minArgs: 2, maxArgs: 2,
		print:   func(p *printArgs) string { return binary(p, "<") },
		next: func(op Operator, children []*Node) Operator {
			if hasBlank(children) {
				return Op(KindBlank)
			}
			return foldCompare(op, children, func(c int) bool { return c < 0 })
		},
	},
	KindGreaterThan: {
		name:    ">",
		minArgs: 2, maxArgs: 2,
		print:   func(p *printArgs) string { return binary(p, ">") },
		next: func(op Operator, children []*Node) Operator {
			if hasBlank(children) {
				return Op(KindBlank)
			}
			return foldCompare(op, children, func(c int) bool { return c > 0 })
		},
	},
	KindEquals: {
		name:    "=",
		minArgs: 2, maxArgs: -1,
		print:   func(p *printArgs) string { return binary(p, "=") },
		next: func(op Operator, children []*Node) Operator {
			if hasBlank(children) {
				return Op(KindBlank)
			}
			if len(children) > 2 {
				return Op(KindIn)
			}
			if folded := foldCompare(op, children, func(c int) bool { return c == 0 }); folded != op {
				return folded
			}
			if children[1].Op.Kind == KindNull {
				return nullCheck(KindIsEmpty, children[0])
			}
			return op
		},
		unnest: dropNullOperand,
	},
	KindNotEquals: {
		name:    "!=",
		minArgs: 2, maxArgs: 2,
		print:   func(p *printArgs) string { return binary(p, "<>") },
		next: func(op Operator, children []*Node) Operator {
			if hasBlank(children) {
				return Op(KindBlank)
			}
			if folded := foldCompare(op, children, func(c int) bool { return c != 0 }); folded != op {
				return folded
			}
			if children[1].Op.Kind == KindNull {
				return nullCheck(KindNotEmpty, children[0])
			}
			return op
		},
		unnest: dropNullOperand,
	},
	KindIsEmpty: {
		name:    "IS EMPTY",
		minArgs: 1, maxArgs: 1,
		print:   func(p *printArgs) string { return p.rendered[0] + " IS NULL" },
		next: func(op Operator, children []*Node) Operator {
			return nullCheck(KindIsEmpty, children[0])
		},
	},
	KindNotEmpty: {
		name:    "NOT EMPTY",
		minArgs: 1, maxArgs: 1,
		print:   func(p *printArgs) string { return p.rendered[0] + " IS NOT NULL" },
		next: func(op Operator, children []*Node) Operator {
			return nullCheck(KindNotEmpty, children[0])
		},
	},
	KindIn: {
		name:    "IN",
		minArgs: 2, maxArgs: -1,
		print: func(p *printArgs) string {
			return p.rendered[0] + " IN (" + strings.Join(p.rendered[1:], ", ") + ")"
		},
		next: func(op Operator, children []*Node) Operator {
			if hasBlank(children) {
				return Op(KindBlank)
			}
			return op
		},
	},
}

// isWhereClause accepts anything that can stand as a predicate on its own:
// bare values (NULL, fields, strings, numbers) cannot.
func isWhereClause(child Operator) bool {
	return !child.Kind.IsLiteral()
}

// foldJunction folds AND (absorbing=true for OR) over optimized children.
// An absorbing constant anywhere decides the result; identity constants
// everywhere decide the opposite. When only identities and blanks remain,
// the junction has nothing left to print and becomes BLANK.
func foldJunction(op Operator, children []*Node, absorbing bool) Operator {
	if len(children) == 0 {
		return Op(KindBlank)
	}
	allIdentity, allRemovable := true, true
	for i := len(children) - 1; i >= 0; i-- {
		c := children[i].Op
		if c.Kind == KindBool && c.Bool == absorbing {
			return BoolOp(absorbing)
		}
		isIdentity := c.Kind == KindBool && c.Bool != absorbing
		if !isIdentity {
			allIdentity = false
		}
		if !isIdentity && c.Kind != KindBlank {
			allRemovable = false
		}
	}
	if allIdentity {
		return BoolOp(!absorbing)
	}
	if allRemovable {
		return Op(KindBlank)
	}
	return op
}

// nullCheck returns the operator for an IS [NOT] NULL test of operand.
// NULL IS NULL always holds, leaving nothing to filter on; NULL IS NOT NULL
// never holds. A BLANK operand leaves nothing to test.
func nullCheck(k Kind, operand *Node) Operator {
	if operand.Op.Kind == KindBlank {
		return Op(KindBlank)
	}
	if operand.Op.Kind != KindNull {
		return Op(k)
	}
	if k == KindIsEmpty {
		return Op(KindBlank)
	}
	return BoolOp(false)
}

// hasBlank reports whether an operand folded away. A predicate over it has
// nothing to compare and folds to BLANK as well.
func hasBlank(children []*Node) bool {
	for _, c := range children {
		if c.Op.Kind == KindBlank {
			return true
		}
	}
	return false
}

// dropNullOperand removes the NULL right operand of a binary equality so a
// rewritten IS [NOT] NULL node keeps only the tested value.
func dropNullOperand(children []*Node) []*Node {
	if len(children) == 2 && children[1].Op.Kind == KindNull {
		return children[:1]
	}
	return children
}

// foldCompare turns a comparison between two literals of the same kind into
// a constant. test receives the three-way comparison of left and right.
func foldCompare(op Operator, children []*Node, test func(int) bool) Operator {
	left, right := children[0].Op, children[1].Op
	if !foldable(left, right) {
		return op
	}
	var c int
	if left.Kind == KindNumber {
		switch {
		case left.Num < right.Num:
			c = -1
		case left.Num > right.Num:
			c = 1
		}
	} else {
		c = strings.Compare(left.Str, right.Str)
	}
	return BoolOp(test(c))
}

// flatten replaces every child of kind k with that child's own children.
func flatten(k Kind, children []*Node) []*Node {
	out := make([]*Node, 0, len(children))
	for _, c := range children {
		if c.Op.Kind == k {
			out = append(out, c.Children...)
			continue
		}
		out = append(out, c)
	}
	return out
}

func joinLevel(p *printArgs, sep string) string {
	return parenthesize(strings.Join(p.rendered, sep), p.level)
}

func binary(p *printArgs, sym string) string {
	return p.rendered[0] + " " + sym + " " + p.rendered[1]
}

// parenthesize wraps s when it is nested below the top level.
func parenthesize(s string, level int) string {
	if level > 1 {
		return "(" + s + ")"
	}
	return s
}
