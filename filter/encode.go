package filter

// Formatter supplies the dialect-specific spelling of literals.
// Implementations handle identifier quoting, string escaping and boolean
// constants (see the dialect package).
type Formatter interface {
	// QuoteField returns a quoted column identifier.
	QuoteField(name string) string

	// QuoteString returns an escaped string literal.
	QuoteString(s string) string

	// PrintBoolean returns the SQL spelling of a boolean constant.
	PrintBoolean(v bool) string
}

// EncoderOptions configures encoding behavior.
type EncoderOptions struct {
	// AllowUnknownFields prints the raw field id as the column name when the
	// field table has no entry for it, instead of failing.
	AllowUnknownFields bool
}

// Encoder renders optimized expression trees as SQL condition text.
type Encoder struct {
	dialect Formatter
	fields  Fields
	opts    EncoderOptions
	err     error
}

// NewEncoder creates an encoder for the given dialect and field table.
// If opts is nil, default options are used.
func NewEncoder(dialect Formatter, fields Fields, opts *EncoderOptions) *Encoder {
	e := &Encoder{dialect: dialect, fields: fields}
	if opts != nil {
		e.opts = *opts
	}
	return e
}

// Encode renders root as the condition portion of a WHERE clause, without the
// WHERE keyword. It returns an empty string when the root places no
// restriction on the rows (BLANK or the constant TRUE).
//
// The tree is expected to be optimized; Encode does not rewrite it.
func (e *Encoder) Encode(root *Node) (string, error) {
	if root == nil || !root.Op.IsPrintable() {
		return "", nil
	}
	e.err = nil
	sql := e.encode(root, 1)
	if e.err != nil {
		return "", e.err
	}
	return sql, nil
}

func (e *Encoder) encode(n *Node, level int) string {
	// PLAIN is transparent: its child renders as if it stood in its place.
	childLevel := level + 1
	if n.Op.Kind == KindPlain {
		childLevel = level
	}

	rendered := make([]string, 0, len(n.Children))
	if n.Op.Kind != KindField {
		for _, c := range n.Children {
			rendered = append(rendered, e.encode(c, childLevel))
		}
	}
	return catalog[n.Op.Kind].print(&printArgs{
		enc:      e,
		op:       n.Op,
		children: n.Children,
		rendered: rendered,
		level:    level,
	})
}

// field resolves and quotes a field reference. The first lookup failure is
// recorded and returned from Encode.
func (e *Encoder) field(ref Operator) string {
	id := fieldKey(ref)
	name, ok := e.fields.Lookup(ref)
	if !ok {
		if !e.opts.AllowUnknownFields {
			if e.err == nil {
				e.err = &UnknownFieldError{ID: id}
			}
			return ""
		}
		name = id
	}
	return e.dialect.QuoteField(name)
}
