package filter

// Optimize rewrites a tree bottom-up and returns the result; the input tree
// is left untouched. For every node it
//   - optimizes the children in order, stopping after the first child on
//     which the operator short-circuits (the rest are dropped),
//   - folds the operator against the optimized children,
//   - flattens the children using the node's original operator,
//   - prunes children made redundant by the node's final operator.
//
// Optimize is idempotent: optimizing its own output returns an equal tree.
func Optimize(n *Node) *Node {
	if n == nil {
		return nil
	}
	contract := &catalog[n.Op.Kind]

	children := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		oc := Optimize(c)
		children = append(children, oc)
		if contract.stop != nil && contract.stop(oc) {
			break
		}
	}

	op := n.Op
	if contract.next != nil {
		op = contract.next(n.Op, children)
	}
	if contract.unnest != nil {
		children = contract.unnest(children)
	}

	// Constants and blanks are leaves: whatever they were folded from is
	// no longer part of the tree.
	if op.Kind == KindBool || op.Kind == KindBlank {
		return &Node{Op: op}
	}

	if prune := catalog[op.Kind].prune; prune != nil {
		kept := children[:0:0]
		for _, c := range children {
			if !prune(c) {
				kept = append(kept, c)
			}
		}
		children = kept
	}

	return &Node{Op: op, Children: children}
}
