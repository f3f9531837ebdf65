package parser

// Visitor is called for each node in depth-first pre-order. Returning
// false skips the node's children.
type Visitor func(n *Node) bool

func Walk(n *Node, visit Visitor) {
	if n == nil || !visit(n) {
		return
	}
	for _, child := range n.Children {
		Walk(child, visit)
	}
}

// Inspect walks the tree invoking enter before and leave after the
// children of every node.
func Inspect(n *Node, enter func(*Node) bool, leave func(*Node)) {
	if n == nil {
		return
	}
	if enter != nil && !enter(n) {
		return
	}
	for _, child := range n.Children {
		Inspect(child, enter, leave)
	}
	if leave != nil {
		leave(n)
	}
}

// DescendantsOfKind returns all nodes of the given kind below n, n
// included, in pre-order.
func DescendantsOfKind(n *Node, kind NodeKind) []*Node {
	var result []*Node
	Walk(n, func(c *Node) bool {
		if c.Kind == kind {
			result = append(result, c)
		}
		return true
	})
	return result
}

func FirstDescendantOfKind(n *Node, kind NodeKind) *Node {
	var found *Node
	Walk(n, func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Kind == kind {
			found = c
			return false
		}
		return true
	})
	return found
}

func NextSibling(parent, child *Node) *Node {
	for i, c := range parent.Children {
		if c == child {
			return parent.Child(i + 1)
		}
	}
	return nil
}

func PrevSibling(parent, child *Node) *Node {
	for i, c := range parent.Children {
		if c == child {
			return parent.Child(i - 1)
		}
	}
	return nil
}

// Equal reports whether a and b have the same kind, image and span, and
// pairwise equal children.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Image() != b.Image() || a.Span != b.Span {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// EqualShape is Equal without comparing spans.
func EqualShape(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Image() != b.Image() || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !EqualShape(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
