package language

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Inspect traverses the tree rooted at n in depth-first pre-order, calling f
// for each node. If f returns false, the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, child := range n.Children() {
		Inspect(child, f)
	}
}

// NodeEqualer is implemented by nodes that define their own equality, such as
// schema-level declarations with unexported payloads.
type NodeEqualer interface {
	EqualNode(other Node) bool
}

var structuralOptions = cmp.Options{
	cmpopts.IgnoreTypes(Meta{}, Location{}),
}

// Equal reports whether a and b are structurally equal. Tags and source
// locations are not part of a node's structure and are ignored.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if eq, ok := a.(NodeEqualer); ok {
		return eq.EqualNode(b)
	}
	if _, ok := b.(NodeEqualer); ok {
		return false
	}
	return cmp.Equal(a, b, structuralOptions)
}
