package language

import (
	"strconv"
	"strings"
)

// Meta holds the opaque tag attached to a node. It is not part of the node's
// structure: Equal ignores it and setting it never touches children.
type Meta struct {
	tag string
}

// Tag returns the attached identifier, or "" when the node is untagged
func (m Meta) Tag() string {
	return m.tag
}

// Taggable is implemented by the node kinds that can carry a tag: fields,
// arguments and values.
type Taggable interface {
	Node
	Tag() string
	withTag(tag string) Node
}

// TagOf returns the tag attached to n
func TagOf(n Node) (string, bool) {
	t, ok := n.(Taggable)
	if !ok || t.Tag() == "" {
		return "", false
	}
	return t.Tag(), true
}

// WithTag returns a shallow copy of n carrying tag. n itself is left untouched.
func WithTag[T Taggable](n T, tag string) T {
	return n.withTag(tag).(T)
}

func (n *Field) withTag(tag string) Node        { c := *n; c.Meta = Meta{tag: tag}; return &c }
func (n *Argument) withTag(tag string) Node     { c := *n; c.Meta = Meta{tag: tag}; return &c }
func (n *IntValue) withTag(tag string) Node     { c := *n; c.Meta = Meta{tag: tag}; return &c }
func (n *FloatValue) withTag(tag string) Node   { c := *n; c.Meta = Meta{tag: tag}; return &c }
func (n *StringValue) withTag(tag string) Node  { c := *n; c.Meta = Meta{tag: tag}; return &c }
func (n *BooleanValue) withTag(tag string) Node { c := *n; c.Meta = Meta{tag: tag}; return &c }
func (n *NullValue) withTag(tag string) Node    { c := *n; c.Meta = Meta{tag: tag}; return &c }
func (n *EnumValue) withTag(tag string) Node    { c := *n; c.Meta = Meta{tag: tag}; return &c }
func (n *Variable) withTag(tag string) Node     { c := *n; c.Meta = Meta{tag: tag}; return &c }
func (n *ListValue) withTag(tag string) Node    { c := *n; c.Meta = Meta{tag: tag}; return &c }
func (n *ObjectValue) withTag(tag string) Node  { c := *n; c.Meta = Meta{tag: tag}; return &c }

// TaggedNode is a tagged node found in a tree together with its path
type TaggedNode struct {
	Tag  string
	Node Node
	Path []string
}

// PathString joins the path with dots
func (t TaggedNode) PathString() string {
	return strings.Join(t.Path, ".")
}

// Tagged returns every tagged node below root (root included) in pre-order
func Tagged(root Node) []TaggedNode {
	var out []TaggedNode
	var visit func(n Node, path []string)
	visit = func(n Node, path []string) {
		if n == nil {
			return
		}
		path = appendPath(path, n)
		if tag, ok := TagOf(n); ok {
			out = append(out, TaggedNode{Tag: tag, Node: n, Path: path})
		}
		if list, ok := n.(*ListValue); ok {
			for i, v := range list.Values {
				visit(v, append(path[:len(path):len(path)], strconv.Itoa(i)))
			}
			return
		}
		for _, child := range n.Children() {
			visit(child, path)
		}
	}
	visit(root, nil)
	return out
}

// PathSegment returns the segment n contributes to a node path, e.g. the
// response key of a field or "... on Dog" for an inline fragment.
func PathSegment(n Node) (string, bool) {
	switch n := n.(type) {
	case *OperationDefinition:
		segment := string(n.Operation)
		if n.Name != "" {
			segment += " " + n.Name
		}
		return segment, true
	case *FragmentDefinition:
		return "fragment " + n.Name, true
	case *InlineFragment:
		if n.TypeCondition != "" {
			return "... on " + n.TypeCondition, true
		}
		return "...", true
	case *Field:
		return n.ResponseKey(), true
	case *Argument:
		return n.Name, true
	case *Directive:
		return "@" + n.Name, true
	case *ObjectField:
		return n.Name, true
	case *VariableDefinition:
		return "$" + n.Variable, true
	default:
		return "", false
	}
}

// appendPath returns path extended with the segment n contributes, if any.
// The result never aliases the caller's backing array.
func appendPath(path []string, n Node) []string {
	segment, ok := PathSegment(n)
	if !ok {
		return path
	}
	return append(path[:len(path):len(path)], segment)
}
