// Package language defines the query tree handled by the gateway: a closed set of
// node kinds, immutable node values, and the metadata tags that link nodes to
// out-of-band type information.
package language

// Location tracks the position of a node in its source document
type Location struct {
	Line   int // Line number (1-indexed)
	Column int // Column number (1-indexed)
}

// Node is the contract shared by every tree node
type Node interface {
	Kind() Kind
	Location() Location
	Children() []Node
}

// Definition is a top-level entry of a Document
type Definition interface {
	Node
	definition()
}

// Selection is an entry of a SelectionSet
type Selection interface {
	Node
	selection()
}

// Value is a literal or variable reference used as an argument value
type Value interface {
	Taggable
	value()
}

// Type is a type reference used by variable definitions
type Type interface {
	Node
	typeRef()
}

// OperationType is one of query, mutation or subscription
type OperationType string

const (
	OperationQuery        OperationType = "query"
	OperationMutation     OperationType = "mutation"
	OperationSubscription OperationType = "subscription"
)

// Document is the root of a parsed query
type Document struct {
	Definitions []Definition
	Loc         Location
}

// OperationDefinition represents a query, mutation or subscription
type OperationDefinition struct {
	Operation           OperationType
	Name                string
	VariableDefinitions []*VariableDefinition
	Directives          []*Directive
	SelectionSet        *SelectionSet
	Loc                 Location
}

// FragmentDefinition represents a named fragment
type FragmentDefinition struct {
	Name          string
	TypeCondition string
	Directives    []*Directive
	SelectionSet  *SelectionSet
	Loc           Location
}

// VariableDefinition represents a $variable declared by an operation
type VariableDefinition struct {
	Variable     string
	Type         Type
	DefaultValue Value
	Directives   []*Directive
	Loc          Location
}

// SelectionSet is a braced list of selections
type SelectionSet struct {
	Selections []Selection
	Loc        Location
}

// Field represents a selected field
type Field struct {
	Meta
	Alias        string
	Name         string
	Arguments    []*Argument
	Directives   []*Directive
	SelectionSet *SelectionSet
	Loc          Location
}

// ResponseKey is the alias if present, otherwise the field name
func (f *Field) ResponseKey() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// FragmentSpread represents ...Name
type FragmentSpread struct {
	Name       string
	Directives []*Directive
	Loc        Location
}

// InlineFragment represents ... on Type { } or ... { }
type InlineFragment struct {
	TypeCondition string // empty when the fragment has no type condition
	Directives    []*Directive
	SelectionSet  *SelectionSet
	Loc           Location
}

// Argument represents name: value on a field or directive
type Argument struct {
	Meta
	Name  string
	Value Value
	Loc   Location
}

// Directive represents @name(args)
type Directive struct {
	Name      string
	Arguments []*Argument
	Loc       Location
}

// ObjectField is a name/value pair inside an object literal
type ObjectField struct {
	Name  string
	Value Value
	Loc   Location
}

type IntValue struct {
	Meta
	Raw string
	Loc Location
}

type FloatValue struct {
	Meta
	Raw string
	Loc Location
}

type StringValue struct {
	Meta
	Raw   string
	Block bool
	Loc   Location
}

type BooleanValue struct {
	Meta
	Value bool
	Loc   Location
}

type NullValue struct {
	Meta
	Loc Location
}

type EnumValue struct {
	Meta
	Name string
	Loc  Location
}

// Variable is a $name reference used as a value
type Variable struct {
	Meta
	Name string
	Loc  Location
}

type ListValue struct {
	Meta
	Values []Value
	Loc    Location
}

type ObjectValue struct {
	Meta
	Fields []*ObjectField
	Loc    Location
}

type NamedType struct {
	Name string
	Loc  Location
}

type ListType struct {
	Elem Type
	Loc  Location
}

type NonNullType struct {
	Elem Type
	Loc  Location
}

func (*Document) Kind() Kind            { return KindDocument }
func (*OperationDefinition) Kind() Kind { return KindOperationDefinition }
func (*FragmentDefinition) Kind() Kind  { return KindFragmentDefinition }
func (*VariableDefinition) Kind() Kind  { return KindVariableDefinition }
func (*SelectionSet) Kind() Kind        { return KindSelectionSet }
func (*Field) Kind() Kind               { return KindField }
func (*FragmentSpread) Kind() Kind      { return KindFragmentSpread }
func (*InlineFragment) Kind() Kind      { return KindInlineFragment }
func (*Argument) Kind() Kind            { return KindArgument }
func (*Directive) Kind() Kind           { return KindDirective }
func (*ObjectField) Kind() Kind         { return KindObjectField }
func (*IntValue) Kind() Kind            { return KindIntValue }
func (*FloatValue) Kind() Kind          { return KindFloatValue }
func (*StringValue) Kind() Kind         { return KindStringValue }
func (*BooleanValue) Kind() Kind        { return KindBooleanValue }
func (*NullValue) Kind() Kind           { return KindNullValue }
func (*EnumValue) Kind() Kind           { return KindEnumValue }
func (*Variable) Kind() Kind            { return KindVariable }
func (*ListValue) Kind() Kind           { return KindListValue }
func (*ObjectValue) Kind() Kind         { return KindObjectValue }
func (*NamedType) Kind() Kind           { return KindNamedType }
func (*ListType) Kind() Kind            { return KindListType }
func (*NonNullType) Kind() Kind         { return KindNonNullType }

func (n *Document) Location() Location            { return n.Loc }
func (n *OperationDefinition) Location() Location { return n.Loc }
func (n *FragmentDefinition) Location() Location  { return n.Loc }
func (n *VariableDefinition) Location() Location  { return n.Loc }
func (n *SelectionSet) Location() Location        { return n.Loc }
func (n *Field) Location() Location               { return n.Loc }
func (n *FragmentSpread) Location() Location      { return n.Loc }
func (n *InlineFragment) Location() Location      { return n.Loc }
func (n *Argument) Location() Location            { return n.Loc }
func (n *Directive) Location() Location           { return n.Loc }
func (n *ObjectField) Location() Location         { return n.Loc }
func (n *IntValue) Location() Location            { return n.Loc }
func (n *FloatValue) Location() Location          { return n.Loc }
func (n *StringValue) Location() Location         { return n.Loc }
func (n *BooleanValue) Location() Location        { return n.Loc }
func (n *NullValue) Location() Location           { return n.Loc }
func (n *EnumValue) Location() Location           { return n.Loc }
func (n *Variable) Location() Location            { return n.Loc }
func (n *ListValue) Location() Location           { return n.Loc }
func (n *ObjectValue) Location() Location         { return n.Loc }
func (n *NamedType) Location() Location           { return n.Loc }
func (n *ListType) Location() Location            { return n.Loc }
func (n *NonNullType) Location() Location         { return n.Loc }

func (*OperationDefinition) definition() {}
func (*FragmentDefinition) definition()  {}

func (*Field) selection()          {}
func (*FragmentSpread) selection() {}
func (*InlineFragment) selection() {}

func (*IntValue) value()     {}
func (*FloatValue) value()   {}
func (*StringValue) value()  {}
func (*BooleanValue) value() {}
func (*NullValue) value()    {}
func (*EnumValue) value()    {}
func (*Variable) value()     {}
func (*ListValue) value()    {}
func (*ObjectValue) value()  {}

func (*NamedType) typeRef()   {}
func (*ListType) typeRef()    {}
func (*NonNullType) typeRef() {}

func (n *Document) Children() []Node {
	out := make([]Node, 0, len(n.Definitions))
	for _, d := range n.Definitions {
		out = append(out, d)
	}
	return out
}

func (n *OperationDefinition) Children() []Node {
	var out []Node
	for _, v := range n.VariableDefinitions {
		out = append(out, v)
	}
	out = appendDirectives(out, n.Directives)
	if n.SelectionSet != nil {
		out = append(out, n.SelectionSet)
	}
	return out
}

func (n *FragmentDefinition) Children() []Node {
	out := appendDirectives(nil, n.Directives)
	if n.SelectionSet != nil {
		out = append(out, n.SelectionSet)
	}
	return out
}

func (n *VariableDefinition) Children() []Node {
	var out []Node
	if n.Type != nil {
		out = append(out, n.Type)
	}
	if n.DefaultValue != nil {
		out = append(out, n.DefaultValue)
	}
	return appendDirectives(out, n.Directives)
}

func (n *SelectionSet) Children() []Node {
	out := make([]Node, 0, len(n.Selections))
	for _, s := range n.Selections {
		out = append(out, s)
	}
	return out
}

func (n *Field) Children() []Node {
	var out []Node
	for _, a := range n.Arguments {
		out = append(out, a)
	}
	out = appendDirectives(out, n.Directives)
	if n.SelectionSet != nil {
		out = append(out, n.SelectionSet)
	}
	return out
}

func (n *FragmentSpread) Children() []Node {
	return appendDirectives(nil, n.Directives)
}

func (n *InlineFragment) Children() []Node {
	out := appendDirectives(nil, n.Directives)
	if n.SelectionSet != nil {
		out = append(out, n.SelectionSet)
	}
	return out
}

func (n *Argument) Children() []Node {
	if n.Value == nil {
		return nil
	}
	return []Node{n.Value}
}

func (n *Directive) Children() []Node {
	out := make([]Node, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		out = append(out, a)
	}
	return out
}

func (n *ObjectField) Children() []Node {
	if n.Value == nil {
		return nil
	}
	return []Node{n.Value}
}

func (*IntValue) Children() []Node     { return nil }
func (*FloatValue) Children() []Node   { return nil }
func (*StringValue) Children() []Node  { return nil }
func (*BooleanValue) Children() []Node { return nil }
func (*NullValue) Children() []Node    { return nil }
func (*EnumValue) Children() []Node    { return nil }
func (*Variable) Children() []Node     { return nil }
func (*NamedType) Children() []Node    { return nil }

func (n *ListValue) Children() []Node {
	out := make([]Node, 0, len(n.Values))
	for _, v := range n.Values {
		out = append(out, v)
	}
	return out
}

func (n *ObjectValue) Children() []Node {
	out := make([]Node, 0, len(n.Fields))
	for _, f := range n.Fields {
		out = append(out, f)
	}
	return out
}

func (n *ListType) Children() []Node {
	if n.Elem == nil {
		return nil
	}
	return []Node{n.Elem}
}

func (n *NonNullType) Children() []Node {
	if n.Elem == nil {
		return nil
	}
	return []Node{n.Elem}
}

func appendDirectives(out []Node, directives []*Directive) []Node {
	for _, d := range directives {
		out = append(out, d)
	}
	return out
}

// Operation returns the operation with the given name, or the first operation
// when name is empty.
func (n *Document) Operation(name string) (*OperationDefinition, bool) {
	for _, d := range n.Definitions {
		op, ok := d.(*OperationDefinition)
		if !ok {
			continue
		}
		if name == "" || op.Name == name {
			return op, true
		}
	}
	return nil, false
}

// Fragment returns the fragment definition with the given name
func (n *Document) Fragment(name string) (*FragmentDefinition, bool) {
	for _, d := range n.Definitions {
		if frag, ok := d.(*FragmentDefinition); ok && frag.Name == name {
			return frag, true
		}
	}
	return nil, false
}
