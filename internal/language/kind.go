package language

// Kind identifies the concrete type of a Node
type Kind int

const (
	KindDocument Kind = iota
	KindOperationDefinition
	KindFragmentDefinition
	KindVariableDefinition
	KindSelectionSet
	KindField
	KindFragmentSpread
	KindInlineFragment
	KindArgument
	KindDirective
	KindObjectField
	KindIntValue
	KindFloatValue
	KindStringValue
	KindBooleanValue
	KindNullValue
	KindEnumValue
	KindVariable
	KindListValue
	KindObjectValue
	KindNamedType
	KindListType
	KindNonNullType
	// KindFieldTransformation is reported by schema-level transformation
	// declarations, which share the node contract but never appear in queries.
	KindFieldTransformation
)

var kindNames = [...]string{
	KindDocument:            "Document",
	KindOperationDefinition: "OperationDefinition",
	KindFragmentDefinition:  "FragmentDefinition",
	KindVariableDefinition:  "VariableDefinition",
	KindSelectionSet:        "SelectionSet",
	KindField:               "Field",
	KindFragmentSpread:      "FragmentSpread",
	KindInlineFragment:      "InlineFragment",
	KindArgument:            "Argument",
	KindDirective:           "Directive",
	KindObjectField:         "ObjectField",
	KindIntValue:            "IntValue",
	KindFloatValue:          "FloatValue",
	KindStringValue:         "StringValue",
	KindBooleanValue:        "BooleanValue",
	KindNullValue:           "NullValue",
	KindEnumValue:           "EnumValue",
	KindVariable:            "Variable",
	KindListValue:           "ListValue",
	KindObjectValue:         "ObjectValue",
	KindNamedType:           "NamedType",
	KindListType:            "ListType",
	KindNonNullType:         "NonNullType",
	KindFieldTransformation: "FieldTransformation",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// IsValue reports whether nodes of this kind implement Value
func (k Kind) IsValue() bool {
	return k >= KindIntValue && k <= KindObjectValue
}
