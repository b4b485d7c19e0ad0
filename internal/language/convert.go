package language

import (
	"fmt"
	"sort"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Parse parses a query document without validating it against a schema
func Parse(query string) (*Document, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "query.graphql", Input: query})
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}
	return FromQueryDocument(doc), nil
}

// LoadQuery parses query and validates it against schema
func LoadQuery(schema *ast.Schema, query string) (*Document, error) {
	doc, errs := gqlparser.LoadQuery(schema, query)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid query: %w", errs)
	}
	return FromQueryDocument(doc), nil
}

// FromQueryDocument converts a gqlparser query document. Operations and
// fragments keep their source order.
func FromQueryDocument(doc *ast.QueryDocument) *Document {
	type positioned struct {
		start int
		def   Definition
	}

	var defs []positioned
	for _, op := range doc.Operations {
		defs = append(defs, positioned{start: startOf(op.Position), def: convertOperation(op)})
	}
	for _, frag := range doc.Fragments {
		defs = append(defs, positioned{start: startOf(frag.Position), def: convertFragment(frag)})
	}
	sort.SliceStable(defs, func(i, j int) bool { return defs[i].start < defs[j].start })

	out := &Document{Loc: Location{Line: 1, Column: 1}}
	for _, d := range defs {
		out.Definitions = append(out.Definitions, d.def)
	}
	return out
}

func startOf(pos *ast.Position) int {
	if pos == nil {
		return 0
	}
	return pos.Start
}

func locationOf(pos *ast.Position) Location {
	if pos == nil {
		return Location{}
	}
	return Location{Line: pos.Line, Column: pos.Column}
}

func convertOperation(op *ast.OperationDefinition) *OperationDefinition {
	out := &OperationDefinition{
		Operation:    OperationType(op.Operation),
		Name:         op.Name,
		Directives:   convertDirectives(op.Directives),
		SelectionSet: convertSelectionSet(op.SelectionSet),
		Loc:          locationOf(op.Position),
	}
	if out.Operation == "" {
		out.Operation = OperationQuery
	}
	for _, v := range op.VariableDefinitions {
		out.VariableDefinitions = append(out.VariableDefinitions, &VariableDefinition{
			Variable:     v.Variable,
			Type:         convertType(v.Type),
			DefaultValue: convertValue(v.DefaultValue),
			Directives:   convertDirectives(v.Directives),
			Loc:          locationOf(v.Position),
		})
	}
	return out
}

func convertFragment(frag *ast.FragmentDefinition) *FragmentDefinition {
	return &FragmentDefinition{
		Name:          frag.Name,
		TypeCondition: frag.TypeCondition,
		Directives:    convertDirectives(frag.Directives),
		SelectionSet:  convertSelectionSet(frag.SelectionSet),
		Loc:           locationOf(frag.Position),
	}
}

func convertSelectionSet(set ast.SelectionSet) *SelectionSet {
	if len(set) == 0 {
		return nil
	}
	out := &SelectionSet{}
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			out.Selections = append(out.Selections, &Field{
				Alias:        aliasOf(sel),
				Name:         sel.Name,
				Arguments:    convertArguments(sel.Arguments),
				Directives:   convertDirectives(sel.Directives),
				SelectionSet: convertSelectionSet(sel.SelectionSet),
				Loc:          locationOf(sel.Position),
			})
		case *ast.FragmentSpread:
			out.Selections = append(out.Selections, &FragmentSpread{
				Name:       sel.Name,
				Directives: convertDirectives(sel.Directives),
				Loc:        locationOf(sel.Position),
			})
		case *ast.InlineFragment:
			out.Selections = append(out.Selections, &InlineFragment{
				TypeCondition: sel.TypeCondition,
				Directives:    convertDirectives(sel.Directives),
				SelectionSet:  convertSelectionSet(sel.SelectionSet),
				Loc:           locationOf(sel.Position),
			})
		}
	}
	if len(out.Selections) > 0 {
		out.Loc = out.Selections[0].Location()
	}
	return out
}

// gqlparser fills Alias with the field name when no alias is given
func aliasOf(f *ast.Field) string {
	if f.Alias == f.Name {
		return ""
	}
	return f.Alias
}

func convertArguments(args ast.ArgumentList) []*Argument {
	var out []*Argument
	for _, a := range args {
		out = append(out, &Argument{
			Name:  a.Name,
			Value: convertValue(a.Value),
			Loc:   locationOf(a.Position),
		})
	}
	return out
}

func convertDirectives(dirs ast.DirectiveList) []*Directive {
	var out []*Directive
	for _, d := range dirs {
		out = append(out, &Directive{
			Name:      d.Name,
			Arguments: convertArguments(d.Arguments),
			Loc:       locationOf(d.Position),
		})
	}
	return out
}

func convertValue(v *ast.Value) Value {
	if v == nil {
		return nil
	}
	loc := locationOf(v.Position)
	switch v.Kind {
	case ast.Variable:
		return &Variable{Name: v.Raw, Loc: loc}
	case ast.IntValue:
		return &IntValue{Raw: v.Raw, Loc: loc}
	case ast.FloatValue:
		return &FloatValue{Raw: v.Raw, Loc: loc}
	case ast.StringValue:
		return &StringValue{Raw: v.Raw, Loc: loc}
	case ast.BlockValue:
		return &StringValue{Raw: v.Raw, Block: true, Loc: loc}
	case ast.BooleanValue:
		return &BooleanValue{Value: v.Raw == "true", Loc: loc}
	case ast.NullValue:
		return &NullValue{Loc: loc}
	case ast.EnumValue:
		return &EnumValue{Name: v.Raw, Loc: loc}
	case ast.ListValue:
		list := &ListValue{Loc: loc}
		for _, child := range v.Children {
			list.Values = append(list.Values, convertValue(child.Value))
		}
		return list
	case ast.ObjectValue:
		obj := &ObjectValue{Loc: loc}
		for _, child := range v.Children {
			obj.Fields = append(obj.Fields, &ObjectField{
				Name:  child.Name,
				Value: convertValue(child.Value),
				Loc:   locationOf(child.Position),
			})
		}
		return obj
	default:
		return &StringValue{Raw: v.Raw, Loc: loc}
	}
}

func convertType(t *ast.Type) Type {
	if t == nil {
		return nil
	}
	loc := locationOf(t.Position)
	if t.NonNull {
		inner := *t
		inner.NonNull = false
		return &NonNullType{Elem: convertType(&inner), Loc: loc}
	}
	if t.Elem != nil {
		return &ListType{Elem: convertType(t.Elem), Loc: loc}
	}
	return &NamedType{Name: t.NamedType, Loc: loc}
}
