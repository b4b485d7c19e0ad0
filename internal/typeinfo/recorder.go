package typeinfo

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/okra-platform/stitch/internal/graph"
	"github.com/okra-platform/stitch/internal/language"
)

const typenameField = "__typename"

// Recorder annotates query trees with their schema type info. It holds no
// per-call state and can be shared between goroutines.
type Recorder struct {
	logger zerolog.Logger
	ids    func() IDGenerator
}

// RecorderOption configures a Recorder
type RecorderOption func(*Recorder)

// WithLogger sets the logger used for debug events
func WithLogger(logger zerolog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithIDs sets the factory creating one ID generator per recording call
func WithIDs(ids func() IDGenerator) RecorderOption {
	return func(r *Recorder) {
		if ids != nil {
			r.ids = ids
		}
	}
}

func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		logger: zerolog.Nop(),
		ids:    NewCounter,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record walks node depth-first and returns a copy of it in which every
// field, argument and value carries a fresh identifier, together with the
// table describing what each identifier resolved to. root is the output type
// top-level fields are looked up on when node is not an operation; it may be
// nil. Any resolution failure aborts the call and nothing is returned.
func (r *Recorder) Record(node language.Node, schema *graph.Schema, root *graph.Type) (language.Node, *Table, error) {
	if node == nil {
		return nil, nil, ErrNilNode
	}
	if schema == nil {
		return nil, nil, ErrNilSchema
	}

	w := &walker{schema: schema, ids: r.ids(), table: NewTable()}
	out, err := w.node(node, scope{outputType: root})
	if err != nil {
		r.logger.Debug().Err(err).Str("kind", node.Kind().String()).Msg("type info recording failed")
		return nil, nil, err
	}

	r.logger.Debug().
		Str("kind", node.Kind().String()).
		Int("records", w.table.Len()).
		Msg("recorded type info")
	return out, w.table, nil
}

// Record is the typed form of Recorder.Record: the annotated copy has the
// same node type as the input.
func Record[T language.Node](r *Recorder, node T, schema *graph.Schema, root *graph.Type) (T, *Table, error) {
	var zero T
	out, table, err := r.Record(node, schema, root)
	if err != nil {
		return zero, nil, err
	}
	typed, ok := out.(T)
	if !ok {
		return zero, nil, fmt.Errorf("%w: %s changed type while recording", ErrUnsupportedNode, node.Kind())
	}
	return typed, table, nil
}

// scope is the resolution context handed down the tree. It is passed by
// value, so changes made for a subtree never leak to its siblings.
type scope struct {
	outputType *graph.Type
	field      *graph.Field
	argument   *graph.Argument
	inputField *graph.InputField
	inputType  *graph.TypeRef // type of the argument or input field being filled
	path       []string
}

func (s scope) enter(n language.Node) scope {
	if segment, ok := language.PathSegment(n); ok {
		s.path = append(s.path[:len(s.path):len(s.path)], segment)
	}
	return s
}

func (s scope) index(i int) scope {
	s.path = append(s.path[:len(s.path):len(s.path)], strconv.Itoa(i))
	return s
}

type walker struct {
	schema *graph.Schema
	ids    IDGenerator
	table  *Table
}

func (w *walker) record(info OverallTypeInfo) (string, error) {
	id := w.ids.Next()
	if err := w.table.add(id, info); err != nil {
		return "", err
	}
	return id, nil
}

func (w *walker) node(n language.Node, s scope) (language.Node, error) {
	switch n := n.(type) {
	case *language.Document:
		return w.document(n, s)
	case *language.OperationDefinition:
		return w.operation(n, s)
	case *language.FragmentDefinition:
		return w.fragmentDefinition(n, s)
	case *language.SelectionSet:
		return w.selectionSet(n, s)
	case *language.Field:
		return w.field(n, s)
	case *language.InlineFragment:
		return w.inlineFragment(n, s)
	case *language.Argument:
		return w.argument(n, s)
	case *language.ObjectField:
		return w.objectField(n, s)
	case language.Value:
		return w.value(n, s)
	case *language.FragmentSpread, *language.Directive, *language.VariableDefinition, language.Type:
		return n, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedNode, n.Kind())
	}
}

func (w *walker) document(doc *language.Document, s scope) (*language.Document, error) {
	out := *doc
	out.Definitions = make([]language.Definition, 0, len(doc.Definitions))
	for _, def := range doc.Definitions {
		var (
			recorded language.Definition
			err      error
		)
		switch def := def.(type) {
		case *language.OperationDefinition:
			recorded, err = w.operation(def, s)
		case *language.FragmentDefinition:
			recorded, err = w.fragmentDefinition(def, s)
		default:
			err = fmt.Errorf("%w: %s", ErrUnsupportedNode, def.Kind())
		}
		if err != nil {
			return nil, err
		}
		out.Definitions = append(out.Definitions, recorded)
	}
	return &out, nil
}

func (w *walker) operation(op *language.OperationDefinition, s scope) (*language.OperationDefinition, error) {
	s = s.enter(op)
	root, ok := w.schema.RootType(string(op.Operation))
	if !ok {
		return nil, &ResolutionError{Err: ErrMissingRootType, Kind: op.Kind(), Name: string(op.Operation), Path: s.path}
	}
	s.outputType = root

	out := *op
	set, err := w.selectionSet(op.SelectionSet, s)
	if err != nil {
		return nil, err
	}
	out.SelectionSet = set
	return &out, nil
}

func (w *walker) fragmentDefinition(frag *language.FragmentDefinition, s scope) (*language.FragmentDefinition, error) {
	s = s.enter(frag)
	typ, err := w.typeCondition(frag, frag.TypeCondition, s)
	if err != nil {
		return nil, err
	}
	s.outputType = typ

	out := *frag
	set, err := w.selectionSet(frag.SelectionSet, s)
	if err != nil {
		return nil, err
	}
	out.SelectionSet = set
	return &out, nil
}

func (w *walker) inlineFragment(frag *language.InlineFragment, s scope) (*language.InlineFragment, error) {
	s = s.enter(frag)
	if frag.TypeCondition != "" {
		typ, err := w.typeCondition(frag, frag.TypeCondition, s)
		if err != nil {
			return nil, err
		}
		s.outputType = typ
	}

	out := *frag
	set, err := w.selectionSet(frag.SelectionSet, s)
	if err != nil {
		return nil, err
	}
	out.SelectionSet = set
	return &out, nil
}

func (w *walker) typeCondition(n language.Node, name string, s scope) (*graph.Type, error) {
	typ, ok := w.schema.Type(name)
	if !ok {
		return nil, &ResolutionError{Err: ErrUnknownType, Kind: n.Kind(), Name: name, Path: s.path}
	}
	return typ, nil
}

func (w *walker) selectionSet(set *language.SelectionSet, s scope) (*language.SelectionSet, error) {
	if set == nil {
		return nil, nil
	}
	out := *set
	out.Selections = make([]language.Selection, 0, len(set.Selections))
	for _, sel := range set.Selections {
		var (
			recorded language.Selection
			err      error
		)
		switch sel := sel.(type) {
		case *language.Field:
			recorded, err = w.field(sel, s)
		case *language.InlineFragment:
			recorded, err = w.inlineFragment(sel, s)
		case *language.FragmentSpread:
			recorded = sel
		default:
			err = fmt.Errorf("%w: %s", ErrUnsupportedNode, sel.Kind())
		}
		if err != nil {
			return nil, err
		}
		out.Selections = append(out.Selections, recorded)
	}
	return &out, nil
}

func (w *walker) field(f *language.Field, s scope) (*language.Field, error) {
	if f.Name == typenameField {
		return f, nil
	}
	s = s.enter(f)

	container := s.outputType
	if container == nil {
		return nil, &ResolutionError{Err: ErrMissingRootType, Kind: f.Kind(), Name: f.Name, Path: s.path}
	}
	if !container.IsFieldsContainer() {
		return nil, &ResolutionError{Err: ErrNotFieldsContainer, Kind: f.Kind(), Name: f.Name, Parent: container.Name(), Path: s.path}
	}
	def, ok := container.Field(f.Name)
	if !ok {
		return nil, &ResolutionError{Err: ErrUnknownField, Kind: f.Kind(), Name: f.Name, Parent: container.Name(), Path: s.path}
	}
	output, ok := w.schema.Type(def.Type().NamedType())
	if !ok {
		return nil, &ResolutionError{Err: ErrUnknownType, Kind: f.Kind(), Name: def.Type().NamedType(), Parent: def.String(), Path: s.path}
	}

	id, err := w.record(OverallTypeInfo{ContainerType: container, FieldDefinition: def})
	if err != nil {
		return nil, err
	}

	inner := scope{outputType: output, field: def, path: s.path}
	out := *f
	if len(f.Arguments) > 0 {
		out.Arguments = make([]*language.Argument, 0, len(f.Arguments))
		for _, arg := range f.Arguments {
			recorded, err := w.argument(arg, inner)
			if err != nil {
				return nil, err
			}
			out.Arguments = append(out.Arguments, recorded)
		}
	}
	set, err := w.selectionSet(f.SelectionSet, inner)
	if err != nil {
		return nil, err
	}
	out.SelectionSet = set
	return language.WithTag(&out, id), nil
}

func (w *walker) argument(arg *language.Argument, s scope) (*language.Argument, error) {
	s = s.enter(arg)
	if s.field == nil {
		return nil, &ResolutionError{Err: ErrMissingContext, Kind: arg.Kind(), Name: arg.Name, Path: s.path}
	}
	def, ok := s.field.Argument(arg.Name)
	if !ok {
		return nil, &ResolutionError{Err: ErrUnknownArgument, Kind: arg.Kind(), Name: arg.Name, Parent: s.field.String(), Path: s.path}
	}

	id, err := w.record(OverallTypeInfo{FieldDefinition: s.field, ArgumentDefinition: def})
	if err != nil {
		return nil, err
	}

	s.argument = def
	s.inputField = nil
	s.inputType = def.Type()

	out := *arg
	if arg.Value != nil {
		v, err := w.value(arg.Value, s)
		if err != nil {
			return nil, err
		}
		out.Value = v
	}
	return language.WithTag(&out, id), nil
}

// objectField narrows the input context to the named field of an input object.
// Object literals given to scalars leave the context as it is.
func (w *walker) objectField(f *language.ObjectField, s scope) (*language.ObjectField, error) {
	s = s.enter(f)
	if s.inputType == nil {
		return nil, &ResolutionError{Err: ErrMissingContext, Kind: f.Kind(), Name: f.Name, Path: s.path}
	}
	typ, ok := w.schema.Type(s.inputType.NamedType())
	if !ok {
		return nil, &ResolutionError{Err: ErrUnknownType, Kind: f.Kind(), Name: s.inputType.NamedType(), Path: s.path}
	}
	if typ.IsInputObject() {
		def, ok := typ.InputField(f.Name)
		if !ok {
			return nil, &ResolutionError{Err: ErrUnknownInputField, Kind: f.Kind(), Name: f.Name, Parent: typ.Name(), Path: s.path}
		}
		s.inputField = def
		s.inputType = def.Type()
	}

	out := *f
	if f.Value != nil {
		v, err := w.value(f.Value, s)
		if err != nil {
			return nil, err
		}
		out.Value = v
	}
	return &out, nil
}

func (w *walker) value(v language.Value, s scope) (language.Value, error) {
	if s.argument == nil {
		return nil, &ResolutionError{Err: ErrMissingContext, Kind: v.Kind(), Path: s.path}
	}

	id, err := w.record(OverallTypeInfo{ArgumentDefinition: s.argument, InputValueDefinition: s.inputField})
	if err != nil {
		return nil, err
	}

	switch v := v.(type) {
	case *language.ListValue:
		out := *v
		out.Values = make([]language.Value, 0, len(v.Values))
		for i, item := range v.Values {
			recorded, err := w.value(item, s.index(i))
			if err != nil {
				return nil, err
			}
			out.Values = append(out.Values, recorded)
		}
		return language.WithTag(&out, id), nil
	case *language.ObjectValue:
		out := *v
		out.Fields = make([]*language.ObjectField, 0, len(v.Fields))
		for _, field := range v.Fields {
			recorded, err := w.objectField(field, s)
			if err != nil {
				return nil, err
			}
			out.Fields = append(out.Fields, recorded)
		}
		return language.WithTag(&out, id), nil
	default:
		return language.WithTag(v, id), nil
	}
}
