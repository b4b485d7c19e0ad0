// Package graph is the resolved schema graph the gateway annotates queries
// against. It wraps a validated gqlparser schema behind lookups by name and is
// read-only after construction, so one Schema can serve concurrent callers.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/okra-platform/stitch/internal/transform"
)

var ErrUnknownCoordinate = errors.New("transformation declared on unknown field")

// Schema is the resolved overall schema
type Schema struct {
	source       *ast.Schema
	types        map[string]*Type
	query        *Type
	mutation     *Type
	subscription *Type
}

// Option configures a Schema under construction
type Option func(*builder)

type builder struct {
	transformations map[Coordinate]*transform.FieldTransformation
}

// WithTransformations attaches field transformations keyed by coordinate
func WithTransformations(transformations map[Coordinate]*transform.FieldTransformation) Option {
	return func(b *builder) {
		for coord, t := range transformations {
			b.transformations[coord] = t
		}
	}
}

// Load parses and validates sdl and builds the graph
func Load(sdl string, opts ...Option) (*Schema, error) {
	source, err := gqlparser.LoadSchema(&ast.Source{Name: "overall.graphql", Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return New(source, opts...)
}

// New builds the graph over an already validated gqlparser schema
func New(source *ast.Schema, opts ...Option) (*Schema, error) {
	b := &builder{transformations: make(map[Coordinate]*transform.FieldTransformation)}
	for _, opt := range opts {
		opt(b)
	}

	s := &Schema{
		source: source,
		types:  make(map[string]*Type, len(source.Types)),
	}
	for name, def := range source.Types {
		s.types[name] = newType(def)
	}
	if source.Query != nil {
		s.query = s.types[source.Query.Name]
	}
	if source.Mutation != nil {
		s.mutation = s.types[source.Mutation.Name]
	}
	if source.Subscription != nil {
		s.subscription = s.types[source.Subscription.Name]
	}

	for coord, t := range b.transformations {
		typ, ok := s.types[coord.Type]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCoordinate, coord)
		}
		field, ok := typ.Field(coord.Field)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCoordinate, coord)
		}
		field.transformation = t
	}

	return s, nil
}

func newType(def *ast.Definition) *Type {
	t := &Type{
		name:        def.Name,
		description: def.Description,
		builtIn:     def.BuiltIn,
		interfaces:  append([]string(nil), def.Interfaces...),
		members:     append([]string(nil), def.Types...),
	}

	switch def.Kind {
	case ast.Object:
		t.kind = KindObject
	case ast.Interface:
		t.kind = KindInterface
	case ast.Union:
		t.kind = KindUnion
	case ast.Enum:
		t.kind = KindEnum
	case ast.InputObject:
		t.kind = KindInputObject
	default:
		t.kind = KindScalar
	}

	if t.kind == KindInputObject {
		t.inputIndex = make(map[string]*InputField, len(def.Fields))
		for _, fd := range def.Fields {
			f := &InputField{owner: t, name: fd.Name, description: fd.Description, typ: newTypeRef(fd.Type)}
			t.inputFields = append(t.inputFields, f)
			t.inputIndex[f.name] = f
		}
		return t
	}

	t.fieldIndex = make(map[string]*Field, len(def.Fields))
	for _, fd := range def.Fields {
		f := &Field{
			container:   t,
			name:        fd.Name,
			description: fd.Description,
			typ:         newTypeRef(fd.Type),
			argIndex:    make(map[string]*Argument, len(fd.Arguments)),
		}
		for _, ad := range fd.Arguments {
			a := &Argument{field: f, name: ad.Name, description: ad.Description, typ: newTypeRef(ad.Type)}
			if ad.DefaultValue != nil {
				a.defaultValue = ad.DefaultValue.String()
			}
			f.arguments = append(f.arguments, a)
			f.argIndex[a.name] = a
		}
		t.fields = append(t.fields, f)
		t.fieldIndex[f.name] = f
	}
	return t
}

func newTypeRef(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	return &TypeRef{Name: t.NamedType, Elem: newTypeRef(t.Elem), NonNull: t.NonNull}
}

// Type looks up a named type
func (s *Schema) Type(name string) (*Type, bool) {
	t, ok := s.types[name]
	return t, ok
}

// Types returns every named type sorted by name
func (s *Schema) Types() []*Type {
	out := make([]*Type, 0, len(s.types))
	for _, t := range s.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// RootType returns the root type of an operation kind: query, mutation or subscription
func (s *Schema) RootType(operation string) (*Type, bool) {
	var t *Type
	switch operation {
	case "query", "":
		t = s.query
	case "mutation":
		t = s.mutation
	case "subscription":
		t = s.subscription
	}
	return t, t != nil
}

// FieldAt resolves a schema coordinate
func (s *Schema) FieldAt(coord Coordinate) (*Field, bool) {
	t, ok := s.types[coord.Type]
	if !ok {
		return nil, false
	}
	return t.Field(coord.Field)
}

// Transformations returns every field carrying a transformation, sorted by coordinate
func (s *Schema) Transformations() []*Field {
	var out []*Field
	for _, t := range s.types {
		for _, f := range t.fields {
			if f.transformation != nil {
				out = append(out, f)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Coordinate().String() < out[j].Coordinate().String() })
	return out
}

// Source exposes the underlying gqlparser schema, used to validate queries
func (s *Schema) Source() *ast.Schema {
	return s.source
}
