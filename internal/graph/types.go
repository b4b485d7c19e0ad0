package graph

import (
	"fmt"
	"strings"

	"github.com/okra-platform/stitch/internal/transform"
)

// TypeKind mirrors the GraphQL type system kinds
type TypeKind int

const (
	KindScalar TypeKind = iota
	KindObject
	KindInterface
	KindUnion
	KindEnum
	KindInputObject
)

func (k TypeKind) String() string {
	switch k {
	case KindScalar:
		return "SCALAR"
	case KindObject:
		return "OBJECT"
	case KindInterface:
		return "INTERFACE"
	case KindUnion:
		return "UNION"
	case KindEnum:
		return "ENUM"
	case KindInputObject:
		return "INPUT_OBJECT"
	default:
		return "UNKNOWN"
	}
}

// TypeRef is a possibly wrapped reference to a named type, e.g. [Pet!]!
type TypeRef struct {
	Name    string // set on the innermost reference only
	Elem    *TypeRef
	NonNull bool
}

// NamedType unwraps all list and non-null wrappers
func (t *TypeRef) NamedType() string {
	for t.Elem != nil {
		t = t.Elem
	}
	return t.Name
}

// IsList reports whether the outermost nullable wrapper is a list
func (t *TypeRef) IsList() bool {
	return t.Elem != nil
}

func (t *TypeRef) String() string {
	var out string
	if t.Elem != nil {
		out = "[" + t.Elem.String() + "]"
	} else {
		out = t.Name
	}
	if t.NonNull {
		out += "!"
	}
	return out
}

// Type is a named type of the schema
type Type struct {
	name        string
	kind        TypeKind
	description string
	builtIn     bool
	fields      []*Field
	fieldIndex  map[string]*Field
	inputFields []*InputField
	inputIndex  map[string]*InputField
	interfaces  []string
	members     []string
}

func (t *Type) Name() string        { return t.name }
func (t *Type) Kind() TypeKind      { return t.kind }
func (t *Type) Description() string { return t.description }
func (t *Type) BuiltIn() bool       { return t.builtIn }

// Interfaces lists the interfaces an object or interface type implements
func (t *Type) Interfaces() []string { return append([]string(nil), t.interfaces...) }

// PossibleTypes lists the members of a union
func (t *Type) PossibleTypes() []string { return append([]string(nil), t.members...) }

// IsFieldsContainer reports whether fields can be selected on the type
func (t *Type) IsFieldsContainer() bool {
	return t.kind == KindObject || t.kind == KindInterface
}

// IsInputObject reports whether the type is a composite input type
func (t *Type) IsInputObject() bool {
	return t.kind == KindInputObject
}

// Field looks up an output field by name
func (t *Type) Field(name string) (*Field, bool) {
	f, ok := t.fieldIndex[name]
	return f, ok
}

// Fields returns the output fields in declaration order
func (t *Type) Fields() []*Field {
	return append([]*Field(nil), t.fields...)
}

// InputField looks up an input object field by name
func (t *Type) InputField(name string) (*InputField, bool) {
	f, ok := t.inputIndex[name]
	return f, ok
}

// InputFields returns the input fields in declaration order
func (t *Type) InputFields() []*InputField {
	return append([]*InputField(nil), t.inputFields...)
}

func (t *Type) String() string {
	return t.name
}

// Field is an output field declared by an object or interface type
type Field struct {
	container      *Type
	name           string
	description    string
	typ            *TypeRef
	arguments      []*Argument
	argIndex       map[string]*Argument
	transformation *transform.FieldTransformation
}

func (f *Field) Name() string        { return f.name }
func (f *Field) Description() string { return f.description }
func (f *Field) Type() *TypeRef      { return f.typ }

// Container is the type declaring the field
func (f *Field) Container() *Type { return f.container }

// Coordinate is the schema coordinate of the field, e.g. Pet.name
func (f *Field) Coordinate() Coordinate {
	return Coordinate{Type: f.container.name, Field: f.name}
}

// Argument looks up an argument definition by name
func (f *Field) Argument(name string) (*Argument, bool) {
	a, ok := f.argIndex[name]
	return a, ok
}

// Arguments returns the arguments in declaration order
func (f *Field) Arguments() []*Argument {
	return append([]*Argument(nil), f.arguments...)
}

// Transformation returns the rename or hydration declared on the field, if any
func (f *Field) Transformation() (*transform.FieldTransformation, bool) {
	return f.transformation, f.transformation != nil
}

func (f *Field) String() string {
	return f.Coordinate().String()
}

// InputValue is implemented by arguments and input object fields
type InputValue interface {
	Name() string
	Type() *TypeRef
}

// Argument is an argument declared by a field
type Argument struct {
	field        *Field
	name         string
	description  string
	typ          *TypeRef
	defaultValue string
}

func (a *Argument) Name() string        { return a.name }
func (a *Argument) Description() string { return a.description }
func (a *Argument) Type() *TypeRef      { return a.typ }
func (a *Argument) Field() *Field       { return a.field }

// DefaultValue is the raw default value literal, or "" when absent
func (a *Argument) DefaultValue() string { return a.defaultValue }

func (a *Argument) String() string {
	return fmt.Sprintf("%s(%s:)", a.field, a.name)
}

// InputField is a field of an input object type
type InputField struct {
	owner       *Type
	name        string
	description string
	typ         *TypeRef
}

func (f *InputField) Name() string        { return f.name }
func (f *InputField) Description() string { return f.description }
func (f *InputField) Type() *TypeRef      { return f.typ }
func (f *InputField) Owner() *Type        { return f.owner }

func (f *InputField) String() string {
	return f.owner.name + "." + f.name
}

// Coordinate addresses a field of the schema
type Coordinate struct {
	Type  string
	Field string
}

// ParseCoordinate parses Type.field
func ParseCoordinate(s string) (Coordinate, error) {
	typ, field, ok := strings.Cut(s, ".")
	if !ok || typ == "" || field == "" || strings.Contains(field, ".") {
		return Coordinate{}, fmt.Errorf("invalid schema coordinate %q", s)
	}
	return Coordinate{Type: typ, Field: field}, nil
}

func (c Coordinate) String() string {
	return c.Type + "." + c.Field
}
