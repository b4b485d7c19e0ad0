// Package transform models the field transformations declared on the overall
// schema: a field is either renamed from a field of its underlying service or
// hydrated by a call to another service.
package transform

import (
	"slices"

	"github.com/okra-platform/stitch/internal/language"
)

// FieldTransformation holds exactly one of a field mapping or a hydration.
// Values are immutable once constructed and safe to share between goroutines.
type FieldTransformation struct {
	mapping   *FieldMappingDefinition
	hydration *UnderlyingServiceHydration
	loc       language.Location
	comments  []string
}

// Option sets node metadata on a FieldTransformation
type Option func(*FieldTransformation)

// WithLocation records where the declaration appeared
func WithLocation(loc language.Location) Option {
	return func(t *FieldTransformation) {
		t.loc = loc
	}
}

// WithComments attaches the comments found next to the declaration
func WithComments(comments ...string) Option {
	return func(t *FieldTransformation) {
		t.comments = slices.Clone(comments)
	}
}

// New builds a transformation from whichever payload is set. Exactly one of
// mapping and hydration must be non-nil.
func New(mapping *FieldMappingDefinition, hydration *UnderlyingServiceHydration, opts ...Option) (*FieldTransformation, error) {
	switch {
	case mapping == nil && hydration == nil:
		return nil, ErrNoPayload
	case mapping != nil && hydration != nil:
		return nil, ErrBothPayloads
	case mapping != nil:
		return NewFieldMapping(*mapping, opts...)
	default:
		return NewHydration(*hydration, opts...)
	}
}

// NewFieldMapping builds a rename transformation
func NewFieldMapping(mapping FieldMappingDefinition, opts ...Option) (*FieldTransformation, error) {
	if err := mapping.validate(); err != nil {
		return nil, err
	}
	m := mapping.clone()
	return build(&FieldTransformation{mapping: &m}, opts), nil
}

// NewHydration builds a hydration transformation
func NewHydration(hydration UnderlyingServiceHydration, opts ...Option) (*FieldTransformation, error) {
	if err := hydration.validate(); err != nil {
		return nil, err
	}
	h := hydration.clone()
	return build(&FieldTransformation{hydration: &h}, opts), nil
}

func build(t *FieldTransformation, opts []Option) *FieldTransformation {
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *FieldTransformation) IsFieldMapping() bool {
	return t.mapping != nil
}

func (t *FieldTransformation) IsHydration() bool {
	return t.hydration != nil
}

// FieldMappingDefinition returns a copy of the mapping payload
func (t *FieldTransformation) FieldMappingDefinition() (FieldMappingDefinition, bool) {
	if t.mapping == nil {
		return FieldMappingDefinition{}, false
	}
	return t.mapping.clone(), true
}

// UnderlyingServiceHydration returns a copy of the hydration payload
func (t *FieldTransformation) UnderlyingServiceHydration() (UnderlyingServiceHydration, bool) {
	if t.hydration == nil {
		return UnderlyingServiceHydration{}, false
	}
	return t.hydration.clone(), true
}

func (t *FieldTransformation) Comments() []string {
	return slices.Clone(t.comments)
}

func (t *FieldTransformation) Kind() language.Kind {
	return language.KindFieldTransformation
}

func (t *FieldTransformation) Location() language.Location {
	return t.loc
}

// Children is always empty: a transformation has no structural children
func (t *FieldTransformation) Children() []language.Node {
	return nil
}

// Equal reports whether both values carry the same kind of payload with equal
// contents. Location and comments are not compared.
func (t *FieldTransformation) Equal(other *FieldTransformation) bool {
	if t == nil || other == nil {
		return t == other
	}
	switch {
	case t.mapping != nil && other.mapping != nil:
		return t.mapping.Equal(*other.mapping)
	case t.hydration != nil && other.hydration != nil:
		return t.hydration.Equal(*other.hydration)
	default:
		return false
	}
}

// EqualNode implements language.NodeEqualer
func (t *FieldTransformation) EqualNode(other language.Node) bool {
	o, ok := other.(*FieldTransformation)
	return ok && t.Equal(o)
}

// DeepCopy returns an independent value with the same payload and metadata
func (t *FieldTransformation) DeepCopy() *FieldTransformation {
	c := &FieldTransformation{loc: t.loc, comments: slices.Clone(t.comments)}
	if t.mapping != nil {
		m := t.mapping.clone()
		c.mapping = &m
	}
	if t.hydration != nil {
		h := t.hydration.clone()
		c.hydration = &h
	}
	return c
}
