package transform

import (
	"fmt"
	"slices"
	"strings"
)

// FieldMappingDefinition renames an overall field to a field of the
// underlying service, e.g. `renamed from details.name`.
type FieldMappingDefinition struct {
	InputPath []string
}

func (m FieldMappingDefinition) Equal(other FieldMappingDefinition) bool {
	return slices.Equal(m.InputPath, other.InputPath)
}

func (m FieldMappingDefinition) clone() FieldMappingDefinition {
	return FieldMappingDefinition{InputPath: slices.Clone(m.InputPath)}
}

func (m FieldMappingDefinition) validate() error {
	if len(m.InputPath) == 0 {
		return fmt.Errorf("%w: empty input path", ErrInvalidMapping)
	}
	for _, segment := range m.InputPath {
		if segment == "" {
			return fmt.Errorf("%w: empty segment in %q", ErrInvalidMapping, strings.Join(m.InputPath, "."))
		}
	}
	return nil
}

// SourceKind says where a hydration argument takes its value from
type SourceKind int

const (
	// SourceObjectField reads a field of the parent object ($source.path)
	SourceObjectField SourceKind = iota
	// SourceFieldArgument reads an argument of the hydrated field ($argument.name)
	SourceFieldArgument
)

func (k SourceKind) String() string {
	switch k {
	case SourceObjectField:
		return "source"
	case SourceFieldArgument:
		return "argument"
	default:
		return "unknown"
	}
}

// RemoteArgumentSource locates the value bound to a hydration argument
type RemoteArgumentSource struct {
	Kind SourceKind
	Path []string
}

// ParseRemoteArgumentSource parses `$source.a.b` and `$argument.name`
func ParseRemoteArgumentSource(s string) (RemoteArgumentSource, error) {
	prefix, rest, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || rest == "" {
		return RemoteArgumentSource{}, fmt.Errorf("%w: %q", ErrInvalidArgumentSource, s)
	}

	var src RemoteArgumentSource
	switch prefix {
	case "$source":
		src.Kind = SourceObjectField
	case "$argument":
		src.Kind = SourceFieldArgument
	default:
		return RemoteArgumentSource{}, fmt.Errorf("%w: %q must start with $source or $argument", ErrInvalidArgumentSource, s)
	}

	src.Path = strings.Split(rest, ".")
	if src.Kind == SourceFieldArgument && len(src.Path) != 1 {
		return RemoteArgumentSource{}, fmt.Errorf("%w: %q must name a single argument", ErrInvalidArgumentSource, s)
	}
	for _, segment := range src.Path {
		if segment == "" {
			return RemoteArgumentSource{}, fmt.Errorf("%w: %q", ErrInvalidArgumentSource, s)
		}
	}
	return src, nil
}

func (s RemoteArgumentSource) String() string {
	return "$" + s.Kind.String() + "." + strings.Join(s.Path, ".")
}

func (s RemoteArgumentSource) Equal(other RemoteArgumentSource) bool {
	return s.Kind == other.Kind && slices.Equal(s.Path, other.Path)
}

// RemoteArgument binds one argument of the hydration call
type RemoteArgument struct {
	Name   string
	Source RemoteArgumentSource
}

func (a RemoteArgument) Equal(other RemoteArgument) bool {
	return a.Name == other.Name && a.Source.Equal(other.Source)
}

// UnderlyingServiceHydration resolves an overall field by calling another
// service, e.g. `hydrated from OwnerService.owners.byId(id: $source.ownerId)`.
type UnderlyingServiceHydration struct {
	ServiceName    string
	TopLevelField  string
	SyntheticField string // optional namespace field in front of TopLevelField
	Arguments      []RemoteArgument
	// ObjectIdentifier names the field matching batched results back to
	// their sources; empty when the hydration is not batched.
	ObjectIdentifier string
	BatchSize        int
}

// FieldPath is the path of the called field on the underlying service
func (h UnderlyingServiceHydration) FieldPath() []string {
	if h.SyntheticField == "" {
		return []string{h.TopLevelField}
	}
	return []string{h.SyntheticField, h.TopLevelField}
}

// Argument returns the binding for the named remote argument
func (h UnderlyingServiceHydration) Argument(name string) (RemoteArgument, bool) {
	for _, a := range h.Arguments {
		if a.Name == name {
			return a, true
		}
	}
	return RemoteArgument{}, false
}

func (h UnderlyingServiceHydration) Equal(other UnderlyingServiceHydration) bool {
	return h.ServiceName == other.ServiceName &&
		h.TopLevelField == other.TopLevelField &&
		h.SyntheticField == other.SyntheticField &&
		h.ObjectIdentifier == other.ObjectIdentifier &&
		h.BatchSize == other.BatchSize &&
		slices.EqualFunc(h.Arguments, other.Arguments, RemoteArgument.Equal)
}

func (h UnderlyingServiceHydration) clone() UnderlyingServiceHydration {
	c := h
	c.Arguments = make([]RemoteArgument, len(h.Arguments))
	for i, a := range h.Arguments {
		c.Arguments[i] = RemoteArgument{
			Name:   a.Name,
			Source: RemoteArgumentSource{Kind: a.Source.Kind, Path: slices.Clone(a.Source.Path)},
		}
	}
	return c
}

func (h UnderlyingServiceHydration) validate() error {
	switch {
	case h.ServiceName == "":
		return fmt.Errorf("%w: missing service name", ErrInvalidHydration)
	case h.TopLevelField == "":
		return fmt.Errorf("%w: missing top level field", ErrInvalidHydration)
	case len(h.Arguments) == 0:
		return fmt.Errorf("%w: %s.%s has no arguments", ErrInvalidHydration, h.ServiceName, h.TopLevelField)
	case h.BatchSize < 0:
		return fmt.Errorf("%w: negative batch size %d", ErrInvalidHydration, h.BatchSize)
	}

	seen := make(map[string]bool, len(h.Arguments))
	for _, a := range h.Arguments {
		if a.Name == "" {
			return fmt.Errorf("%w: unnamed argument", ErrInvalidHydration)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: argument %s bound twice", ErrInvalidHydration, a.Name)
		}
		seen[a.Name] = true
		if len(a.Source.Path) == 0 {
			return fmt.Errorf("%w: argument %s has no source", ErrInvalidHydration, a.Name)
		}
	}
	return nil
}
