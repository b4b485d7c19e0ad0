package typeinfo

import (
	"fmt"

	"github.com/okra-platform/stitch/internal/language"
	"github.com/okra-platform/stitch/internal/transform"
)

// RecordView is the serialisable form of one table entry
type RecordView struct {
	ID             string              `json:"id"`
	Kind           string              `json:"kind"`
	Path           string              `json:"path"`
	ContainerType  string              `json:"containerType,omitempty"`
	Field          string              `json:"field,omitempty"`
	FieldType      string              `json:"fieldType,omitempty"`
	Argument       string              `json:"argument,omitempty"`
	InputValue     string              `json:"inputValue,omitempty"`
	Transformation *TransformationView `json:"transformation,omitempty"`
}

// TransformationView describes the transformation of a recorded field
type TransformationView struct {
	Kind             string         `json:"kind"` // mapping or hydration
	InputPath        []string       `json:"inputPath,omitempty"`
	Service          string         `json:"service,omitempty"`
	FieldPath        []string       `json:"fieldPath,omitempty"`
	Arguments        []ArgumentView `json:"arguments,omitempty"`
	ObjectIdentifier string         `json:"objectIdentifier,omitempty"`
	BatchSize        int            `json:"batchSize,omitempty"`
}

type ArgumentView struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// BuildReport lists the entries of table in tree order. It fails unless every
// tag found in root has an entry and every entry is carried by exactly one node.
func BuildReport(root language.Node, table *Table) ([]RecordView, error) {
	tagged := language.Tagged(root)
	seen := make(map[string]bool, len(tagged))
	views := make([]RecordView, 0, len(tagged))

	for _, tn := range tagged {
		info, ok := table.Get(tn.Tag)
		if !ok {
			return nil, fmt.Errorf("%w: %s at %s", ErrUntrackedTag, tn.Tag, tn.PathString())
		}
		if seen[tn.Tag] {
			return nil, fmt.Errorf("%w: %s carried twice", ErrDuplicateID, tn.Tag)
		}
		seen[tn.Tag] = true
		views = append(views, newRecordView(tn, info))
	}

	if len(seen) != table.Len() {
		for _, id := range table.IDs() {
			if !seen[id] {
				return nil, fmt.Errorf("%w: %s", ErrOrphanedEntry, id)
			}
		}
	}
	return views, nil
}

func newRecordView(tn language.TaggedNode, info OverallTypeInfo) RecordView {
	view := RecordView{
		ID:   tn.Tag,
		Kind: tn.Node.Kind().String(),
		Path: tn.PathString(),
	}
	if info.ContainerType != nil {
		view.ContainerType = info.ContainerType.Name()
	}
	if info.FieldDefinition != nil {
		view.Field = info.FieldDefinition.String()
		view.FieldType = info.FieldDefinition.Type().String()
	}
	if info.ArgumentDefinition != nil {
		view.Argument = info.ArgumentDefinition.String()
	}
	if info.InputValueDefinition != nil {
		view.InputValue = info.InputValueDefinition.String()
	}
	if _, isField := tn.Node.(*language.Field); isField {
		if t, ok := info.Transformation(); ok {
			view.Transformation = NewTransformationView(t)
		}
	}
	return view
}

// NewTransformationView flattens a transformation for output
func NewTransformationView(t *transform.FieldTransformation) *TransformationView {
	if m, ok := t.FieldMappingDefinition(); ok {
		return &TransformationView{Kind: "mapping", InputPath: m.InputPath}
	}
	h, _ := t.UnderlyingServiceHydration()
	view := &TransformationView{
		Kind:             "hydration",
		Service:          h.ServiceName,
		FieldPath:        h.FieldPath(),
		ObjectIdentifier: h.ObjectIdentifier,
		BatchSize:        h.BatchSize,
	}
	for _, a := range h.Arguments {
		view.Arguments = append(view.Arguments, ArgumentView{Name: a.Name, Source: a.Source.String()})
	}
	return view
}
