// Package typeinfo records, for every field, argument and value of a query
// tree, the schema elements it resolves to. The answers live in a Table keyed
// by the identifier tagged onto each node, so the tree itself stays a plain
// syntax tree.
package typeinfo

import (
	"fmt"
	"slices"

	"github.com/okra-platform/stitch/internal/graph"
	"github.com/okra-platform/stitch/internal/language"
	"github.com/okra-platform/stitch/internal/transform"
)

// OverallTypeInfo is the resolved schema context of one node. Which members
// are set depends on the node kind:
//
//	field:    ContainerType, FieldDefinition
//	argument: FieldDefinition, ArgumentDefinition
//	value:    ArgumentDefinition, and InputValueDefinition inside input objects
type OverallTypeInfo struct {
	ContainerType        *graph.Type
	FieldDefinition      *graph.Field
	ArgumentDefinition   *graph.Argument
	InputValueDefinition *graph.InputField
}

// Transformation returns the transformation declared on the field definition
func (i OverallTypeInfo) Transformation() (*transform.FieldTransformation, bool) {
	if i.FieldDefinition == nil {
		return nil, false
	}
	return i.FieldDefinition.Transformation()
}

// Table maps identifiers to type info. Entries are only ever appended and
// keep the order in which they were recorded.
type Table struct {
	ids     []string
	entries map[string]OverallTypeInfo
}

func NewTable() *Table {
	return &Table{entries: make(map[string]OverallTypeInfo)}
}

func (t *Table) add(id string, info OverallTypeInfo) error {
	if _, exists := t.entries[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	t.ids = append(t.ids, id)
	t.entries[id] = info
	return nil
}

// Get returns the entry recorded under id
func (t *Table) Get(id string) (OverallTypeInfo, bool) {
	info, ok := t.entries[id]
	return info, ok
}

// Lookup returns the entry for the tag carried by n
func (t *Table) Lookup(n language.Node) (OverallTypeInfo, bool) {
	tag, ok := language.TagOf(n)
	if !ok {
		return OverallTypeInfo{}, false
	}
	return t.Get(tag)
}

func (t *Table) Len() int {
	return len(t.ids)
}

// IDs returns the identifiers in recording order
func (t *Table) IDs() []string {
	return slices.Clone(t.ids)
}
