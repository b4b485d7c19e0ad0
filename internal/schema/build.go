package schema

import (
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/okra-platform/stitch/internal/graph"
)

// directivePrelude declares the directives the preprocessor emits. It is
// loaded as a separate built-in source so positions in the overall schema
// still match the file it came from.
const directivePrelude = `
directive @service(name: String!) repeatable on OBJECT | INTERFACE | UNION | ENUM | INPUT_OBJECT | SCALAR
directive @renamed(from: String!) on FIELD_DEFINITION
directive @hydrated(
  service: String!
  field: String!
  arguments: [HydrationArgument!]!
  identifiedBy: String
  batchSize: Int
) on FIELD_DEFINITION

input HydrationArgument {
  name: String!
  value: String!
}
`

// Build validates the definition's SDL and returns the schema graph with its
// transformations attached
func Build(def *Definition, name string) (*graph.Schema, error) {
	if name == "" {
		name = "overall.graphql"
	}
	source, err := gqlparser.LoadSchema(
		&ast.Source{Name: "stitch_directives.graphql", Input: directivePrelude, BuiltIn: true},
		&ast.Source{Name: name, Input: def.SDL},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", name, err)
	}
	return graph.New(source, graph.WithTransformations(def.Transformations))
}

// Load parses an overall schema file and builds its graph
func Load(name, input string) (*Definition, *graph.Schema, error) {
	def, err := ParseSchema(input)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse schema %s: %w", name, err)
	}
	s, err := Build(def, name)
	if err != nil {
		return nil, nil, err
	}
	return def, s, nil
}
