package typeinfo

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okra-platform/stitch/internal/graph"
	"github.com/okra-platform/stitch/internal/language"
	"github.com/okra-platform/stitch/internal/transform"
)

const petSchema = `
type Query {
  pet(id: ID!): Pet
  pets(filter: PetFilter, ids: [ID!]): [Pet!]!
  search(term: String, meta: JSON): [SearchResult]
  foo: Foo
  bar: Bar
}

scalar JSON

interface Pet {
  name: String
}

type Dog implements Pet {
  name: String
  barkVolume: Int
  owner: Owner
}

type Cat implements Pet {
  name: String
  lives: Int
}

type Owner {
  name: String
}

union SearchResult = Dog | Cat

enum Species {
  DOG
  CAT
}

input PetFilter {
  name: String
  species: Species
  nested: PetFilter
  tags: [String]
}

type Foo {
  a: String
}

type Bar {
  a: String
}
`

// exact compares trees including their tags
var exact = cmp.AllowUnexported(language.Meta{})

func loadSchema(t *testing.T, sdl string, opts ...graph.Option) *graph.Schema {
	t.Helper()
	s, err := graph.Load(sdl, opts...)
	require.NoError(t, err)
	return s
}

func parse(t *testing.T, query string) *language.Document {
	t.Helper()
	doc, err := language.Parse(query)
	require.NoError(t, err)
	return doc
}

func queryType(t *testing.T, s *graph.Schema) *graph.Type {
	t.Helper()
	q, ok := s.RootType("query")
	require.True(t, ok)
	return q
}

// firstField digs out the first field selected by the first operation
func firstField(t *testing.T, doc *language.Document) *language.Field {
	t.Helper()
	op, ok := doc.Operation("")
	require.True(t, ok)
	require.NotEmpty(t, op.SelectionSet.Selections)
	f, ok := op.SelectionSet.Selections[0].(*language.Field)
	require.True(t, ok)
	return f
}

// Test plan:
// 1. End-to-end: { pet { name } } yields two field entries with the right containers
// 2. Argument and value entries for pet(id: 5)
// 3. Input object literals narrow the input context, scalars keep it
// 4. Fragments and inline fragments resolve against their type conditions
// 5. Sibling branches do not leak context
// 6. Bijection between tags and table entries
// 7. Determinism and immutability of the input tree
// 8. Fatal resolution failures return nothing
// 9. Concurrent recordings over one schema

func TestRecord_EndToEnd(t *testing.T) {
	// Test: the minimal schema and query produce exactly two records
	schema := loadSchema(t, `
type Query { pet: Pet }
type Pet { name: String }
`)
	doc := parse(t, `{ pet { name } }`)
	field := firstField(t, doc)

	r := NewRecorder()
	out, table, err := Record(r, field, schema, queryType(t, schema))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	petTag, ok := language.TagOf(out)
	require.True(t, ok)
	petInfo, ok := table.Get(petTag)
	require.True(t, ok)
	assert.Equal(t, "Query", petInfo.ContainerType.Name())
	assert.Equal(t, "pet", petInfo.FieldDefinition.Name())
	assert.Nil(t, petInfo.ArgumentDefinition)
	assert.Nil(t, petInfo.InputValueDefinition)

	name := out.SelectionSet.Selections[0].(*language.Field)
	nameInfo, ok := table.Lookup(name)
	require.True(t, ok)
	assert.Equal(t, "Pet", nameInfo.ContainerType.Name())
	assert.Equal(t, "name", nameInfo.FieldDefinition.Name())

	// Test: only the two fields are tagged
	tagged := language.Tagged(out)
	require.Len(t, tagged, 2)
	assert.Equal(t, []string{"pet"}, tagged[0].Path)
	assert.Equal(t, []string{"pet", "name"}, tagged[1].Path)

	// Test: identifier resolves to the same schema objects the graph hands out
	petDef, _ := queryType(t, schema).Field("pet")
	assert.Same(t, petDef, petInfo.FieldDefinition)
}

func TestRecord_ArgumentAndValue(t *testing.T) {
	schema := loadSchema(t, petSchema)
	doc := parse(t, `{ pet(id: 5) { name } }`)

	out, table, err := Record(NewRecorder(), firstField(t, doc), schema, queryType(t, schema))
	require.NoError(t, err)
	// pet, id, 5, name
	assert.Equal(t, 4, table.Len())

	arg := out.Arguments[0]
	argInfo, ok := table.Lookup(arg)
	require.True(t, ok)
	assert.Nil(t, argInfo.ContainerType)
	assert.Equal(t, "pet", argInfo.FieldDefinition.Name())
	assert.Equal(t, "id", argInfo.ArgumentDefinition.Name())
	assert.Nil(t, argInfo.InputValueDefinition)

	valueInfo, ok := table.Lookup(arg.Value)
	require.True(t, ok)
	assert.Nil(t, valueInfo.ContainerType)
	assert.Nil(t, valueInfo.FieldDefinition)
	assert.Same(t, argInfo.ArgumentDefinition, valueInfo.ArgumentDefinition)
	assert.Nil(t, valueInfo.InputValueDefinition)

	// Test: the argument is recorded before its value
	ids := table.IDs()
	argTag, _ := language.TagOf(arg)
	valueTag, _ := language.TagOf(arg.Value)
	assert.Less(t, indexOf(ids, argTag), indexOf(ids, valueTag))
}

func TestRecord_InputObjectLiteral(t *testing.T) {
	schema := loadSchema(t, petSchema)
	doc := parse(t, `{ pets(filter: {name: "Rex", nested: {species: DOG, tags: ["a", "b"]}}, ids: [1, 2]) { name } }`)

	out, table, err := Record(NewRecorder(), firstField(t, doc), schema, queryType(t, schema))
	require.NoError(t, err)

	byPath := make(map[string]OverallTypeInfo)
	for _, tn := range language.Tagged(out) {
		info, ok := table.Get(tn.Tag)
		require.True(t, ok)
		byPath[tn.PathString()] = info
	}

	// Test: the object literal itself sits directly under the argument
	root := byPath["pets.filter"]
	require.NotNil(t, root.ArgumentDefinition)
	assert.Equal(t, "filter", root.ArgumentDefinition.Name())

	// Test: nested literals carry the innermost input field
	cases := map[string]string{
		"pets.filter.name":           "PetFilter.name",
		"pets.filter.nested":         "PetFilter.nested",
		"pets.filter.nested.species": "PetFilter.species",
		"pets.filter.nested.tags":    "PetFilter.tags",
		"pets.filter.nested.tags.0":  "PetFilter.tags",
		"pets.filter.nested.tags.1":  "PetFilter.tags",
	}
	for path, want := range cases {
		info, ok := byPath[path]
		require.True(t, ok, path)
		require.NotNil(t, info.InputValueDefinition, path)
		assert.Equal(t, want, info.InputValueDefinition.String(), path)
		assert.Equal(t, "filter", info.ArgumentDefinition.Name(), path)
	}

	// Test: list items under a scalar list argument have no input field
	for _, path := range []string{"pets.ids", "pets.ids.0", "pets.ids.1"} {
		info, ok := byPath[path]
		require.True(t, ok, path)
		assert.Equal(t, "ids", info.ArgumentDefinition.Name())
		assert.Nil(t, info.InputValueDefinition)
	}
}

func TestRecord_ObjectLiteralForCustomScalar(t *testing.T) {
	// Test: object literals given to a scalar keep the argument context
	schema := loadSchema(t, petSchema)
	doc := parse(t, `{ search(meta: {anything: {goes: 1}}) { __typename } }`)

	out, table, err := Record(NewRecorder(), firstField(t, doc), schema, queryType(t, schema))
	require.NoError(t, err)

	for _, tn := range language.Tagged(out) {
		info, _ := table.Get(tn.Tag)
		if _, isValue := tn.Node.(language.Value); !isValue {
			continue
		}
		assert.Equal(t, "meta", info.ArgumentDefinition.Name(), tn.PathString())
		assert.Nil(t, info.InputValueDefinition, tn.PathString())
	}
	// search, meta, {anything}, {goes}, 1
	assert.Equal(t, 5, table.Len())
}

func TestRecord_InlineFragmentTypeCondition(t *testing.T) {
	// Test: fields inside "... on Dog" resolve against Dog
	schema := loadSchema(t, petSchema)
	doc := parse(t, `{ pet(id: 1) { name ... on Dog { barkVolume owner { name } } ... { name } } }`)

	out, table, err := Record(NewRecorder(), firstField(t, doc), schema, queryType(t, schema))
	require.NoError(t, err)

	containers := make(map[string]string)
	for _, tn := range language.Tagged(out) {
		info, _ := table.Get(tn.Tag)
		if info.ContainerType != nil {
			containers[tn.PathString()] = info.ContainerType.Name()
		}
	}
	assert.Equal(t, map[string]string{
		"pet":                       "Query",
		"pet.name":                  "Pet",
		"pet.... on Dog.barkVolume": "Dog",
		"pet.... on Dog.owner":      "Dog",
		"pet.... on Dog.owner.name": "Owner",
		"pet.....name":              "Pet",
	}, containers)
}

func TestRecord_FragmentScoping(t *testing.T) {
	// Test: field a resolves against Foo in one fragment and Bar in the other
	schema := loadSchema(t, petSchema)
	doc := parse(t, `
query Q { foo { ...F } bar { ...B } }
fragment F on Foo { a }
fragment B on Bar { a }
`)

	out, table, err := Record(NewRecorder(), doc, schema, nil)
	require.NoError(t, err)

	containers := make(map[string]string)
	for _, tn := range language.Tagged(out) {
		info, _ := table.Get(tn.Tag)
		containers[tn.PathString()] = info.ContainerType.Name()
	}
	assert.Equal(t, "Foo", containers["fragment F.a"])
	assert.Equal(t, "Bar", containers["fragment B.a"])
	assert.Equal(t, "Query", containers["query Q.foo"])
	assert.Equal(t, "Query", containers["query Q.bar"])

	fooA, _ := table.Lookup(fragmentField(t, out, "F"))
	barA, _ := table.Lookup(fragmentField(t, out, "B"))
	assert.NotSame(t, fooA.ContainerType, barA.ContainerType)
	assert.NotSame(t, fooA.FieldDefinition, barA.FieldDefinition)
}

func TestRecord_StandaloneFragment(t *testing.T) {
	// Test: a fragment definition can be recorded without a root type
	schema := loadSchema(t, petSchema)
	doc := parse(t, `fragment D on Dog { name owner { name } }`)
	frag, ok := doc.Fragment("D")
	require.True(t, ok)

	out, table, err := Record(NewRecorder(), frag, schema, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, "D", out.Name)
}

func TestRecord_SelectionSetWithRoot(t *testing.T) {
	// Test: a bare selection set resolves against the given root
	schema := loadSchema(t, petSchema)
	doc := parse(t, `{ name lives }`)
	op, _ := doc.Operation("")

	cat, ok := schema.Type("Cat")
	require.True(t, ok)
	out, table, err := Record(NewRecorder(), op.SelectionSet, schema, cat)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	for _, sel := range out.Selections {
		info, ok := table.Lookup(sel)
		require.True(t, ok)
		assert.Same(t, cat, info.ContainerType)
	}
}

func TestRecord_TypenameIsSkipped(t *testing.T) {
	schema := loadSchema(t, petSchema)
	doc := parse(t, `{ pet(id: 1) { __typename name } }`)

	out, table, err := Record(NewRecorder(), firstField(t, doc), schema, queryType(t, schema))
	require.NoError(t, err)
	// pet, id, 1, name
	assert.Equal(t, 4, table.Len())

	typename := out.SelectionSet.Selections[0]
	_, tagged := language.TagOf(typename)
	assert.False(t, tagged)
}

func TestRecord_DirectivesAndVariables(t *testing.T) {
	// Test: directive arguments are not recorded, variable values are
	schema := loadSchema(t, petSchema)
	doc := parse(t, `query Q($id: ID! = 3, $skip: Boolean!) { pet(id: $id) @skip(if: $skip) { name @include(if: true) } }`)

	out, table, err := Record(NewRecorder(), doc, schema, nil)
	require.NoError(t, err)
	// pet, id, $id, name
	assert.Equal(t, 4, table.Len())

	for _, tn := range language.Tagged(out) {
		assert.NotContains(t, tn.PathString(), "@")
		assert.NotContains(t, tn.PathString(), "$")
	}

	op := out.Definitions[0].(*language.OperationDefinition)
	pet := op.SelectionSet.Selections[0].(*language.Field)
	info, ok := table.Lookup(pet.Arguments[0].Value)
	require.True(t, ok)
	assert.Equal(t, "id", info.ArgumentDefinition.Name())
	assert.IsType(t, &language.Variable{}, pet.Arguments[0].Value)
}

func TestRecord_Bijection(t *testing.T) {
	schema := loadSchema(t, petSchema)
	queries := []string{
		`{ pet(id: 1) { name } }`,
		`{ pets(filter: {name: "x", nested: {tags: ["a"]}}, ids: [1, 2, 3]) { name ... on Cat { lives } } }`,
		`query A { foo { a } } query B { bar { a } }`,
		`{ search(term: null) { ... on Dog { owner { name } } ... on Cat { lives } } }`,
	}

	for _, q := range queries {
		out, table, err := NewRecorder().Record(parse(t, q), schema, nil)
		require.NoError(t, err, q)

		views, err := BuildReport(out, table)
		require.NoError(t, err, q)
		assert.Len(t, views, table.Len(), q)

		tags := make([]string, 0, len(views))
		for _, tn := range language.Tagged(out) {
			tags = append(tags, tn.Tag)
		}
		assert.ElementsMatch(t, table.IDs(), tags, q)
	}
}

func TestRecord_DeterministicAndImmutable(t *testing.T) {
	schema := loadSchema(t, petSchema)
	query := `{ pets(filter: {name: "x"}) { name ... on Dog { owner { name } } } }`
	doc := parse(t, query)
	pristine := parse(t, query)

	r := NewRecorder(WithIDs(NewUUIDGenerator))
	first, t1, err := r.Record(doc, schema, nil)
	require.NoError(t, err)
	second, t2, err := r.Record(doc, schema, nil)
	require.NoError(t, err)

	// Test: identical structure, different identifiers
	ignoreTags := cmp.Options{cmpopts.IgnoreTypes(language.Meta{})}
	assert.Empty(t, cmp.Diff(first, second, ignoreTags))
	assert.True(t, language.Equal(first, second))
	assert.NotEqual(t, t1.IDs(), t2.IDs())

	// Test: same resolved schema objects in the same order
	for i, id := range t1.IDs() {
		a, _ := t1.Get(id)
		b, _ := t2.Get(t2.IDs()[i])
		assert.Equal(t, a, b)
	}

	// Test: input tree untouched
	assert.Empty(t, cmp.Diff(pristine, doc, exact))
	assert.Empty(t, language.Tagged(doc))

	// Test: the counter makes the identifiers reproducible too
	c1, _, err := NewRecorder().Record(doc, schema, nil)
	require.NoError(t, err)
	c2, _, err := NewRecorder().Record(doc, schema, nil)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(c1, c2, exact))
}

func TestRecord_ReRecordingReplacesTags(t *testing.T) {
	schema := loadSchema(t, petSchema)
	doc := parse(t, `{ pet(id: 1) { name } }`)

	r := NewRecorder(WithIDs(NewUUIDGenerator))
	once, _, err := r.Record(doc, schema, nil)
	require.NoError(t, err)
	twice, table, err := r.Record(once, schema, nil)
	require.NoError(t, err)

	_, err = BuildReport(twice, table)
	assert.NoError(t, err)
}

func TestRecord_Failures(t *testing.T) {
	schema := loadSchema(t, petSchema)
	query := queryType(t, schema)

	tests := []struct {
		name  string
		query string
		root  *graph.Type
		want  error
	}{
		{"unknown field", `{ pet(id: 1) { color } }`, query, ErrUnknownField},
		{"unknown argument", `{ pet(name: "x") { name } }`, query, ErrUnknownArgument},
		{"unknown input field", `{ pets(filter: {color: "red"}) { name } }`, query, ErrUnknownInputField},
		{"unknown type condition", `{ pet(id: 1) { ... on Lizard { name } } }`, query, ErrUnknownType},
		{"unknown fragment type condition", `fragment F on Lizard { name }`, nil, ErrUnknownType},
		{"unknown fragment type condition in operation", `{ pet(id: 1) { ...F } } fragment F on Lizard { name }`, query, ErrUnknownType},
		{"fields on a union", `{ search { name } }`, query, ErrNotFieldsContainer},
		{"fields on a scalar", `{ foo { a { b } } }`, query, ErrNotFieldsContainer},
		{"missing mutation root", `mutation { pet(id: 1) { name } }`, query, ErrMissingRootType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.query)
			out, table, err := NewRecorder().Record(doc, schema, tt.root)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
			assert.Nil(t, out)
			assert.Nil(t, table)

			var resErr *ResolutionError
			assert.True(t, errors.As(err, &resErr))
		})
	}
}

func TestRecord_MissingContext(t *testing.T) {
	schema := loadSchema(t, petSchema)
	doc := parse(t, `{ pet(id: 1) { name } }`)
	pet := firstField(t, doc)

	// Test: top-level fields without a root type
	_, _, err := NewRecorder().Record(pet, schema, nil)
	assert.ErrorIs(t, err, ErrMissingRootType)

	// Test: a standalone argument or value has no field to resolve against
	_, _, err = NewRecorder().Record(pet.Arguments[0], schema, queryType(t, schema))
	assert.ErrorIs(t, err, ErrMissingContext)
	_, _, err = NewRecorder().Record(pet.Arguments[0].Value, schema, queryType(t, schema))
	assert.ErrorIs(t, err, ErrMissingContext)

	// Test: the given root is used for top-level fields
	dog, _ := schema.Type("Dog")
	_, _, err = NewRecorder().Record(pet, schema, dog)
	assert.ErrorIs(t, err, ErrUnknownField)

	// Test: nil inputs
	_, _, err = NewRecorder().Record(nil, schema, nil)
	assert.ErrorIs(t, err, ErrNilNode)
	_, _, err = NewRecorder().Record(pet, nil, nil)
	assert.ErrorIs(t, err, ErrNilSchema)
}

func TestRecord_UnsupportedNode(t *testing.T) {
	schema := loadSchema(t, petSchema)
	tr, err := transform.NewFieldMapping(transform.FieldMappingDefinition{InputPath: []string{"a"}})
	require.NoError(t, err)

	_, _, err = NewRecorder().Record(tr, schema, nil)
	assert.ErrorIs(t, err, ErrUnsupportedNode)
}

func TestRecord_ResolutionErrorMessage(t *testing.T) {
	schema := loadSchema(t, petSchema)
	_, _, err := NewRecorder().Record(parse(t, `{ pet(id: 1) { color } }`), schema, nil)
	require.Error(t, err)
	assert.Equal(t, `unknown field "color" on Pet at query.pet.color`, err.Error())
}

func TestRecord_LogsDebugEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	schema := loadSchema(t, petSchema)

	r := NewRecorder(WithLogger(logger))
	_, _, err := r.Record(parse(t, `{ pet(id: 1) { name } }`), schema, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"records":4`)
	assert.Contains(t, buf.String(), "recorded type info")

	buf.Reset()
	_, _, err = r.Record(parse(t, `{ nope }`), schema, nil)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "type info recording failed")
}

func TestRecord_Concurrent(t *testing.T) {
	// Test: one recorder and one schema serve parallel calls
	schema := loadSchema(t, petSchema)
	doc := parse(t, `{ pets(ids: [1, 2]) { name ... on Dog { owner { name } } } }`)
	r := NewRecorder()

	want, _, err := r.Record(doc, schema, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]language.Node, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, _, err := r.Record(doc, schema, nil)
			if err == nil {
				results[i] = out
			}
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Empty(t, cmp.Diff(want, got, exact))
	}
}

func TestRecord_TransformationLookup(t *testing.T) {
	mapping, err := transform.NewFieldMapping(transform.FieldMappingDefinition{InputPath: []string{"details", "name"}})
	require.NoError(t, err)
	schema := loadSchema(t, petSchema, graph.WithTransformations(map[graph.Coordinate]*transform.FieldTransformation{
		{Type: "Dog", Field: "name"}: mapping,
	}))

	out, table, err := NewRecorder().Record(parse(t, `{ pet(id: 1) { name ... on Dog { name } } }`), schema, nil)
	require.NoError(t, err)

	views, err := BuildReport(out, table)
	require.NoError(t, err)

	var transformed []string
	for _, v := range views {
		if v.Transformation != nil {
			transformed = append(transformed, v.Path)
			assert.Equal(t, "mapping", v.Transformation.Kind)
			assert.Equal(t, []string{"details", "name"}, v.Transformation.InputPath)
		}
	}
	assert.Equal(t, []string{"query.pet.... on Dog.name"}, transformed)
}

func fragmentField(t *testing.T, doc *language.Document, name string) *language.Field {
	t.Helper()
	frag, ok := doc.Fragment(name)
	require.True(t, ok)
	f, ok := frag.SelectionSet.Selections[0].(*language.Field)
	require.True(t, ok)
	return f
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
