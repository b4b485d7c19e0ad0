package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test plan:
// 1. WithTag returns a tagged copy and leaves the original untouched
// 2. Tags are ignored by structural equality
// 3. Tagged finds tagged nodes with their paths, including list indexes

func TestWithTag_Copy(t *testing.T) {
	child := &Field{Name: "name"}
	f := &Field{Name: "pet", Alias: "p", SelectionSet: &SelectionSet{Selections: []Selection{child}}}

	tagged := WithTag(f, "1")
	require.NotSame(t, f, tagged)
	assert.Equal(t, "1", tagged.Tag())
	assert.Empty(t, f.Tag())

	// Test: children are shared, not copied
	assert.Same(t, f.SelectionSet, tagged.SelectionSet)

	_, ok := TagOf(f)
	assert.False(t, ok)
	tag, ok := TagOf(tagged)
	assert.True(t, ok)
	assert.Equal(t, "1", tag)

	// Test: retagging replaces the tag
	assert.Equal(t, "2", WithTag(tagged, "2").Tag())

	// Test: nodes without metadata never report a tag
	_, ok = TagOf(&SelectionSet{})
	assert.False(t, ok)
}

func TestWithTag_Values(t *testing.T) {
	values := []Value{
		&IntValue{Raw: "1"},
		&FloatValue{Raw: "1.5"},
		&StringValue{Raw: "s"},
		&BooleanValue{Value: true},
		&NullValue{},
		&EnumValue{Name: "RED"},
		&Variable{Name: "id"},
		&ListValue{Values: []Value{&IntValue{Raw: "1"}}},
		&ObjectValue{Fields: []*ObjectField{{Name: "a", Value: &IntValue{Raw: "1"}}}},
	}
	for _, v := range values {
		tagged := WithTag(v, "x")
		assert.Equal(t, v.Kind(), tagged.Kind())
		assert.Equal(t, "x", tagged.Tag())
		assert.Empty(t, v.Tag())
		assert.True(t, Equal(v, tagged), v.Kind().String())
	}
}

func TestTagged_Paths(t *testing.T) {
	list := WithTag[Value](&ListValue{Values: []Value{
		WithTag[Value](&IntValue{Raw: "1"}, "v0"),
		WithTag[Value](&IntValue{Raw: "2"}, "v1"),
	}}, "list")
	filter := WithTag[Value](&ObjectValue{Fields: []*ObjectField{
		{Name: "name", Value: WithTag[Value](&StringValue{Raw: "x"}, "name")},
	}}, "filter-value")
	doc := &Document{Definitions: []Definition{
		&OperationDefinition{
			Operation: OperationQuery,
			Name:      "Q",
			SelectionSet: &SelectionSet{Selections: []Selection{
				WithTag(&Field{
					Name:  "pets",
					Alias: "all",
					Arguments: []*Argument{
						WithTag(&Argument{Name: "ids", Value: list}, "ids"),
						{Name: "filter", Value: filter},
					},
					SelectionSet: &SelectionSet{Selections: []Selection{
						&InlineFragment{TypeCondition: "Dog", SelectionSet: &SelectionSet{Selections: []Selection{
							WithTag(&Field{Name: "barkVolume"}, "bark"),
						}}},
					}},
				}, "pets"),
			}},
		},
	}}

	got := make(map[string]string)
	var order []string
	for _, tn := range Tagged(doc) {
		got[tn.Tag] = tn.PathString()
		order = append(order, tn.Tag)
	}

	assert.Equal(t, []string{"pets", "ids", "list", "v0", "v1", "filter-value", "name", "bark"}, order)
	assert.Equal(t, map[string]string{
		"pets":         "query Q.all",
		"ids":          "query Q.all.ids",
		"list":         "query Q.all.ids",
		"v0":           "query Q.all.ids.0",
		"v1":           "query Q.all.ids.1",
		"filter-value": "query Q.all.filter",
		"name":         "query Q.all.filter.name",
		"bark":         "query Q.all.... on Dog.barkVolume",
	}, got)
}

func TestPathSegment(t *testing.T) {
	cases := []struct {
		node Node
		want string
		ok   bool
	}{
		{&OperationDefinition{Operation: OperationMutation}, "mutation", true},
		{&FragmentDefinition{Name: "F"}, "fragment F", true},
		{&InlineFragment{}, "...", true},
		{&Directive{Name: "skip"}, "@skip", true},
		{&VariableDefinition{Variable: "id"}, "$id", true},
		{&SelectionSet{}, "", false},
		{&IntValue{}, "", false},
	}
	for _, c := range cases {
		got, ok := PathSegment(c.node)
		assert.Equal(t, c.ok, ok, c.node.Kind().String())
		assert.Equal(t, c.want, got)
	}
}
