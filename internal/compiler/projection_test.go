package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weavebridge/internal/ir"
	"github.com/roach88/weavebridge/internal/queryir"
)

func TestProjectFields_Selection(t *testing.T) {
	fields := map[string]ir.Field{
		"title":  ir.ColumnField{Column: "title"},
		"wc":     ir.ColumnField{Column: "wordCount"},
		"id":     ir.ColumnField{Column: "id"},
		"score":  ir.ColumnField{Column: "score"},
		"answer": ir.ColumnField{Column: "answer"},
		"stats": ir.ObjectField{Column: "stats", Query: ir.Query{Fields: map[string]ir.Field{
			"views": ir.ColumnField{Column: "views"},
		}}},
		"tags":          ir.ArrayField{Field: ir.ColumnField{Column: "tags"}},
		"author":        ir.RelationshipField{Relationship: "hasAuthor"},
		"groupedByPath": ir.ColumnField{Column: "groupedBy"},
	}

	sel, plans, err := ProjectFields(fields)
	require.NoError(t, err)

	assert.Equal(t,
		"author: hasAuthor id: _additional { id } score: _additional { score } stats { views } tags title wc: wordCount",
		sel.String())

	assert.Equal(t, ReconstructionMap{
		"title":         {Source: SourceProperty, Name: "title"},
		"wc":            {Source: SourceProperty, Name: "wordCount"},
		"id":            {Source: SourceBuiltin, Name: "id"},
		"score":         {Source: SourceBuiltin, Name: "score"},
		"answer":        {Source: SourceInjected, Name: "answer"},
		"groupedByPath": {Source: SourceInjected, Name: "groupedByPath"},
		"stats": {Source: SourceObject, Name: "stats", Nested: ReconstructionMap{
			"views": {Source: SourceProperty, Name: "views"},
		}},
		"tags":   {Source: SourceProperty, Name: "tags"},
		"author": {Source: SourceRelationship, Name: "hasAuthor"},
	}, plans)

	assert.True(t, plans.HasRelationships())
}

func TestProjectFields_Empty(t *testing.T) {
	sel, plans, err := ProjectFields(nil)
	require.NoError(t, err)
	assert.Empty(t, sel)
	assert.Empty(t, plans)
	assert.False(t, plans.HasRelationships())
}

func TestProjectFields_Deterministic(t *testing.T) {
	fields := map[string]ir.Field{}
	for _, name := range []string{"e", "d", "c", "b", "a", "f", "g"} {
		fields[name] = ir.ColumnField{Column: name}
	}

	first, _, err := ProjectFields(fields)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, _, err := ProjectFields(fields)
		require.NoError(t, err)
		assert.Equal(t, first.String(), again.String())
	}
	assert.Equal(t, "a b c d e f g", first.String())
}

func TestProjectFields_UnknownField(t *testing.T) {
	_, _, err := ProjectFields(map[string]ir.Field{"x": ir.UnknownField{Type: "function"}})
	require.Error(t, err)
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnsupportedExpression))

	_, _, err = ProjectFields(map[string]ir.Field{
		"o": ir.ObjectField{Column: "o", Query: ir.Query{Fields: map[string]ir.Field{"x": nil}}},
	})
	require.Error(t, err)
}

func TestIsInjected(t *testing.T) {
	assert.True(t, IsInjected("generate"))
	assert.True(t, IsInjected("answer"))
	assert.True(t, IsInjected("groupedBy"))
	assert.True(t, IsInjected("my_groupedBy_value"))
	assert.False(t, IsInjected("title"))
	assert.False(t, IsInjected("Answer"))
}

func TestSourceKindString(t *testing.T) {
	assert.Equal(t, "builtin", SourceBuiltin.String())
	assert.Equal(t, "SourceKind(42)", SourceKind(42).String())
}

// synthesizeRow fabricates the native row a store would return for sel,
// filling every leaf with the value produced by leaf.
func synthesizeRow(sel queryir.Selection, leaf func(key string) any) map[string]any {
	row := map[string]any{}
	for _, f := range sel {
		switch {
		case f.Name == queryir.AdditionalEnvelope:
			env := map[string]any{}
			for _, sub := range f.Sub {
				env[sub.Key()] = leaf(f.Key())
			}
			row[f.Key()] = env
		case len(f.Sub) > 0:
			row[f.Key()] = synthesizeRow(f.Sub, leaf)
		default:
			row[f.Key()] = leaf(f.Key())
		}
	}
	return row
}

func TestProjectThenReconstruct_RoundTrip(t *testing.T) {
	fields := map[string]ir.Field{
		"title": ir.ColumnField{Column: "title"},
		"uuid":  ir.ColumnField{Column: "id"},
		"dist":  ir.ColumnField{Column: "distance"},
		"meta": ir.ObjectField{Column: "metadata", Query: ir.Query{Fields: map[string]ir.Field{
			"src": ir.ColumnField{Column: "source"},
		}}},
		"tags": ir.ArrayField{Field: ir.ColumnField{Column: "tags"}},
	}

	sel, plans, err := ProjectFields(fields)
	require.NoError(t, err)

	row := synthesizeRow(sel, func(key string) any { return "v:" + key })
	got := Reconstruct(row, plans)

	assert.Equal(t, ir.Row{
		"title": "v:title",
		"uuid":  "v:uuid",
		"dist":  "v:dist",
		"meta":  map[string]any{"src": "v:src"},
		"tags":  "v:tags",
	}, got)
}
