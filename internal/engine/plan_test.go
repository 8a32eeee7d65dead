package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weavebridge/internal/compiler"
	"github.com/roach88/weavebridge/internal/ir"
	"github.com/roach88/weavebridge/internal/querygql"
	"github.com/roach88/weavebridge/internal/queryir"
)

func column(name ...string) ir.ComparisonColumn {
	return ir.ComparisonColumn{Name: name}
}

func textOp(op ir.BinaryOperator, name, value string) ir.BinaryOp {
	return ir.BinaryOp{
		Column:   column(name),
		Operator: op,
		Value:    ir.ScalarComparison{Value: value, ValueType: ir.ScalarText},
	}
}

func intOp(op ir.BinaryOperator, name string, value int) ir.BinaryOp {
	return ir.BinaryOp{
		Column:   column(name),
		Operator: op,
		Value:    ir.ScalarComparison{Value: value, ValueType: ir.ScalarInt},
	}
}

func articles(q ir.Query) *ir.QueryRequest {
	return &ir.QueryRequest{
		Target: ir.Target{Type: "table", Name: []string{"Article"}},
		Query:  q,
	}
}

func titleFields() map[string]ir.Field {
	return map[string]ir.Field{"title": ir.ColumnField{Column: "title"}}
}

func intPtr(n int) *int {
	return &n
}

func renderGet(t *testing.T, q queryir.GetQuery) string {
	t.Helper()
	out, err := querygql.NewRenderer().RenderGet(q)
	require.NoError(t, err)
	return out
}

func TestPlanQuery_ByKey(t *testing.T) {
	req := articles(ir.Query{
		Fields: map[string]ir.Field{
			"title":  ir.ColumnField{Column: "title"},
			"vector": ir.ColumnField{Column: "vector"},
		},
		Where: textOp(ir.OpEqual, "id", "0f8fad5b-d9cb-469f-a165-70867728950e"),
	})

	plan, err := PlanQuery(req)
	require.NoError(t, err)

	assert.Equal(t, StrategyByKey, plan.Strategy)
	assert.Equal(t, "Article", plan.Class)
	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", plan.ID)
	assert.True(t, plan.WithVector)
	assert.Empty(t, plan.Queries)
}

func TestPlanQuery_ByKeyWithoutVector(t *testing.T) {
	plan, err := PlanQuery(articles(ir.Query{
		Fields: titleFields(),
		Where:  textOp(ir.OpEqual, "id", "abc"),
	}))
	require.NoError(t, err)
	assert.Equal(t, StrategyByKey, plan.Strategy)
	assert.False(t, plan.WithVector)
}

func TestPlanQuery_NotByKey(t *testing.T) {
	testCases := []struct {
		name  string
		where ir.Expression
	}{
		{"other column", textOp(ir.OpEqual, "title", "abc")},
		{"other operator", textOp(ir.OpGreaterThan, "id", "abc")},
		{"nested id", ir.BinaryOp{Column: column("author", "id"), Operator: ir.OpEqual,
			Value: ir.ScalarComparison{Value: "abc", ValueType: ir.ScalarText}}},
		{"wrapped in and", ir.And{Expressions: []ir.Expression{textOp(ir.OpEqual, "id", "abc")}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := PlanQuery(articles(ir.Query{Fields: titleFields(), Where: tc.where}))
			require.NoError(t, err)
			assert.Equal(t, StrategySingle, plan.Strategy)
		})
	}
}

func TestPlanQuery_ByKeyRejectsRelationships(t *testing.T) {
	_, err := PlanQuery(articles(ir.Query{
		Fields: map[string]ir.Field{"author": ir.RelationshipField{Relationship: "hasAuthor"}},
		Where:  textOp(ir.OpEqual, "id", "abc"),
	}))
	require.Error(t, err)
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnsupportedExpression))
}

func TestPlanQuery_Single(t *testing.T) {
	testCases := []struct {
		name  string
		query ir.Query
		want  string
	}{
		{
			name:  "no filter",
			query: ir.Query{Fields: titleFields()},
			want:  `{ Get { Article { title } } }`,
		},
		{
			name:  "empty projection selects id",
			query: ir.Query{},
			want:  `{ Get { Article { _additional { id } } } }`,
		},
		{
			name: "bm25 with properties and residual filter",
			query: ir.Query{
				Fields: titleFields(),
				Where: ir.And{Expressions: []ir.Expression{
					textOp(ir.OpMatchText, "title", "rocket"),
					textOp(ir.OpWithProperties, "title", "title, body"),
					intOp(ir.OpGreaterThan, "wordCount", 100),
				}},
				Limit:  intPtr(10),
				Offset: intPtr(0),
			},
			want: `{ Get { Article(where: {path: ["wordCount"], operator: GreaterThan, valueInt: 100}, ` +
				`bm25: {query: "rocket", properties: ["title", "body"]}, limit: 10) { title } } }`,
		},
		{
			name: "nearText with autocut",
			query: ir.Query{
				Fields: titleFields(),
				Where: ir.And{Expressions: []ir.Expression{
					textOp(ir.OpNearText, "title", "space travel"),
					intOp(ir.OpAutocut, "title", 1),
				}},
			},
			want: `{ Get { Article(nearText: {concepts: ["space travel"]}, autocut: 1) { title } } }`,
		},
		{
			name: "ask injects answer",
			query: ir.Query{
				Fields: map[string]ir.Field{
					"title":  ir.ColumnField{Column: "title"},
					"answer": ir.ColumnField{Column: "answer"},
				},
				Where: textOp(ir.OpAskQuestion, "body", "who flew first?"),
			},
			want: `{ Get { Article(ask: {question: "who flew first?"}) { title ` +
				`_additional { answer { hasAnswer property result startPosition endPosition } } } } }`,
		},
		{
			name: "generative injects generate",
			query: ir.Query{
				Fields: titleFields(),
				Where:  textOp(ir.OpGenerativeSearch, "body", "summarize"),
			},
			want: `{ Get { Article(hybrid: {query: "summarize"}) { title ` +
				`_additional { generate(groupedResult: {task: "summarize"}) { groupedResult error } } } } }`,
		},
		{
			name: "negation pushed down",
			query: ir.Query{
				Fields: titleFields(),
				Where:  ir.Not{Expression: textOp(ir.OpEqual, "title", "draft")},
			},
			want: `{ Get { Article(where: {operator: Or, operands: [` +
				`{path: ["title"], operator: NotEqual, valueText: "draft"}, ` +
				`{path: ["title"], operator: IsNull, valueBoolean: true}]}) { title } } }`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := PlanQuery(articles(tc.query))
			require.NoError(t, err)
			require.Equal(t, StrategySingle, plan.Strategy)
			require.Len(t, plan.Queries, 1)
			assert.Equal(t, tc.want, renderGet(t, plan.Queries[0].Get))
		})
	}
}

func TestPlanQuery_Foreach(t *testing.T) {
	req := articles(ir.Query{
		Fields: titleFields(),
		Where:  intOp(ir.OpGreaterThan, "wordCount", 100),
	})
	req.Foreach = []map[string]ir.ScalarValue{
		{"author": {Value: "ada", ValueType: ir.ScalarText}, "year": {Value: 1843, ValueType: ir.ScalarInt}},
		{"author": {Value: "grace", ValueType: ir.ScalarText}},
	}

	plan, err := PlanQuery(req)
	require.NoError(t, err)
	require.Equal(t, StrategyForeach, plan.Strategy)
	require.Len(t, plan.Queries, 2)

	assert.Equal(t, queryir.Group{Operator: queryir.OpAnd, Operands: []queryir.Filter{
		queryir.Compare{Operator: queryir.OpGreaterThan, Path: []string{"wordCount"}, Value: queryir.Int(100)},
		queryir.Group{Operator: queryir.OpAnd, Operands: []queryir.Filter{
			queryir.Equal([]string{"author"}, queryir.Text("ada")),
			queryir.Equal([]string{"year"}, queryir.Int(1843)),
		}},
	}}, plan.Queries[0].Get.Where)

	assert.Equal(t, queryir.Group{Operator: queryir.OpAnd, Operands: []queryir.Filter{
		queryir.Compare{Operator: queryir.OpGreaterThan, Path: []string{"wordCount"}, Value: queryir.Int(100)},
		queryir.Equal([]string{"author"}, queryir.Text("grace")),
	}}, plan.Queries[1].Get.Where)
}

func TestPlanQuery_ForeachWithoutFilter(t *testing.T) {
	req := articles(ir.Query{Fields: titleFields()})
	req.Foreach = []map[string]ir.ScalarValue{{"author": {Value: "ada", ValueType: ir.ScalarText}}}

	plan, err := PlanQuery(req)
	require.NoError(t, err)
	assert.Equal(t, queryir.Equal([]string{"author"}, queryir.Text("ada")), plan.Queries[0].Get.Where)
}

func TestPlanQuery_ForeachBadScalarType(t *testing.T) {
	req := articles(ir.Query{Fields: titleFields()})
	req.Foreach = []map[string]ir.ScalarValue{{"author": {Value: "ada", ValueType: "currency"}}}

	_, err := PlanQuery(req)
	require.Error(t, err)
	assert.True(t, ir.IsCode(err, ir.ErrCodeUnknownScalarType))
}

func TestPlanQuery_Aggregates(t *testing.T) {
	plan, err := PlanQuery(articles(ir.Query{
		Fields: titleFields(),
		Where: ir.And{Expressions: []ir.Expression{
			textOp(ir.OpWithGroupedBy, "title", "category"),
			textOp(ir.OpEqual, "lang", "en"),
		}},
		Aggregates: map[string]json.RawMessage{
			ir.AggregateCount:         json.RawMessage(`{"type":"star_count"}`),
			ir.AggregateGroupByVector: json.RawMessage(`{"type":"star_count"}`),
			"unrelated":               json.RawMessage(`{}`),
		},
	}))
	require.NoError(t, err)
	require.Len(t, plan.Queries, 1)

	aggs := plan.Queries[0].Aggregates
	require.Len(t, aggs, 2)

	where := queryir.Equal([]string{"lang"}, queryir.Text("en"))

	assert.Equal(t, ir.AggregateCount, aggs[0].Alias)
	assert.Equal(t, where, aggs[0].Query.Where)
	assert.Empty(t, aggs[0].Query.GroupBy)
	assert.Equal(t, "meta { count }", aggs[0].Query.Selection.String())

	assert.Equal(t, ir.AggregateGroupByVector, aggs[1].Alias)
	assert.Equal(t, []string{"category"}, aggs[1].Query.GroupBy)
	assert.Equal(t, where, aggs[1].Query.Where)
	assert.Equal(t, "groupedBy { path value } meta { count }", aggs[1].Query.Selection.String())
}

func TestPlanQuery_GroupByWithoutModifier(t *testing.T) {
	plan, err := PlanQuery(articles(ir.Query{
		Fields:     titleFields(),
		Aggregates: map[string]json.RawMessage{ir.AggregateGroupByVector: json.RawMessage(`{}`)},
	}))
	require.NoError(t, err)

	agg := plan.Queries[0].Aggregates[0].Query
	assert.Empty(t, agg.GroupBy)
	assert.Equal(t, "meta { count }", agg.Selection.String())
}

func TestPlanQuery_Warnings(t *testing.T) {
	plan, err := PlanQuery(articles(ir.Query{
		Fields: titleFields(),
		Where: ir.And{Expressions: []ir.Expression{
			intOp(ir.OpAutocut, "title", 2),
			ir.BinaryArrayOp{Column: column("tag"), Operator: ir.OpIn, ValueType: ir.ScalarText},
		}},
	}))
	require.NoError(t, err)

	assert.Contains(t, plan.Warnings, "in on tag has no values and matches every object")
	assert.Contains(t, plan.Warnings, "autocut ignored: no search directive")
}

func TestPlanQuery_Errors(t *testing.T) {
	testCases := []struct {
		name string
		req  *ir.QueryRequest
		code ir.ErrorCode
	}{
		{"nil request", nil, ir.ErrCodeInvalidRequest},
		{
			"function target",
			&ir.QueryRequest{Target: ir.Target{Type: "function", Name: []string{"f"}}},
			ir.ErrCodeInvalidTarget,
		},
		{
			"empty table name",
			&ir.QueryRequest{Target: ir.Target{Type: "table"}},
			ir.ErrCodeInvalidTarget,
		},
		{
			"unknown field",
			articles(ir.Query{Fields: map[string]ir.Field{"x": ir.UnknownField{Type: "function"}}}),
			ir.ErrCodeUnsupportedExpression,
		},
		{
			"negated directive",
			articles(ir.Query{Fields: titleFields(), Where: ir.Not{Expression: textOp(ir.OpNearText, "title", "x")}}),
			ir.ErrCodeUnsupportedExpression,
		},
		{
			"unknown operator",
			articles(ir.Query{Fields: titleFields(), Where: textOp("like", "title", "x")}),
			ir.ErrCodeUnsupportedOperator,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PlanQuery(tc.req)
			require.Error(t, err)
			assert.Equal(t, tc.code, ir.CodeOf(err), err.Error())
		})
	}
}

func TestPlanQuery_ReconstructionMap(t *testing.T) {
	plan, err := PlanQuery(articles(ir.Query{
		Fields: map[string]ir.Field{
			"t":  ir.ColumnField{Column: "title"},
			"id": ir.ColumnField{Column: "id"},
		},
	}))
	require.NoError(t, err)

	assert.Equal(t, compiler.ReconstructionMap{
		"t":  {Source: compiler.SourceProperty, Name: "title"},
		"id": {Source: compiler.SourceBuiltin, Name: "id"},
	}, plan.Reconstruction)
}
