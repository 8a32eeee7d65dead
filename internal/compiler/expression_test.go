package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weavebridge/internal/ir"
	"github.com/roach88/weavebridge/internal/queryir"
)

func col(name string) ir.ComparisonColumn {
	return ir.ComparisonColumn{Name: []string{name}}
}

func cmp(column string, op ir.BinaryOperator, value any, typ ir.ScalarType) ir.BinaryOp {
	return ir.BinaryOp{
		Column:   col(column),
		Operator: op,
		Value:    ir.ScalarComparison{Value: value, ValueType: typ},
	}
}

func directive(op ir.BinaryOperator, value string) ir.BinaryOp {
	return cmp("_", op, value, ir.ScalarText)
}

func TestCompile_Comparisons(t *testing.T) {
	tests := []struct {
		op   ir.BinaryOperator
		want queryir.FilterOperator
	}{
		{ir.OpEqual, queryir.OpEqual},
		{ir.OpLessThan, queryir.OpLessThan},
		{ir.OpLessThanOrEqual, queryir.OpLessThanEqual},
		{ir.OpGreaterThan, queryir.OpGreaterThan},
		{ir.OpGreaterThanOrEqual, queryir.OpGreaterThanEqual},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			f, d, err := Compile(cmp("wordCount", tt.op, 10, ir.ScalarInt), nil)
			require.NoError(t, err)
			assert.Nil(t, d)
			assert.Equal(t, queryir.Compare{
				Operator: tt.want,
				Path:     []string{"wordCount"},
				Value:    queryir.Int(10),
			}, f)
		})
	}
}

func TestCompile_PathPrefix(t *testing.T) {
	prefix := []string{"author"}
	f, _, err := Compile(cmp("name", ir.OpEqual, "Ada", ir.ScalarText), prefix)
	require.NoError(t, err)

	assert.Equal(t, []string{"author", "name"}, f.(queryir.Compare).Path)
	assert.Equal(t, []string{"author"}, prefix, "prefix must not be modified")
}

func TestCompile_NoFilter(t *testing.T) {
	tests := []struct {
		name string
		expr ir.Expression
	}{
		{"nil", nil},
		{"empty and", ir.And{}},
		{"empty or", ir.Or{}},
		{"empty in", ir.BinaryArrayOp{Column: col("tag"), Operator: ir.OpIn, ValueType: ir.ScalarText}},
		{"and of only directives", ir.And{Expressions: []ir.Expression{directive(ir.OpNearText, "cats")}}},
		{"not of nothing", ir.Not{Expression: ir.And{}}},
		{
			"or with unconstrained disjunct",
			ir.Or{Expressions: []ir.Expression{
				cmp("a", ir.OpEqual, "x", ir.ScalarText),
				ir.And{},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, err := Compile(tt.expr, nil)
			require.NoError(t, err)
			assert.Nil(t, f)
		})
	}
}

func TestCompile_Connectives(t *testing.T) {
	a := cmp("a", ir.OpEqual, "x", ir.ScalarText)
	b := cmp("b", ir.OpGreaterThan, 1, ir.ScalarInt)
	fa := queryir.Equal([]string{"a"}, queryir.Text("x"))
	fb := queryir.Compare{Operator: queryir.OpGreaterThan, Path: []string{"b"}, Value: queryir.Int(1)}

	t.Run("and", func(t *testing.T) {
		f, _, err := Compile(ir.And{Expressions: []ir.Expression{a, b}}, nil)
		require.NoError(t, err)
		assert.Equal(t, queryir.Group{Operator: queryir.OpAnd, Operands: []queryir.Filter{fa, fb}}, f)
	})

	t.Run("single child and is unwrapped", func(t *testing.T) {
		f, _, err := Compile(ir.And{Expressions: []ir.Expression{a}}, nil)
		require.NoError(t, err)
		assert.Equal(t, fa, f)
	})

	t.Run("or", func(t *testing.T) {
		f, _, err := Compile(ir.Or{Expressions: []ir.Expression{a, b}}, nil)
		require.NoError(t, err)
		assert.Equal(t, queryir.Group{Operator: queryir.OpOr, Operands: []queryir.Filter{fa, fb}}, f)
	})

	t.Run("not", func(t *testing.T) {
		f, _, err := Compile(ir.Not{Expression: a}, nil)
		require.NoError(t, err)
		assert.Equal(t, queryir.Negation{Operand: fa}, f)
	})

	t.Run("pointer variants", func(t *testing.T) {
		f, _, err := Compile(&ir.And{Expressions: []ir.Expression{&a}}, nil)
		require.NoError(t, err)
		assert.Equal(t, fa, f)
	})
}

func TestCompile_IsNull(t *testing.T) {
	f, _, err := Compile(ir.UnaryOp{Column: col("summary"), Operator: ir.OpIsNull}, nil)
	require.NoError(t, err)
	assert.Equal(t, queryir.Compare{
		Operator: queryir.OpIsNull,
		Path:     []string{"summary"},
		Value:    queryir.Boolean(true),
	}, f)
}

func TestCompile_In(t *testing.T) {
	expr := ir.BinaryArrayOp{
		Column:    col("category"),
		Operator:  ir.OpIn,
		ValueType: ir.ScalarText,
		Values:    []any{"news", "blog"},
	}

	f, _, err := Compile(expr, nil)
	require.NoError(t, err)
	assert.Equal(t, queryir.Group{Operator: queryir.OpOr, Operands: []queryir.Filter{
		queryir.Equal([]string{"category"}, queryir.Text("news")),
		queryir.Equal([]string{"category"}, queryir.Text("blog")),
	}}, f)

	expr.Values = []any{"news"}
	f, _, err = Compile(expr, nil)
	require.NoError(t, err)
	assert.Equal(t, queryir.Equal([]string{"category"}, queryir.Text("news")), f)
}

func TestCompile_Directives(t *testing.T) {
	tests := []struct {
		op   ir.BinaryOperator
		kind queryir.DirectiveKind
	}{
		{ir.OpNearText, queryir.DirectiveNearText},
		{ir.OpMatchText, queryir.DirectiveBM25},
		{ir.OpHybridMatchText, queryir.DirectiveHybrid},
		{ir.OpAskQuestion, queryir.DirectiveAsk},
		{ir.OpGenerativeSearch, queryir.DirectiveGenerative},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			expr := ir.And{Expressions: []ir.Expression{
				directive(tt.op, "space travel"),
				cmp("published", ir.OpEqual, true, ir.ScalarBoolean),
			}}

			f, d, err := Compile(expr, nil)
			require.NoError(t, err)

			// The directive never shows up in the filter.
			assert.Equal(t, queryir.Equal([]string{"published"}, queryir.Boolean(true)), f)

			require.NotNil(t, d)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, "space travel", d.Text)
		})
	}
}

func TestCompile_Modifiers(t *testing.T) {
	expr := ir.And{Expressions: []ir.Expression{
		directive(ir.OpHybridMatchText, "rockets"),
		ir.And{Expressions: []ir.Expression{
			directive(ir.OpWithProperties, "title, body ,"),
			cmp("_", ir.OpAutocut, "2", ir.ScalarText),
		}},
		directive(ir.OpWithGroupedBy, "category"),
	}}

	f, d, err := Compile(expr, nil)
	require.NoError(t, err)
	assert.Nil(t, f)

	require.NotNil(t, d)
	assert.Equal(t, queryir.DirectiveHybrid, d.Kind)
	assert.Equal(t, []string{"title", "body"}, d.Properties)
	assert.Equal(t, []string{"category"}, d.GroupBy)
	require.NotNil(t, d.Autocut)
	assert.Equal(t, 2, *d.Autocut)
}

func TestCompile_ModifiersWithoutDirective(t *testing.T) {
	_, d, err := Compile(ir.And{Expressions: []ir.Expression{directive(ir.OpWithGroupedBy, "category")}}, nil)
	require.NoError(t, err)

	require.NotNil(t, d)
	assert.False(t, d.Active())
	assert.Equal(t, []string{"category"}, d.GroupBy)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		expr ir.Expression
		code ir.ErrorCode
	}{
		{
			"negated directive",
			ir.Not{Expression: directive(ir.OpNearText, "x")},
			ir.ErrCodeUnsupportedExpression,
		},
		{
			"negated modifier inside and",
			ir.Not{Expression: ir.And{Expressions: []ir.Expression{directive(ir.OpAutocut, "1")}}},
			ir.ErrCodeUnsupportedExpression,
		},
		{
			"directive inside or",
			ir.Or{Expressions: []ir.Expression{directive(ir.OpMatchText, "x"), cmp("a", ir.OpEqual, "b", ir.ScalarText)}},
			ir.ErrCodeUnsupportedExpression,
		},
		{
			"two directives",
			ir.And{Expressions: []ir.Expression{directive(ir.OpNearText, "x"), directive(ir.OpMatchText, "y")}},
			ir.ErrCodeUnsupportedExpression,
		},
		{
			"repeated modifier",
			ir.And{Expressions: []ir.Expression{directive(ir.OpWithProperties, "a"), directive(ir.OpWithProperties, "b")}},
			ir.ErrCodeUnsupportedExpression,
		},
		{
			"non-integer autocut",
			directive(ir.OpAutocut, "lots"),
			ir.ErrCodeUnsupportedExpression,
		},
		{
			"column comparison",
			ir.BinaryOp{Column: col("a"), Operator: ir.OpEqual, Value: ir.ColumnComparison{Column: col("b")}},
			ir.ErrCodeUnsupportedExpression,
		},
		{
			"unknown comparison value",
			ir.BinaryOp{Column: col("a"), Operator: ir.OpEqual, Value: ir.UnknownComparison{Type: "variable"}},
			ir.ErrCodeUnsupportedExpression,
		},
		{
			"unknown expression",
			ir.UnknownExpression{Type: "exists"},
			ir.ErrCodeUnsupportedExpression,
		},
		{
			"unknown binary operator",
			cmp("a", "like", "x%", ir.ScalarText),
			ir.ErrCodeUnsupportedOperator,
		},
		{
			"unknown array operator",
			ir.BinaryArrayOp{Column: col("a"), Operator: "nin", ValueType: ir.ScalarText, Values: []any{"x"}},
			ir.ErrCodeUnsupportedOperator,
		},
		{
			"unknown unary operator",
			ir.UnaryOp{Column: col("a"), Operator: "is_empty"},
			ir.ErrCodeUnsupportedUnaryOperator,
		},
		{
			"unknown scalar type",
			cmp("a", ir.OpEqual, "x", "decimal"),
			ir.ErrCodeUnknownScalarType,
		},
		{
			"error nested deep in and",
			ir.And{Expressions: []ir.Expression{ir.And{Expressions: []ir.Expression{ir.UnknownExpression{Type: "exists"}}}}},
			ir.ErrCodeUnsupportedExpression,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, d, err := Compile(tt.expr, nil)
			require.Error(t, err)
			assert.Nil(t, f)
			assert.Nil(t, d)
			assert.Equal(t, tt.code, ir.CodeOf(err), "got %v", err)
		})
	}
}

func TestCompile_ErrorNamesConstruct(t *testing.T) {
	_, _, err := Compile(cmp("a", "like", "x", ir.ScalarText), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "like")

	_, _, err = Compile(ir.UnknownExpression{Type: "exists"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exists")
}

// The compiled filter must select exactly the documents the neutral
// expression describes.
func TestCompile_SemanticsAgainstReference(t *testing.T) {
	docs := []queryir.Document{
		{"title": "a", "n": int64(1), "tag": "x"},
		{"title": "b", "n": int64(5), "tag": "y"},
		{"title": "c", "n": int64(9)},
		{"title": "d"},
	}

	// Reference predicates written by hand for each expression.
	tests := []struct {
		name string
		expr ir.Expression
		want []string
	}{
		{
			"range and",
			ir.And{Expressions: []ir.Expression{
				cmp("n", ir.OpGreaterThanOrEqual, 1, ir.ScalarInt),
				cmp("n", ir.OpLessThan, 9, ir.ScalarInt),
			}},
			[]string{"a", "b"},
		},
		{
			"not equal",
			ir.Not{Expression: cmp("title", ir.OpEqual, "b", ir.ScalarText)},
			[]string{"a", "c", "d"},
		},
		{
			"in or is null",
			ir.Or{Expressions: []ir.Expression{
				ir.BinaryArrayOp{Column: col("tag"), Operator: ir.OpIn, ValueType: ir.ScalarText, Values: []any{"y"}},
				ir.UnaryOp{Column: col("tag"), Operator: ir.OpIsNull},
			}},
			[]string{"b", "c", "d"},
		},
		{
			"negated disjunction",
			ir.Not{Expression: ir.Or{Expressions: []ir.Expression{
				cmp("n", ir.OpGreaterThan, 5, ir.ScalarInt),
				cmp("title", ir.OpEqual, "a", ir.ScalarText),
			}}},
			[]string{"b", "d"},
		},
		{
			"negated equal on sparse property",
			ir.Not{Expression: cmp("tag", ir.OpEqual, "x", ir.ScalarText)},
			[]string{"b", "c", "d"},
		},
		{
			"negated range on sparse property",
			ir.Not{Expression: cmp("n", ir.OpLessThan, 5, ir.ScalarInt)},
			[]string{"b", "c", "d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, err := Compile(tt.expr, nil)
			require.NoError(t, err)

			for _, pushed := range []queryir.Filter{f, queryir.PushDownNegations(f)} {
				var got []string
				for _, doc := range docs {
					if queryir.Evaluate(pushed, doc) {
						got = append(got, doc["title"].(string))
					}
				}
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
