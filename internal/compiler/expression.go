package compiler

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/roach88/weavebridge/internal/ir"
	"github.com/roach88/weavebridge/internal/queryir"
)

var comparisonOperators = map[ir.BinaryOperator]queryir.FilterOperator{
	ir.OpEqual:              queryir.OpEqual,
	ir.OpLessThan:           queryir.OpLessThan,
	ir.OpLessThanOrEqual:    queryir.OpLessThanEqual,
	ir.OpGreaterThan:        queryir.OpGreaterThan,
	ir.OpGreaterThanOrEqual: queryir.OpGreaterThanEqual,
}

var directiveKinds = map[ir.BinaryOperator]queryir.DirectiveKind{
	ir.OpNearText:         queryir.DirectiveNearText,
	ir.OpMatchText:        queryir.DirectiveBM25,
	ir.OpHybridMatchText:  queryir.DirectiveHybrid,
	ir.OpAskQuestion:      queryir.DirectiveAsk,
	ir.OpGenerativeSearch: queryir.DirectiveGenerative,
}

// Compile lowers a filter expression into a native filter and extracts the
// search directive encoded in it.
//
// path is prepended to every column reference (nested object filters).
//
// The returned filter is nil when the expression constrains nothing: a nil
// expression, an empty and, an empty in, or an and whose children are all
// directives. The returned directive is nil when no directive or modifier
// operator appears; it has an empty Kind when only modifiers appear.
//
// Directive rules:
//   - directives and modifiers are collected through and nodes only
//   - under not or or they fail with UNSUPPORTED_EXPRESSION
//   - a second directive, or a repeated modifier, fails with
//     UNSUPPORTED_EXPRESSION
//
// Negations are kept as queryir.Negation nodes; stores that lack a NOT
// operator apply queryir.PushDownNegations.
//
// Compile is a pure function with no side effects.
func Compile(expr ir.Expression, path []string) (queryir.Filter, *queryir.SearchDirective, error) {
	c := &exprCompiler{modifiers: map[ir.BinaryOperator]bool{}}
	f, err := c.compile(expr, path, scope{})
	if err != nil {
		return nil, nil, err
	}
	return f, c.directive, nil
}

// scope records the connectives enclosing the node being compiled.
type scope struct {
	underNot bool
	underOr  bool
}

// exprCompiler accumulates the extracted directive during traversal.
type exprCompiler struct {
	directive *queryir.SearchDirective
	modifiers map[ir.BinaryOperator]bool
}

func (c *exprCompiler) compile(expr ir.Expression, path []string, s scope) (queryir.Filter, error) {
	switch e := expr.(type) {
	case nil:
		return nil, nil
	case ir.And:
		return c.compileAnd(e, path, s)
	case *ir.And:
		return c.compileAnd(*e, path, s)
	case ir.Or:
		return c.compileOr(e, path, s)
	case *ir.Or:
		return c.compileOr(*e, path, s)
	case ir.Not:
		return c.compileNot(e, path, s)
	case *ir.Not:
		return c.compileNot(*e, path, s)
	case ir.BinaryOp:
		return c.compileBinary(e, path, s)
	case *ir.BinaryOp:
		return c.compileBinary(*e, path, s)
	case ir.UnaryOp:
		return compileUnary(e, path)
	case *ir.UnaryOp:
		return compileUnary(*e, path)
	case ir.BinaryArrayOp:
		return compileArray(e, path)
	case *ir.BinaryArrayOp:
		return compileArray(*e, path)
	case ir.UnknownExpression:
		return nil, ir.NewError(ir.ErrCodeUnsupportedExpression, e.Type, "unsupported expression type")
	default:
		return nil, ir.NewError(ir.ErrCodeUnsupportedExpression, fmt.Sprintf("%T", expr), "unsupported expression type")
	}
}

func (c *exprCompiler) compileAnd(e ir.And, path []string, s scope) (queryir.Filter, error) {
	filters := make([]queryir.Filter, 0, len(e.Expressions))
	for _, child := range e.Expressions {
		f, err := c.compile(child, path, s)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return queryir.AndOf(filters...), nil
}

// compileOr compiles every disjunct so that misplaced directives are always
// reported. A disjunct that constrains nothing makes the whole disjunction
// constrain nothing.
func (c *exprCompiler) compileOr(e ir.Or, path []string, s scope) (queryir.Filter, error) {
	s.underOr = true
	filters := make([]queryir.Filter, 0, len(e.Expressions))
	unconstrained := len(e.Expressions) == 0
	for _, child := range e.Expressions {
		f, err := c.compile(child, path, s)
		if err != nil {
			return nil, err
		}
		if f == nil {
			unconstrained = true
		}
		filters = append(filters, f)
	}
	if unconstrained {
		return nil, nil
	}
	return queryir.OrOf(filters...), nil
}

func (c *exprCompiler) compileNot(e ir.Not, path []string, s scope) (queryir.Filter, error) {
	s.underNot = true
	f, err := c.compile(e.Expression, path, s)
	if err != nil || f == nil {
		return nil, err
	}
	return queryir.Negation{Operand: f}, nil
}

func (c *exprCompiler) compileBinary(e ir.BinaryOp, path []string, s scope) (queryir.Filter, error) {
	if e.Operator.IsDirective() || e.Operator.IsModifier() {
		return nil, c.extract(e, s)
	}

	op, ok := comparisonOperators[e.Operator]
	if !ok {
		return nil, ir.NewError(ir.ErrCodeUnsupportedOperator, string(e.Operator), "unsupported comparison operator")
	}

	scalar, err := scalarOperand(e)
	if err != nil {
		return nil, err
	}
	v, err := EncodeScalar(scalar.ValueType, scalar.Value)
	if err != nil {
		return nil, err
	}
	return queryir.Compare{Operator: op, Path: columnPath(path, e.Column), Value: v}, nil
}

func compileUnary(e ir.UnaryOp, path []string) (queryir.Filter, error) {
	if e.Operator != ir.OpIsNull {
		return nil, ir.NewError(ir.ErrCodeUnsupportedUnaryOperator, string(e.Operator), "unsupported unary comparison operator")
	}
	return queryir.Compare{
		Operator: queryir.OpIsNull,
		Path:     columnPath(path, e.Column),
		Value:    queryir.Boolean(true),
	}, nil
}

// compileArray expands in into a disjunction of equalities. An empty value
// list constrains nothing.
func compileArray(e ir.BinaryArrayOp, path []string) (queryir.Filter, error) {
	if e.Operator != ir.OpIn {
		return nil, ir.NewError(ir.ErrCodeUnsupportedOperator, string(e.Operator), "unsupported array comparison operator")
	}
	p := columnPath(path, e.Column)
	filters := make([]queryir.Filter, 0, len(e.Values))
	for _, raw := range e.Values {
		v, err := EncodeScalar(e.ValueType, raw)
		if err != nil {
			return nil, err
		}
		filters = append(filters, queryir.Equal(p, v))
	}
	return queryir.OrOf(filters...), nil
}

// extract records a directive or modifier operator.
func (c *exprCompiler) extract(e ir.BinaryOp, s scope) error {
	switch {
	case s.underNot:
		return ir.NewError(ir.ErrCodeUnsupportedExpression, string(e.Operator), "search directives cannot be negated")
	case s.underOr:
		return ir.NewError(ir.ErrCodeUnsupportedExpression, string(e.Operator), "search directives cannot appear inside or")
	}

	scalar, err := scalarOperand(e)
	if err != nil {
		return err
	}
	if c.directive == nil {
		c.directive = &queryir.SearchDirective{}
	}

	if kind, ok := directiveKinds[e.Operator]; ok {
		if c.directive.Kind != queryir.DirectiveNone {
			return ir.NewError(ir.ErrCodeUnsupportedExpression, string(e.Operator),
				"only one search directive is allowed, already have %s", c.directive.Kind)
		}
		text, err := cast.ToStringE(scalar.Value)
		if err != nil {
			return coercionError(scalar.ValueType, scalar.Value, err)
		}
		c.directive.Kind = kind
		c.directive.Text = text
		return nil
	}

	if c.modifiers[e.Operator] {
		return ir.NewError(ir.ErrCodeUnsupportedExpression, string(e.Operator), "modifier given more than once")
	}
	c.modifiers[e.Operator] = true

	switch e.Operator {
	case ir.OpWithProperties, ir.OpWithGroupedBy:
		text, err := cast.ToStringE(scalar.Value)
		if err != nil {
			return coercionError(scalar.ValueType, scalar.Value, err)
		}
		if e.Operator == ir.OpWithProperties {
			c.directive.Properties = splitList(text)
		} else {
			c.directive.GroupBy = splitList(text)
		}
	case ir.OpAutocut:
		n, err := cast.ToIntE(scalar.Value)
		if err != nil {
			return &ir.Error{
				Code:      ir.ErrCodeUnsupportedExpression,
				Message:   "autocut value must be an integer",
				Construct: string(e.Operator),
				Err:       err,
			}
		}
		c.directive.Autocut = &n
	}
	return nil
}

// scalarOperand returns the literal right-hand side of a binary_op.
func scalarOperand(e ir.BinaryOp) (ir.ScalarComparison, error) {
	switch v := e.Value.(type) {
	case ir.ScalarComparison:
		return v, nil
	case *ir.ScalarComparison:
		return *v, nil
	case ir.ColumnComparison, *ir.ColumnComparison:
		return ir.ScalarComparison{}, ir.NewError(ir.ErrCodeUnsupportedExpression, string(e.Operator), "column comparison not implemented")
	case ir.UnknownComparison:
		return ir.ScalarComparison{}, ir.NewError(ir.ErrCodeUnsupportedExpression, v.Type, "unsupported comparison value type")
	case nil:
		return ir.ScalarComparison{}, ir.NewError(ir.ErrCodeUnsupportedExpression, string(e.Operator), "comparison without a value")
	default:
		return ir.ScalarComparison{}, ir.NewError(ir.ErrCodeUnsupportedExpression, fmt.Sprintf("%T", v), "unsupported comparison value type")
	}
}

func columnPath(prefix []string, col ir.ComparisonColumn) []string {
	out := make([]string, 0, len(prefix)+1)
	out = append(out, prefix...)
	return append(out, col.FieldName())
}

// splitList splits a comma-separated modifier value, trimming blanks.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
