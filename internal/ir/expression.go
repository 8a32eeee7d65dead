package ir

import (
	"encoding/json"
	"strings"
)

// Expression is a node of the vendor-neutral boolean filter tree.
//
// This is a sealed interface - only types in this package implement it.
// Compilers switch over the concrete variants exhaustively; unrecognised wire
// tags decode to UnknownExpression so they can be rejected by name instead of
// disappearing at decode time.
type Expression interface {
	expressionNode() // Marker method - seals interface to this package
}

// BinaryOperator is the operator tag of a binary_op expression.
//
// Besides ordinary comparisons, the wire format smuggles search directives and
// their modifiers through this field. See IsDirective and IsModifier.
type BinaryOperator string

const (
	OpEqual              BinaryOperator = "equal"
	OpLessThan           BinaryOperator = "less_than"
	OpLessThanOrEqual    BinaryOperator = "less_than_or_equal"
	OpGreaterThan        BinaryOperator = "greater_than"
	OpGreaterThanOrEqual BinaryOperator = "greater_than_or_equal"

	// Search directives.
	OpNearText         BinaryOperator = "near_text"
	OpMatchText        BinaryOperator = "match_text"
	OpHybridMatchText  BinaryOperator = "hybrid_match_text"
	OpAskQuestion      BinaryOperator = "ask_question"
	OpGenerativeSearch BinaryOperator = "generative_search"

	// Directive modifiers.
	OpWithProperties BinaryOperator = "with_properties"
	OpWithGroupedBy  BinaryOperator = "with_groupedby"
	OpAutocut        BinaryOperator = "autocut"
)

// IsDirective reports whether op selects a search mode rather than filtering.
func (op BinaryOperator) IsDirective() bool {
	switch op {
	case OpNearText, OpMatchText, OpHybridMatchText, OpAskQuestion, OpGenerativeSearch:
		return true
	}
	return false
}

// IsModifier reports whether op parameterises a search directive.
func (op BinaryOperator) IsModifier() bool {
	switch op {
	case OpWithProperties, OpWithGroupedBy, OpAutocut:
		return true
	}
	return false
}

// UnaryOperator is the operator tag of a unary_op expression.
type UnaryOperator string

const OpIsNull UnaryOperator = "is_null"

// ArrayOperator is the operator tag of a binary_arr_op expression.
type ArrayOperator string

const OpIn ArrayOperator = "in"

// ComparisonColumn references a column of the target table.
//
// Name arrives either as a plain string or as a list of segments; segment
// lists are joined with "." to form one path element.
type ComparisonColumn struct {
	Name       []string `json:"name"`
	ColumnType string   `json:"column_type,omitempty"`
}

// FieldName returns the path element used for this column.
func (c ComparisonColumn) FieldName() string {
	return strings.Join(c.Name, ".")
}

// UnmarshalJSON accepts both string and array forms of name.
func (c *ComparisonColumn) UnmarshalJSON(data []byte) error {
	var wire struct {
		Name       json.RawMessage `json:"name"`
		ColumnType string          `json:"column_type"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	c.ColumnType = wire.ColumnType
	c.Name = nil
	if len(wire.Name) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(wire.Name, &single); err == nil {
		c.Name = []string{single}
		return nil
	}
	return json.Unmarshal(wire.Name, &c.Name)
}

// Not negates its operand.
type Not struct {
	Expression Expression
}

func (Not) expressionNode() {}

// And is a conjunction. An empty And constrains nothing.
type And struct {
	Expressions []Expression
}

func (And) expressionNode() {}

// Or is a disjunction.
type Or struct {
	Expressions []Expression
}

func (Or) expressionNode() {}

// BinaryOp compares a column to a value, or carries a search directive or
// modifier when Operator.IsDirective or Operator.IsModifier.
type BinaryOp struct {
	Column   ComparisonColumn
	Operator BinaryOperator
	Value    ComparisonValue
}

func (BinaryOp) expressionNode() {}

// UnaryOp applies a unary test to a column.
type UnaryOp struct {
	Column   ComparisonColumn
	Operator UnaryOperator
}

func (UnaryOp) expressionNode() {}

// BinaryArrayOp tests a column against a list of scalar values.
type BinaryArrayOp struct {
	Column    ComparisonColumn
	Operator  ArrayOperator
	ValueType ScalarType
	Values    []any
}

func (BinaryArrayOp) expressionNode() {}

// UnknownExpression records an expression whose wire tag is not recognised.
type UnknownExpression struct {
	Type string
}

func (UnknownExpression) expressionNode() {}

// ComparisonValue is the right-hand side of a binary_op.
//
// This is a sealed interface: ScalarComparison or ColumnComparison.
type ComparisonValue interface {
	comparisonValue()
}

// ScalarComparison is a literal value tagged with its scalar type.
type ScalarComparison struct {
	Value     any
	ValueType ScalarType
}

func (ScalarComparison) comparisonValue() {}

// ColumnComparison compares against another column.
type ColumnComparison struct {
	Column ComparisonColumn
}

func (ColumnComparison) comparisonValue() {}

// UnknownComparison records a comparison value with an unrecognised tag.
type UnknownComparison struct {
	Type string
}

func (UnknownComparison) comparisonValue() {}

type wireExpression struct {
	Type        string            `json:"type"`
	Expression  json.RawMessage   `json:"expression"`
	Expressions []json.RawMessage `json:"expressions"`
	Column      ComparisonColumn  `json:"column"`
	Operator    string            `json:"operator"`
	Value       json.RawMessage   `json:"value"`
	ValueType   ScalarType        `json:"value_type"`
	Values      []any             `json:"values"`
}

// DecodeExpression decodes one wire expression. A JSON null or empty input
// decodes to a nil Expression (no filter). A null child of and/or fails with
// INVALID_REQUEST, since dropping it would silently widen an or.
func DecodeExpression(data []byte) (Expression, error) {
	if isNullJSON(data) {
		return nil, nil
	}

	var w wireExpression
	if err := unmarshalNumbers(data, &w); err != nil {
		return nil, err
	}

	switch w.Type {
	case "and", "or":
		children := make([]Expression, 0, len(w.Expressions))
		for i, raw := range w.Expressions {
			child, err := DecodeExpression(raw)
			if err != nil {
				return nil, err
			}
			if child == nil {
				return nil, NewError(ErrCodeInvalidRequest, w.Type, "%s operand %d is null", w.Type, i)
			}
			children = append(children, child)
		}
		if w.Type == "and" {
			return And{Expressions: children}, nil
		}
		return Or{Expressions: children}, nil

	case "not":
		inner, err := DecodeExpression(w.Expression)
		if err != nil {
			return nil, err
		}
		return Not{Expression: inner}, nil

	case "binary_op":
		value, err := decodeComparisonValue(w.Value)
		if err != nil {
			return nil, err
		}
		return BinaryOp{
			Column:   w.Column,
			Operator: BinaryOperator(w.Operator),
			Value:    value,
		}, nil

	case "unary_op":
		return UnaryOp{Column: w.Column, Operator: UnaryOperator(w.Operator)}, nil

	case "binary_arr_op":
		return BinaryArrayOp{
			Column:    w.Column,
			Operator:  ArrayOperator(w.Operator),
			ValueType: w.ValueType,
			Values:    w.Values,
		}, nil

	default:
		return UnknownExpression{Type: w.Type}, nil
	}
}

func decodeComparisonValue(data []byte) (ComparisonValue, error) {
	if isNullJSON(data) {
		return nil, nil
	}
	var w struct {
		Type      string           `json:"type"`
		Value     any              `json:"value"`
		ValueType ScalarType       `json:"value_type"`
		Column    ComparisonColumn `json:"column"`
	}
	if err := unmarshalNumbers(data, &w); err != nil {
		return nil, err
	}
	switch w.Type {
	case "scalar":
		return ScalarComparison{Value: w.Value, ValueType: w.ValueType}, nil
	case "column":
		return ColumnComparison{Column: w.Column}, nil
	default:
		return UnknownComparison{Type: w.Type}, nil
	}
}
