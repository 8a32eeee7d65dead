package weaviate

import (
	"fmt"

	"github.com/spf13/cast"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"

	"github.com/roach88/weavebridge/internal/queryir"
)

var whereOperators = map[queryir.FilterOperator]filters.WhereOperator{
	queryir.OpAnd:              filters.And,
	queryir.OpOr:               filters.Or,
	queryir.OpEqual:            filters.Equal,
	queryir.OpNotEqual:         filters.NotEqual,
	queryir.OpLessThan:         filters.LessThan,
	queryir.OpLessThanEqual:    filters.LessThanEqual,
	queryir.OpGreaterThan:      filters.GreaterThan,
	queryir.OpGreaterThanEqual: filters.GreaterThanEqual,
	queryir.OpIsNull:           filters.IsNull,
}

// matchAll selects every object of a class. The batch delete endpoint
// requires a where filter.
func matchAll() *filters.WhereBuilder {
	return filters.Where().
		WithPath([]string{"id"}).
		WithOperator(filters.Like).
		WithValueText("*")
}

// toWhere converts a compiled filter into the client's where builder.
// Negations are pushed down first since the REST filter has no NOT. A nil
// filter converts to matchAll.
func toWhere(f queryir.Filter) (*filters.WhereBuilder, error) {
	f = queryir.PushDownNegations(f)
	if f == nil {
		return matchAll(), nil
	}
	return buildWhere(f)
}

func buildWhere(f queryir.Filter) (*filters.WhereBuilder, error) {
	switch n := f.(type) {
	case queryir.Group:
		return buildGroup(n)
	case *queryir.Group:
		return buildGroup(*n)
	case queryir.Compare:
		return buildCompare(n)
	case *queryir.Compare:
		return buildCompare(*n)
	default:
		return nil, fmt.Errorf("unsupported filter node %T", f)
	}
}

func buildGroup(g queryir.Group) (*filters.WhereBuilder, error) {
	op, ok := whereOperators[g.Operator]
	if !ok || (g.Operator != queryir.OpAnd && g.Operator != queryir.OpOr) {
		return nil, fmt.Errorf("unsupported group operator %q", g.Operator)
	}
	if len(g.Operands) == 0 {
		return matchAll(), nil
	}

	operands := make([]*filters.WhereBuilder, len(g.Operands))
	for i, o := range g.Operands {
		w, err := buildWhere(o)
		if err != nil {
			return nil, err
		}
		operands[i] = w
	}
	return filters.Where().WithOperator(op).WithOperands(operands), nil
}

func buildCompare(c queryir.Compare) (*filters.WhereBuilder, error) {
	op, ok := whereOperators[c.Operator]
	if !ok {
		return nil, fmt.Errorf("unsupported comparison operator %q", c.Operator)
	}
	w := filters.Where().WithPath(c.Path).WithOperator(op)

	switch c.Value.Slot {
	case queryir.SlotText:
		s, ok := c.Value.Value.(string)
		if !ok {
			return nil, slotError(c)
		}
		return w.WithValueText(s), nil
	case queryir.SlotInt:
		n, ok := c.Value.Value.(int64)
		if !ok {
			return nil, slotError(c)
		}
		return w.WithValueInt(n), nil
	case queryir.SlotNumber:
		x, ok := c.Value.Value.(float64)
		if !ok {
			return nil, slotError(c)
		}
		return w.WithValueNumber(x), nil
	case queryir.SlotBoolean:
		b, ok := c.Value.Value.(bool)
		if !ok {
			return nil, slotError(c)
		}
		return w.WithValueBoolean(b), nil
	case queryir.SlotDate:
		s, ok := c.Value.Value.(string)
		if !ok {
			return nil, slotError(c)
		}
		ts, err := cast.ToTimeE(s)
		if err != nil {
			return nil, fmt.Errorf("date value on %v: %w", c.Path, err)
		}
		return w.WithValueDate(ts), nil
	default:
		return nil, fmt.Errorf("unknown value slot %q", c.Value.Slot)
	}
}

func slotError(c queryir.Compare) error {
	return fmt.Errorf("%s value on %v has type %T", c.Value.Slot, c.Path, c.Value.Value)
}
