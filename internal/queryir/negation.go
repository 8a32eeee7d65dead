package queryir

// complement maps each comparison operator to the operator matching the
// documents it rejects among those where the property holds a scalar.
var complement = map[FilterOperator]FilterOperator{
	OpEqual:            OpNotEqual,
	OpNotEqual:         OpEqual,
	OpLessThan:         OpGreaterThanEqual,
	OpGreaterThanEqual: OpLessThan,
	OpLessThanEqual:    OpGreaterThan,
	OpGreaterThan:      OpLessThanEqual,
}

// PushDownNegations returns an equivalent filter with no Negation nodes.
//
// Negations are pushed to the leaves: groups flip between And and Or (De
// Morgan), IsNull flips its boolean, and double negations cancel. Any other
// negated comparison becomes Or(complement, IsNull(path, true)) so documents
// missing the property, or holding null, still match. The input is not
// modified.
//
// Range comparisons against array values and values of a mismatched type are
// not exact complements: neither the comparison nor its complement matches.
func PushDownNegations(f Filter) Filter {
	return pushDown(f, false)
}

func pushDown(f Filter, negated bool) Filter {
	switch n := f.(type) {
	case nil:
		return nil
	case Negation:
		return pushDown(n.Operand, !negated)
	case *Negation:
		return pushDown(n.Operand, !negated)
	case Group:
		return pushDownGroup(n, negated)
	case *Group:
		return pushDownGroup(*n, negated)
	case Compare:
		return pushDownCompare(n, negated)
	case *Compare:
		return pushDownCompare(*n, negated)
	default:
		return f
	}
}

func pushDownGroup(g Group, negated bool) Filter {
	op := g.Operator
	if negated {
		if op == OpAnd {
			op = OpOr
		} else {
			op = OpAnd
		}
	}
	operands := make([]Filter, 0, len(g.Operands))
	for _, o := range g.Operands {
		if pushed := pushDown(o, negated); pushed != nil {
			operands = append(operands, pushed)
		}
	}
	return Group{Operator: op, Operands: operands}
}

func pushDownCompare(c Compare, negated bool) Filter {
	if !negated {
		return c
	}
	if c.Operator == OpIsNull {
		want, _ := c.Value.Value.(bool)
		return Compare{Operator: OpIsNull, Path: c.Path, Value: Boolean(!want)}
	}
	flipped, ok := complement[c.Operator]
	if !ok {
		return c
	}
	out := c
	out.Operator = flipped
	return Group{Operator: OpOr, Operands: []Filter{
		out,
		Compare{Operator: OpIsNull, Path: c.Path, Value: Boolean(true)},
	}}
}
