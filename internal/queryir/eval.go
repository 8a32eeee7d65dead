package queryir

import (
	"strings"

	"github.com/spf13/cast"
)

// Document is a property map a filter can be evaluated against.
type Document map[string]any

// Lookup resolves path against the document, descending into nested maps.
// A path element containing "." is tried verbatim first, then as a dotted
// path.
func (d Document) Lookup(path []string) (any, bool) {
	var cur any = map[string]any(d)
	for _, elem := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if v, ok := m[elem]; ok {
			cur = v
			continue
		}
		if !strings.Contains(elem, ".") {
			return nil, false
		}
		v, ok := Document(m).Lookup(strings.Split(elem, "."))
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return m, true
	}
	return nil, false
}

// Evaluate reports whether doc satisfies f. A nil filter matches every
// document.
//
// Comparisons against array-valued properties match when any element
// matches (NotEqual: when no element is equal). Values that cannot be coerced
// to the comparison slot never match.
func Evaluate(f Filter, doc Document) bool {
	switch n := f.(type) {
	case nil:
		return true
	case Negation:
		return !Evaluate(n.Operand, doc)
	case *Negation:
		return !Evaluate(n.Operand, doc)
	case Group:
		return evaluateGroup(n, doc)
	case *Group:
		return evaluateGroup(*n, doc)
	case Compare:
		return evaluateCompare(n, doc)
	case *Compare:
		return evaluateCompare(*n, doc)
	default:
		return false
	}
}

func evaluateGroup(g Group, doc Document) bool {
	switch g.Operator {
	case OpAnd:
		for _, o := range g.Operands {
			if !Evaluate(o, doc) {
				return false
			}
		}
		return true
	case OpOr:
		for _, o := range g.Operands {
			if Evaluate(o, doc) {
				return true
			}
		}
		return false
	}
	return false
}

func evaluateCompare(c Compare, doc Document) bool {
	actual, present := doc.Lookup(c.Path)
	if c.Operator == OpIsNull {
		want, _ := c.Value.Value.(bool)
		return want == (!present || actual == nil)
	}
	if !present || actual == nil {
		return false
	}

	if elems, ok := actual.([]any); ok {
		if c.Operator == OpNotEqual {
			for _, e := range elems {
				if cmp, ok := compareValues(e, c.Value); ok && cmp == 0 {
					return false
				}
			}
			return true
		}
		for _, e := range elems {
			if matchOne(c.Operator, e, c.Value) {
				return true
			}
		}
		return false
	}
	return matchOne(c.Operator, actual, c.Value)
}

func matchOne(op FilterOperator, actual any, want TypedValue) bool {
	cmp, ok := compareValues(actual, want)
	if !ok {
		return false
	}
	switch op {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpLessThan:
		return cmp < 0
	case OpLessThanEqual:
		return cmp <= 0
	case OpGreaterThan:
		return cmp > 0
	case OpGreaterThanEqual:
		return cmp >= 0
	}
	return false
}

// compareValues orders actual against want in want's slot.
func compareValues(actual any, want TypedValue) (int, bool) {
	switch want.Slot {
	case SlotInt:
		a, err := cast.ToInt64E(actual)
		if err != nil {
			return 0, false
		}
		w, err := cast.ToInt64E(want.Value)
		if err != nil {
			return 0, false
		}
		return compareOrdered(a, w), true

	case SlotNumber:
		a, err := cast.ToFloat64E(actual)
		if err != nil {
			return 0, false
		}
		w, err := cast.ToFloat64E(want.Value)
		if err != nil {
			return 0, false
		}
		return compareOrdered(a, w), true

	case SlotBoolean:
		a, err := cast.ToBoolE(actual)
		if err != nil {
			return 0, false
		}
		w, err := cast.ToBoolE(want.Value)
		if err != nil {
			return 0, false
		}
		return compareOrdered(boolRank(a), boolRank(w)), true

	case SlotDate:
		a, errA := cast.ToTimeE(actual)
		w, errW := cast.ToTimeE(want.Value)
		if errA == nil && errW == nil {
			return a.Compare(w), true
		}
		return compareText(actual, want.Value)

	default:
		return compareText(actual, want.Value)
	}
}

func compareText(actual, want any) (int, bool) {
	a, err := cast.ToStringE(actual)
	if err != nil {
		return 0, false
	}
	w, err := cast.ToStringE(want)
	if err != nil {
		return 0, false
	}
	return strings.Compare(a, w), true
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func compareOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
