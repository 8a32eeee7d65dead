package queryir

// Filter is a node of a compiled, store-native where filter.
//
// This is a sealed interface - only types in this package implement it.
// A nil Filter means "no constraint".
type Filter interface {
	filterNode() // Marker method - seals interface to this package
}

// FilterOperator is a store-native filter operator name.
type FilterOperator string

const (
	OpAnd              FilterOperator = "And"
	OpOr               FilterOperator = "Or"
	OpEqual            FilterOperator = "Equal"
	OpNotEqual         FilterOperator = "NotEqual"
	OpLessThan         FilterOperator = "LessThan"
	OpLessThanEqual    FilterOperator = "LessThanEqual"
	OpGreaterThan      FilterOperator = "GreaterThan"
	OpGreaterThanEqual FilterOperator = "GreaterThanEqual"
	OpIsNull           FilterOperator = "IsNull"
)

// ValueSlot names the typed value field a comparison value is written to.
type ValueSlot string

const (
	SlotText    ValueSlot = "valueText"
	SlotInt     ValueSlot = "valueInt"
	SlotBoolean ValueSlot = "valueBoolean"
	SlotNumber  ValueSlot = "valueNumber"
	SlotDate    ValueSlot = "valueDate"
)

// TypedValue is a comparison value placed in its native slot.
//
// Value holds string for SlotText and SlotDate, int64 for SlotInt, float64
// for SlotNumber and bool for SlotBoolean.
type TypedValue struct {
	Slot  ValueSlot
	Value any
}

// Compare tests the property at Path against Value.
//
// For OpIsNull, Value is a SlotBoolean: true matches missing or null
// properties, false matches present ones.
type Compare struct {
	Operator FilterOperator
	Path     []string
	Value    TypedValue
}

func (Compare) filterNode() {}

// Group combines operands with OpAnd or OpOr.
type Group struct {
	Operator FilterOperator
	Operands []Filter
}

func (Group) filterNode() {}

// Negation is the logical complement of Operand.
type Negation struct {
	Operand Filter
}

func (Negation) filterNode() {}

// AndOf conjoins filters, dropping nil operands.
// It returns nil when nothing is left and the operand itself when only one
// is left.
func AndOf(filters ...Filter) Filter {
	return groupOf(OpAnd, filters)
}

// OrOf disjoins filters, dropping nil operands, with the same collapsing
// rules as AndOf.
func OrOf(filters ...Filter) Filter {
	return groupOf(OpOr, filters)
}

func groupOf(op FilterOperator, filters []Filter) Filter {
	operands := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			operands = append(operands, f)
		}
	}
	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return Group{Operator: op, Operands: operands}
	}
}

// Equal is shorthand for an equality comparison.
func Equal(path []string, v TypedValue) Compare {
	return Compare{Operator: OpEqual, Path: path, Value: v}
}

// Text wraps s in a SlotText value.
func Text(s string) TypedValue {
	return TypedValue{Slot: SlotText, Value: s}
}

// Int wraps n in a SlotInt value.
func Int(n int64) TypedValue {
	return TypedValue{Slot: SlotInt, Value: n}
}

// Number wraps f in a SlotNumber value.
func Number(f float64) TypedValue {
	return TypedValue{Slot: SlotNumber, Value: f}
}

// Boolean wraps b in a SlotBoolean value.
func Boolean(b bool) TypedValue {
	return TypedValue{Slot: SlotBoolean, Value: b}
}

// Date wraps an RFC 3339 timestamp in a SlotDate value.
func Date(s string) TypedValue {
	return TypedValue{Slot: SlotDate, Value: s}
}
