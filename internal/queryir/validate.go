package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult contains non-fatal findings about a native query.
//
// Warnings describe constructs the store will accept but that probably do
// not do what the caller intended (modifiers with nothing to modify, empty
// groups). They are logged by the planner and printed by the plan command;
// they never fail a request.
type ValidationResult struct {
	// Clean is true when no warnings were produced.
	Clean bool

	// Warnings lists the findings in traversal order.
	Warnings []string
}

// Validate inspects a Get query for suspicious but legal constructs.
//
// Checks:
//  1. Modifiers (properties, autocut) present without an active directive
//  2. Target properties on nearText, which ignores them
//  3. Empty groups and comparisons without a path
//  4. Negations left in the filter (renderers expect them pushed down)
//
// Validate is a pure function with no side effects.
func Validate(q GetQuery) ValidationResult {
	v := &validator{warnings: []string{}}
	v.validateDirective(q.Directive)
	v.validateFilter(q.Where, "where")
	if len(q.Selection) == 0 {
		v.addWarning("empty selection - the store rejects queries without fields")
	}

	return ValidationResult{
		Clean:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// ValidateAggregate inspects an aggregate query.
func ValidateAggregate(q AggregateQuery) ValidationResult {
	v := &validator{warnings: []string{}}
	v.validateFilter(q.Where, "where")
	for _, p := range q.GroupBy {
		if strings.TrimSpace(p) == "" {
			v.addWarning("empty group-by path element")
		}
	}
	return ValidationResult{
		Clean:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

// addWarning appends a warning message.
func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateDirective(d *SearchDirective) {
	if d == nil {
		return
	}
	if !d.Active() {
		if d.Autocut != nil {
			v.addWarning("autocut ignored: no search directive")
		}
		if len(d.Properties) > 0 {
			v.addWarning("with_properties ignored: no search directive")
		}
		return
	}
	if d.Kind == DirectiveNearText && len(d.Properties) > 0 {
		v.addWarning("with_properties ignored by nearText")
	}
	if strings.TrimSpace(d.Text) == "" {
		v.addWarning("%s directive has empty text", d.Kind)
	}
}

func (v *validator) validateFilter(f Filter, at string) {
	switch n := f.(type) {
	case nil:
		return
	case Group:
		if len(n.Operands) == 0 {
			v.addWarning("%s: empty %s group", at, n.Operator)
		}
		for i, o := range n.Operands {
			v.validateFilter(o, fmt.Sprintf("%s.%s[%d]", at, n.Operator, i))
		}
	case Compare:
		if len(n.Path) == 0 {
			v.addWarning("%s: %s comparison without a path", at, n.Operator)
		}
	case Negation:
		v.addWarning("%s: negation not pushed down", at)
		v.validateFilter(n.Operand, at+".Not")
	default:
		v.addWarning("%s: unknown filter node %T", at, f)
	}
}
