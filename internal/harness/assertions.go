package harness

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"github.com/roach88/weavebridge/internal/queryir"
	"github.com/roach88/weavebridge/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			outcome := "ok"
			if event.Error != nil {
				outcome = event.Error.Code
			}
			fmt.Fprintf(&buf, "  [%d] %s %s: %s\n", i+1, event.Kind, event.Step, outcome)
		}
	}

	return buf.String()
}

// stepEvent returns the event of the assertion's step.
func stepEvent(result *Result, a Assertion) (TraceEvent, error) {
	event, ok := result.Event(a.Step)
	if !ok {
		return event, &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("step %q in trace", a.Step),
			Actual:   "not found",
			Trace:    result.Trace,
		}
	}
	return event, nil
}

// succeeded fails unless the step produced a response.
func succeeded(result *Result, a Assertion, event TraceEvent) error {
	if event.Error == nil {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("step %q to succeed", a.Step),
		Actual:   fmt.Sprintf("%s: %s", event.Error.Code, event.Error.Message),
		Trace:    result.Trace,
	}
}

// rowsOf returns the rows of a normalized query response.
func rowsOf(event TraceEvent) []any {
	resp, _ := event.Response.(map[string]any)
	rows, _ := resp["rows"].([]any)
	return rows
}

// assertRowCount checks the number of rows a query step returned.
func assertRowCount(result *Result, a Assertion) error {
	event, err := stepEvent(result, a)
	if err != nil {
		return err
	}
	if err := succeeded(result, a, event); err != nil {
		return err
	}

	if n := len(rowsOf(event)); n != a.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows from %s", a.Count, a.Step),
			Actual:   fmt.Sprintf("%d rows", n),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertRowContains checks one row of a query step (subset match).
func assertRowContains(result *Result, a Assertion) error {
	event, err := stepEvent(result, a)
	if err != nil {
		return err
	}
	if err := succeeded(result, a, event); err != nil {
		return err
	}

	rows := rowsOf(event)
	if a.Index >= len(rows) {
		return &AssertionError{
			Type:     AssertRowContains,
			Expected: fmt.Sprintf("row %d from %s", a.Index, a.Step),
			Actual:   fmt.Sprintf("%d rows", len(rows)),
			Trace:    result.Trace,
		}
	}

	expected, err := normalize(a.Expect)
	if err != nil {
		return err
	}
	if !matchSubset(rows[a.Index], expected) {
		return &AssertionError{
			Type:     AssertRowContains,
			Expected: fmt.Sprintf("row %d to contain %v", a.Index, expected),
			Actual:   fmt.Sprintf("%v", rows[a.Index]),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertErrorCode checks that a step failed with the given code.
func assertErrorCode(result *Result, a Assertion) error {
	event, err := stepEvent(result, a)
	if err != nil {
		return err
	}

	actual := "success"
	if event.Error != nil {
		actual = event.Error.Code
	}
	if actual != a.Code {
		return &AssertionError{
			Type:     AssertErrorCode,
			Expected: fmt.Sprintf("%s from %s", a.Code, a.Step),
			Actual:   actual,
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertAffectedRows checks the per-operation results of a mutation step.
func assertAffectedRows(result *Result, a Assertion) error {
	event, err := stepEvent(result, a)
	if err != nil {
		return err
	}
	if err := succeeded(result, a, event); err != nil {
		return err
	}

	resp, _ := event.Response.(map[string]any)
	ops, _ := resp["operation_results"].([]any)
	actual := make([]int, len(ops))
	for i, op := range ops {
		m, _ := op.(map[string]any)
		actual[i] = cast.ToInt(m["affected_rows"])
	}

	if !reflect.DeepEqual(actual, a.Counts) && !(len(actual) == 0 && len(a.Counts) == 0) {
		return &AssertionError{
			Type:     AssertAffectedRows,
			Expected: fmt.Sprintf("%v", a.Counts),
			Actual:   fmt.Sprintf("%v", actual),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertObjectCount counts the objects of a class left in the store.
func assertObjectCount(ctx context.Context, st *store.Store, a Assertion) error {
	rows, err := st.Aggregate(ctx, queryir.AggregateQuery{
		Class: a.Class,
		Selection: queryir.Selection{
			{Name: "meta", Sub: queryir.Fields("count")},
		},
	})
	if err != nil {
		return &AssertionError{
			Type:     AssertObjectCount,
			Expected: fmt.Sprintf("aggregate %s", a.Class),
			Actual:   fmt.Sprintf("aggregate error: %v", err),
		}
	}

	count := 0
	if len(rows) > 0 {
		meta, _ := rows[0]["meta"].(map[string]any)
		count = cast.ToInt(meta["count"])
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertObjectCount,
			Expected: fmt.Sprintf("%d %s objects", a.Count, a.Class),
			Actual:   fmt.Sprintf("%d objects", count),
		}
	}
	return nil
}

// matchSubset reports whether actual contains every key of expected with an
// equal value. Nested objects match by subset too; lists match exactly.
func matchSubset(actual, expected any) bool {
	expMap, ok := expected.(map[string]any)
	if !ok {
		return reflect.DeepEqual(actual, expected)
	}
	actMap, ok := actual.(map[string]any)
	if !ok {
		return false
	}
	for key, expVal := range expMap {
		actVal, exists := actMap[key]
		if !exists {
			return false
		}
		if !matchSubset(actVal, expVal) {
			return false
		}
	}
	return true
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides store access for object_count assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRowCount:
			err = assertRowCount(result, assertion)
		case AssertRowContains:
			err = assertRowContains(result, assertion)
		case AssertErrorCode:
			err = assertErrorCode(result, assertion)
		case AssertAffectedRows:
			err = assertAffectedRows(result, assertion)
		case AssertObjectCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: object_count requires store context", i)
			} else {
				err = assertObjectCount(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
