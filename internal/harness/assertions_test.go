package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryResult() *Result {
	r := NewResult()
	r.Trace = []TraceEvent{
		{
			Step: "titles",
			Kind: KindQuery,
			Response: map[string]any{"rows": []any{
				map[string]any{"title": "Moon", "meta": map[string]any{"lang": "en", "words": float64(120)}},
				map[string]any{"title": "Mars"},
			}},
		},
		{
			Step:     "write",
			Kind:     KindMutation,
			Response: map[string]any{"operation_results": []any{map[string]any{"affected_rows": float64(2)}}},
		},
		{
			Step:  "update",
			Kind:  KindMutation,
			Error: &StepError{Code: "NOT_IMPLEMENTED", Message: "update not implemented"},
		},
	}
	return r
}

func TestEvaluateAssertions(t *testing.T) {
	testCases := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"row count", Assertion{Type: AssertRowCount, Step: "titles", Count: 2}, ""},
		{"row count mismatch", Assertion{Type: AssertRowCount, Step: "titles", Count: 1}, "1 rows from titles"},
		{"row count on failed step", Assertion{Type: AssertRowCount, Step: "update", Count: 0}, "step \"update\" to succeed"},
		{"row contains", Assertion{Type: AssertRowContains, Step: "titles", Expect: map[string]any{"title": "Moon"}}, ""},
		{"row contains nested subset", Assertion{Type: AssertRowContains, Step: "titles", Expect: map[string]any{"meta": map[string]any{"words": 120}}}, ""},
		{"row contains mismatch", Assertion{Type: AssertRowContains, Step: "titles", Index: 1, Expect: map[string]any{"title": "Moon"}}, "row 1 to contain"},
		{"row contains out of range", Assertion{Type: AssertRowContains, Step: "titles", Index: 5, Expect: map[string]any{"title": "Moon"}}, "2 rows"},
		{"error code", Assertion{Type: AssertErrorCode, Step: "update", Code: "NOT_IMPLEMENTED"}, ""},
		{"error code on success", Assertion{Type: AssertErrorCode, Step: "titles", Code: "NOT_IMPLEMENTED"}, "Actual: success"},
		{"affected rows", Assertion{Type: AssertAffectedRows, Step: "write", Counts: []int{2}}, ""},
		{"affected rows mismatch", Assertion{Type: AssertAffectedRows, Step: "write", Counts: []int{3}}, "[3]"},
		{"missing step", Assertion{Type: AssertRowCount, Step: "nope"}, "step \"nope\" in trace"},
		{"object count without store", Assertion{Type: AssertObjectCount, Class: "Article"}, "requires store context"},
		{"unknown type", Assertion{Type: "trace_order"}, "unknown assertion type"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			errs := EvaluateAssertions(queryResult(), []Assertion{tc.assertion}, nil)
			if tc.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tc.wantErr)
		})
	}
}

func TestMatchSubset(t *testing.T) {
	actual := map[string]any{
		"a": "x",
		"b": map[string]any{"c": float64(1), "d": []any{"p", "q"}},
	}

	assert.True(t, matchSubset(actual, map[string]any{}))
	assert.True(t, matchSubset(actual, map[string]any{"a": "x"}))
	assert.True(t, matchSubset(actual, map[string]any{"b": map[string]any{"c": float64(1)}}))
	assert.True(t, matchSubset(actual, map[string]any{"b": map[string]any{"d": []any{"p", "q"}}}))
	assert.False(t, matchSubset(actual, map[string]any{"b": map[string]any{"d": []any{"p"}}}))
	assert.False(t, matchSubset(actual, map[string]any{"z": nil}))
	assert.False(t, matchSubset("x", map[string]any{"a": "x"}))
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertRowCount,
		Expected: "2 rows from titles",
		Actual:   "1 rows",
		Trace:    queryResult().Trace,
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: row_count")
	assert.Contains(t, msg, "[1] query titles: ok")
	assert.Contains(t, msg, "[3] mutation update: NOT_IMPLEMENTED")
}
