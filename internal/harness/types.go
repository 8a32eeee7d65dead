package harness

// Step kinds.
const (
	KindQuery    = "query"
	KindMutation = "mutation"
)

// StepError is the coded failure of one step.
type StepError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TraceEvent records the outcome of one scenario step.
type TraceEvent struct {
	Step     string     `json:"step"`
	Kind     string     `json:"kind"`
	Response any        `json:"response,omitempty"`
	Error    *StepError `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in step order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds assertion failure messages.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Event returns the trace event of the named step.
func (r *Result) Event(step string) (TraceEvent, bool) {
	for _, e := range r.Trace {
		if e.Step == step {
			return e, true
		}
	}
	return TraceEvent{}, false
}
