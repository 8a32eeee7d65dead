package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/weavebridge/internal/config"
	"github.com/roach88/weavebridge/internal/engine"
	"github.com/roach88/weavebridge/internal/ir"
	"github.com/roach88/weavebridge/internal/logging"
	"github.com/roach88/weavebridge/internal/queryir"
	"github.com/roach88/weavebridge/internal/store"
)

// Clock is the fixed time every scenario store stamps objects with.
var Clock = time.UnixMilli(1700000000000)

// Harness runs one scenario against a private in-memory store.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	cfg    config.Config
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a fixed clock, so
// the trace is identical across runs. An error is returned only when the
// harness itself cannot run; step failures are recorded in the trace.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, logging.Discard())
}

// RunWithLogger is Run with engine logging sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	st, err := store.Open(":memory:", store.WithClock(func() time.Time { return Clock }))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	eng, err := engine.New(st.Connector(),
		engine.WithLogger(logger),
		engine.WithRequestIDs(engine.NewSequenceGenerator(scenario.Name)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	defer eng.Close()

	h := &Harness{
		store:  st,
		engine: eng,
		cfg:    config.Offline(),
		logger: logger,
	}

	ctx := context.Background()

	if err := h.seed(ctx, scenario.Seed); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		event, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Name, err)
		}
		result.Trace = append(result.Trace, event)
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// seed inserts the seed objects one at a time, in file order.
func (h *Harness) seed(ctx context.Context, objects []SeedObject) error {
	for i, obj := range objects {
		results, err := h.store.BatchInsert(ctx, obj.Class, []queryir.Object{{
			Class:      obj.Class,
			ID:         obj.ID,
			Vector:     obj.Vector,
			Properties: obj.Properties,
		}})
		if err != nil {
			return fmt.Errorf("seed[%d]: %w", i, err)
		}
		if len(results) != 1 || results[0].Status != queryir.InsertSuccess {
			return fmt.Errorf("seed[%d]: object rejected: %v", i, results)
		}
	}
	h.logger.Debug("store seeded", "objects", len(objects))
	return nil
}

// execute runs one step. Engine errors become the event's Error; only a
// step that cannot be encoded returns an error.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	event := TraceEvent{Step: step.Name, Kind: step.Kind()}

	var (
		resp any
		err  error
	)
	switch event.Kind {
	case KindMutation:
		body, encErr := encodeStep(step.Mutation)
		if encErr != nil {
			return event, encErr
		}
		var req *ir.MutationRequest
		if req, err = ir.DecodeMutationRequest(body); err == nil {
			resp, err = h.engine.Mutate(ctx, h.cfg, req)
		}
	default:
		body, encErr := encodeStep(step.Query)
		if encErr != nil {
			return event, encErr
		}
		var req *ir.QueryRequest
		if req, err = ir.DecodeQueryRequest(body); err == nil {
			resp, err = h.engine.Query(ctx, h.cfg, req)
		}
	}

	if err != nil {
		event.Error = stepError(err)
		h.logger.Debug("step failed", "step", step.Name, "code", event.Error.Code)
		return event, nil
	}

	generic, err := normalize(resp)
	if err != nil {
		return event, err
	}
	event.Response = generic
	h.logger.Debug("step completed", "step", step.Name, "kind", event.Kind)
	return event, nil
}

// encodeStep turns a YAML request tree into its JSON wire form.
func encodeStep(request map[string]any) (*bytes.Reader, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return bytes.NewReader(data), nil
}

func stepError(err error) *StepError {
	code := string(ir.CodeOf(err))
	if code == "" {
		code = "uncaught-error"
	}
	return &StepError{Code: code, Message: err.Error()}
}

// normalize converts v into a plain JSON tree (maps, slices, float64,
// strings, bools) so responses compare equal to YAML expectations.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	return out, nil
}
