package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cast"

	"github.com/roach88/weavebridge/internal/compiler"
	"github.com/roach88/weavebridge/internal/config"
	"github.com/roach88/weavebridge/internal/ir"
	"github.com/roach88/weavebridge/internal/metrics"
	"github.com/roach88/weavebridge/internal/queryir"
)

// MutationStep is one compiled mutation operation.
type MutationStep struct {
	Type  string
	Class string

	// Objects is set for inserts.
	Objects []queryir.Object

	// Where is set for deletes. Nil deletes every object of Class.
	Where queryir.Filter

	// IgnoredDirective is set when a delete filter carried a search
	// directive or modifier, which deletes cannot use.
	IgnoredDirective bool
}

// PlanMutation compiles every operation of req.
//
// The whole request is rejected when any operation is an update or has an
// unknown type, so a failing request never leaves half its operations
// applied.
func PlanMutation(req *ir.MutationRequest) ([]MutationStep, error) {
	if req == nil {
		return nil, ir.NewError(ir.ErrCodeInvalidRequest, "", "mutation request is empty")
	}

	for i, op := range req.Operations {
		switch op.Type {
		case ir.MutationInsert, ir.MutationDelete:
		case ir.MutationUpdate:
			return nil, ir.NewError(ir.ErrCodeNotImplemented, op.Type, "operation %d: update not implemented", i)
		default:
			return nil, ir.NewError(ir.ErrCodeUnsupportedOperator, op.Type, "operation %d: unknown mutation type", i)
		}
	}

	steps := make([]MutationStep, 0, len(req.Operations))
	for i, op := range req.Operations {
		class, err := op.TableName()
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}

		step := MutationStep{Type: op.Type, Class: class}
		switch op.Type {
		case ir.MutationInsert:
			step.Objects = make([]queryir.Object, len(op.Rows))
			for j, row := range op.Rows {
				obj, err := rowToObject(class, row)
				if err != nil {
					return nil, fmt.Errorf("operation %d row %d: %w", i, j, err)
				}
				step.Objects[j] = obj
			}
		case ir.MutationDelete:
			where, directive, err := compiler.Compile(op.Where, nil)
			if err != nil {
				return nil, fmt.Errorf("operation %d: %w", i, err)
			}
			step.Where = queryir.PushDownNegations(where)
			step.IgnoredDirective = directive != nil
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// rowToObject splits a row into object-level built-ins and properties.
func rowToObject(class string, row map[string]any) (queryir.Object, error) {
	obj := queryir.Object{Class: class, Properties: map[string]any{}}

	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		v := row[k]
		if !compiler.IsBuiltin(k) {
			obj.Properties[k] = v
			continue
		}

		var err error
		switch k {
		case "id":
			obj.ID, err = cast.ToStringE(v)
		case "vector":
			obj.Vector, err = toVector(v)
		case "creationTimeUnix":
			obj.CreationTimeUnix, err = cast.ToInt64E(v)
		case "lastUpdateTimeUnix":
			obj.LastUpdateTimeUnix, err = cast.ToInt64E(v)
		default:
			if obj.Additional == nil {
				obj.Additional = map[string]any{}
			}
			obj.Additional[k] = v
		}
		if err != nil {
			return queryir.Object{}, ir.NewError(ir.ErrCodeUnsupportedExpression, k, "invalid built-in value: %v", err)
		}
	}
	return obj, nil
}

func toVector(v any) ([]float32, error) {
	if v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("vector must be an array, got %T", v)
	}
	out := make([]float32, len(items))
	for i, item := range items {
		f, err := cast.ToFloat32E(item)
		if err != nil {
			return nil, fmt.Errorf("vector[%d]: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// Mutate validates cfg, compiles every operation, then applies them in
// order.
func (e *Engine) Mutate(ctx context.Context, cfg config.Config, req *ir.MutationRequest) (*ir.MutationResponse, error) {
	logger := e.logger.With("request_id", e.ids.Generate())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	steps, err := PlanMutation(req)
	if err != nil {
		logger.Debug("mutation rejected", "error", err)
		return nil, err
	}
	logger = logger.With("fingerprint", ir.MutationFingerprint(req))

	store, err := e.connector.Connect(cfg)
	if err != nil {
		return nil, connectError(err)
	}

	return e.ApplyMutation(ctx, store, steps, logger)
}

// ApplyMutation runs compiled steps against store, in order. A store failure
// stops the request; earlier steps stay applied.
func (e *Engine) ApplyMutation(ctx context.Context, store Store, steps []MutationStep, logger *slog.Logger) (*ir.MutationResponse, error) {
	if logger == nil {
		logger = e.logger
	}

	resp := &ir.MutationResponse{OperationResults: make([]ir.OperationResult, 0, len(steps))}
	for i, step := range steps {
		var affected int
		var err error
		switch step.Type {
		case ir.MutationInsert:
			affected, err = e.applyInsert(ctx, store, step, logger)
		case ir.MutationDelete:
			affected, err = e.applyDelete(ctx, store, step, logger)
		default:
			err = ir.NewError(ir.ErrCodeUnsupportedOperator, step.Type, "unknown mutation type")
		}
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		resp.OperationResults = append(resp.OperationResults, ir.OperationResult{AffectedRows: affected})
	}
	return resp, nil
}

func (e *Engine) applyInsert(ctx context.Context, store Store, step MutationStep, logger *slog.Logger) (int, error) {
	if len(step.Objects) == 0 {
		return 0, nil
	}

	var results []queryir.InsertResult
	err := observe("batch_insert", func() error {
		var err error
		results, err = store.BatchInsert(ctx, step.Class, step.Objects)
		return err
	})
	if err != nil {
		return 0, storeError("batch insert", step.Class, err)
	}

	affected := 0
	for _, r := range results {
		if r.Status == queryir.InsertSuccess {
			affected++
			continue
		}
		metrics.InsertFailuresTotal.WithLabelValues(step.Class).Inc()
		logger.Error("insert failed", "class", step.Class, "id", r.ID, "status", r.Status, "errors", r.Errors)
	}
	return affected, nil
}

func (e *Engine) applyDelete(ctx context.Context, store Store, step MutationStep, logger *slog.Logger) (int, error) {
	if step.IgnoredDirective {
		logger.Warn("delete ignores search directives", "class", step.Class)
	}

	var result queryir.DeleteResult
	err := observe("batch_delete", func() error {
		var err error
		result, err = store.BatchDelete(ctx, step.Class, step.Where)
		return err
	})
	if err != nil {
		return 0, storeError("batch delete", step.Class, err)
	}

	logger.Debug("delete response", "class", step.Class, "matches", result.Matches)
	return result.Matches, nil
}
