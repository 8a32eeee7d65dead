package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cast"

	"github.com/roach88/weavebridge/internal/compiler"
	"github.com/roach88/weavebridge/internal/config"
	"github.com/roach88/weavebridge/internal/ir"
	"github.com/roach88/weavebridge/internal/logging"
	"github.com/roach88/weavebridge/internal/metrics"
	"github.com/roach88/weavebridge/internal/queryir"
)

// DefaultPoolSize bounds the number of foreach entries executing at once
// across all requests served by one Engine.
const DefaultPoolSize = 16

// Engine executes query and mutation requests against a Store.
//
// Thread-safety model:
//   - Query() and Mutate(): safe from any goroutine
//   - Close(): call once, after the last request has returned
//
// An Engine keeps no per-request state. The only shared resource is the
// fan-out worker pool.
type Engine struct {
	connector Connector
	logger    *slog.Logger
	ids       RequestIDGenerator
	poolSize  int
	pool      *ants.Pool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRequestIDs sets the request ID generator. Defaults to UUIDv7.
func WithRequestIDs(g RequestIDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithPoolSize sets the fan-out pool size.
//
// Default: 16 (DefaultPoolSize). Values below 1 keep the default.
func WithPoolSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.poolSize = n
		}
	}
}

// New creates an Engine that opens stores through connector.
func New(connector Connector, opts ...Option) (*Engine, error) {
	e := &Engine{
		connector: connector,
		logger:    logging.Discard(),
		ids:       UUIDv7Generator{},
		poolSize:  DefaultPoolSize,
	}
	for _, opt := range opts {
		opt(e)
	}

	pool, err := ants.NewPool(e.poolSize)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	e.pool = pool
	return e, nil
}

// Close releases the worker pool.
func (e *Engine) Close() {
	e.pool.Release()
}

// Query validates cfg, plans req and executes the plan.
//
// Configuration problems are reported before planning; planning problems
// before any store call.
func (e *Engine) Query(ctx context.Context, cfg config.Config, req *ir.QueryRequest) (*ir.QueryResponse, error) {
	logger := e.logger.With("request_id", e.ids.Generate())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	plan, err := PlanQuery(req)
	if err != nil {
		logger.Debug("query rejected", "error", err)
		return nil, err
	}
	logger = logger.With("fingerprint", ir.QueryFingerprint(req))
	metrics.PlansTotal.WithLabelValues(string(plan.Strategy)).Inc()
	for _, w := range plan.Warnings {
		logger.Warn("query plan warning", "class", plan.Class, "warning", w)
	}
	logger.Debug("query planned", "class", plan.Class, "strategy", plan.Strategy, "queries", len(plan.Queries))

	store, err := e.connector.Connect(cfg)
	if err != nil {
		return nil, connectError(err)
	}

	return e.Execute(ctx, store, plan, logger)
}

// Execute runs a Plan against store.
func (e *Engine) Execute(ctx context.Context, store Store, plan *Plan, logger *slog.Logger) (*ir.QueryResponse, error) {
	if logger == nil {
		logger = e.logger
	}

	switch plan.Strategy {
	case StrategyByKey:
		return e.executeByKey(ctx, store, plan)
	case StrategyForeach:
		return e.executeForeach(ctx, store, plan, logger)
	case StrategySingle:
		if len(plan.Queries) != 1 {
			return nil, fmt.Errorf("single plan has %d queries", len(plan.Queries))
		}
		return e.executeQuery(ctx, store, plan.Queries[0], plan.Reconstruction)
	default:
		return nil, fmt.Errorf("unknown plan strategy %q", plan.Strategy)
	}
}

func (e *Engine) executeByKey(ctx context.Context, store Store, plan *Plan) (*ir.QueryResponse, error) {
	var obj *queryir.Object
	err := observe("fetch_by_key", func() error {
		var err error
		obj, err = store.FetchByKey(ctx, plan.Class, plan.ID, plan.WithVector)
		return err
	})
	if err != nil {
		return nil, storeError("fetch by key", plan.Class, err)
	}

	resp := &ir.QueryResponse{Rows: []ir.Row{}}
	if obj != nil {
		resp.Rows = append(resp.Rows, compiler.ReconstructObject(*obj, plan.Reconstruction))
	}
	return resp, nil
}

// executeForeach runs every entry on the worker pool. Each task writes its
// own slot; the first error in input order fails the request.
func (e *Engine) executeForeach(ctx context.Context, store Store, plan *Plan, logger *slog.Logger) (*ir.QueryResponse, error) {
	n := len(plan.Queries)
	results := make([]*ir.QueryResponse, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i, qp := range plan.Queries {
		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("foreach entry panicked", "index", i, "panic", r)
					errs[i] = panicError(i, r)
				}
			}()
			results[i], errs[i] = e.executeQuery(ctx, store, qp, plan.Reconstruction)
		})
		if err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("schedule foreach entry %d: %w", i, err)
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			logger.Debug("foreach entry failed", "index", i, "error", err)
			return nil, err
		}
	}

	resp := &ir.QueryResponse{Rows: make([]ir.Row, n)}
	for i, r := range results {
		resp.Rows[i] = ir.Row{"query": *r}
	}
	return resp, nil
}

func (e *Engine) executeQuery(ctx context.Context, store Store, qp QueryPlan, m compiler.ReconstructionMap) (*ir.QueryResponse, error) {
	var native []map[string]any
	err := observe("search", func() error {
		var err error
		native, err = store.Search(ctx, qp.Get)
		return err
	})
	if err != nil {
		return nil, storeError("search", qp.Get.Class, err)
	}

	resp := &ir.QueryResponse{Rows: make([]ir.Row, len(native))}
	for i, row := range native {
		resp.Rows[i] = compiler.Reconstruct(row, m)
	}

	for _, ap := range qp.Aggregates {
		var rows []map[string]any
		err := observe("aggregate", func() error {
			var err error
			rows, err = store.Aggregate(ctx, ap.Query)
			return err
		})
		if err != nil {
			return nil, storeError("aggregate", ap.Query.Class, err)
		}

		if resp.Aggregates == nil {
			resp.Aggregates = map[string]any{}
		}
		switch ap.Alias {
		case ir.AggregateCount:
			count, err := aggregateCount(rows)
			if err != nil {
				return nil, storeError("aggregate", ap.Query.Class, err)
			}
			resp.Aggregates[ap.Alias] = map[string]any{ap.Query.Class: count}
		default:
			resp.Aggregates[ap.Alias] = map[string]any{ap.Query.Class: aggregateRows(rows)}
		}
	}
	return resp, nil
}

// aggregateCount reads meta.count of the first aggregate row. A count the
// store sent but that is not an integer is an error.
func aggregateCount(rows []map[string]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	meta, ok := rows[0]["meta"].(map[string]any)
	if !ok {
		return 0, nil
	}
	count, err := cast.ToInt64E(meta["count"])
	if err != nil {
		return 0, fmt.Errorf("meta.count %v: %w", meta["count"], err)
	}
	return count, nil
}

func aggregateRows(rows []map[string]any) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}

// observe times one store call.
func observe(op string, call func() error) error {
	start := time.Now()
	err := call()
	metrics.StoreCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.StoreCallsTotal.WithLabelValues(op, metrics.Status(err)).Inc()
	return err
}
