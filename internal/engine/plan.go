package engine

import (
	"fmt"
	"slices"

	"github.com/spf13/cast"

	"github.com/roach88/weavebridge/internal/compiler"
	"github.com/roach88/weavebridge/internal/ir"
	"github.com/roach88/weavebridge/internal/querygql"
	"github.com/roach88/weavebridge/internal/queryir"
)

// Strategy is the execution shape chosen for a query request.
type Strategy string

const (
	// StrategyByKey fetches one object through the object API.
	StrategyByKey Strategy = "by_key"

	// StrategyForeach runs one query per foreach entry, concurrently.
	StrategyForeach Strategy = "foreach"

	// StrategySingle runs one query.
	StrategySingle Strategy = "single"
)

// Plan is the store-ready form of a query request.
//
// A Plan is a pure value: building one performs no I/O, and executing the
// same Plan twice issues the same store calls.
type Plan struct {
	Strategy Strategy
	Class    string

	// Reconstruction maps native rows back to requested aliases.
	Reconstruction compiler.ReconstructionMap

	// ID and WithVector are set for StrategyByKey.
	ID         string
	WithVector bool

	// Queries holds one entry for StrategySingle and one per foreach entry,
	// in input order, for StrategyForeach.
	Queries []QueryPlan

	// Warnings are non-fatal findings about the request and its native
	// queries.
	Warnings []string
}

// QueryPlan is one Get query with its aggregates.
type QueryPlan struct {
	Get        queryir.GetQuery
	Aggregates []AggregatePlan
}

// AggregatePlan is one aggregate query answering one requested alias.
type AggregatePlan struct {
	Alias string
	Query queryir.AggregateQuery
}

// answerSelection is added to ask queries; the store reports the extracted
// answer under _additional.answer.
var answerSelection = queryir.SelectionField{
	Name: "answer",
	Sub:  queryir.Fields("hasAnswer", "property", "result", "startPosition", "endPosition"),
}

// PlanQuery turns a canonical query request into a Plan.
//
// Strategies are tried in order:
//  1. by key, when where is exactly equal(id, scalar)
//  2. foreach, when foreach entries are present
//  3. a single query
func PlanQuery(req *ir.QueryRequest) (*Plan, error) {
	if req == nil {
		return nil, ir.NewError(ir.ErrCodeInvalidRequest, "", "query request is empty")
	}

	class, err := req.Target.Table()
	if err != nil {
		return nil, err
	}
	q := req.Query

	selection, reconstruction, err := compiler.ProjectFields(q.Fields)
	if err != nil {
		return nil, err
	}

	if id, ok := byKeyID(q.Where); ok {
		if reconstruction.HasRelationships() {
			return nil, ir.NewError(ir.ErrCodeUnsupportedExpression, "relationship",
				"relationships are not supported in lookups by id")
		}
		_, withVector := q.Fields["vector"]
		return &Plan{
			Strategy:       StrategyByKey,
			Class:          class,
			Reconstruction: reconstruction,
			ID:             id,
			WithVector:     withVector,
		}, nil
	}

	where, directive, err := compiler.Compile(q.Where, nil)
	if err != nil {
		return nil, err
	}

	base := queryir.GetQuery{
		Class:     class,
		Selection: injectSelections(selection, directive),
		Directive: directive,
		Limit:     positive(q.Limit),
		Offset:    positive(q.Offset),
	}
	aggregates := planAggregates(class, q, directive)

	plan := &Plan{
		Strategy:       StrategySingle,
		Class:          class,
		Reconstruction: reconstruction,
		Warnings:       overMatchWarnings(q.Where),
	}

	if len(req.Foreach) > 0 {
		plan.Strategy = StrategyForeach
		plan.Queries = make([]QueryPlan, 0, len(req.Foreach))
		for i, entry := range req.Foreach {
			entryFilter, err := foreachFilter(entry)
			if err != nil {
				return nil, fmt.Errorf("foreach entry %d: %w", i, err)
			}
			plan.Queries = append(plan.Queries, buildQuery(base, aggregates, queryir.AndOf(where, entryFilter)))
		}
	} else {
		plan.Queries = []QueryPlan{buildQuery(base, aggregates, where)}
	}

	plan.Warnings = append(plan.Warnings, lint(plan.Queries)...)
	return plan, nil
}

// byKeyID reports whether where is exactly equal(id, scalar).
func byKeyID(where ir.Expression) (string, bool) {
	var op ir.BinaryOp
	switch e := where.(type) {
	case ir.BinaryOp:
		op = e
	case *ir.BinaryOp:
		op = *e
	default:
		return "", false
	}
	if op.Operator != ir.OpEqual || len(op.Column.Name) != 1 || op.Column.Name[0] != "id" {
		return "", false
	}

	var value any
	switch v := op.Value.(type) {
	case ir.ScalarComparison:
		value = v.Value
	case *ir.ScalarComparison:
		value = v.Value
	default:
		return "", false
	}
	id, err := cast.ToStringE(value)
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}

// injectSelections adds the directive output fields and guarantees a
// non-empty selection.
func injectSelections(sel queryir.Selection, d *queryir.SearchDirective) queryir.Selection {
	out := slices.Clone(sel)

	switch {
	case d.Active() && d.Kind == queryir.DirectiveAsk:
		out = append(out, queryir.SelectionField{
			Name: queryir.AdditionalEnvelope,
			Sub:  queryir.Selection{answerSelection},
		})
	case d.Active() && d.Kind == queryir.DirectiveGenerative:
		out = append(out, queryir.SelectionField{
			Name: queryir.AdditionalEnvelope,
			Sub: queryir.Selection{{
				Name: "generate",
				Args: "groupedResult: {task: " + querygql.Quote(d.Text) + "}",
				Sub:  queryir.Fields("groupedResult", "error"),
			}},
		})
	}

	if len(out) == 0 {
		out = queryir.Selection{{
			Name: queryir.AdditionalEnvelope,
			Sub:  queryir.Fields("id"),
		}}
	}
	return out
}

// planAggregates builds one aggregate per recognised requested alias, in
// alias order. Where is filled in per query by buildQuery.
func planAggregates(class string, q ir.Query, d *queryir.SearchDirective) []AggregatePlan {
	var plans []AggregatePlan

	if q.WantsAggregate(ir.AggregateCount) {
		plans = append(plans, AggregatePlan{
			Alias: ir.AggregateCount,
			Query: queryir.AggregateQuery{
				Class:     class,
				Selection: countSelection(),
			},
		})
	}

	if q.WantsAggregate(ir.AggregateGroupByVector) {
		agg := queryir.AggregateQuery{
			Class:     class,
			Selection: countSelection(),
		}
		if d != nil && len(d.GroupBy) > 0 {
			agg.GroupBy = d.GroupBy
			agg.Selection = append(queryir.Selection{{
				Name: "groupedBy",
				Sub:  queryir.Fields("path", "value"),
			}}, agg.Selection...)
		}
		plans = append(plans, AggregatePlan{Alias: ir.AggregateGroupByVector, Query: agg})
	}

	return plans
}

func countSelection() queryir.Selection {
	return queryir.Selection{{Name: "meta", Sub: queryir.Fields("count")}}
}

func buildQuery(base queryir.GetQuery, aggregates []AggregatePlan, where queryir.Filter) QueryPlan {
	where = queryir.PushDownNegations(where)

	get := base
	get.Where = where

	aggs := make([]AggregatePlan, len(aggregates))
	for i, a := range aggregates {
		a.Query.Where = where
		aggs[i] = a
	}
	return QueryPlan{Get: get, Aggregates: aggs}
}

// foreachFilter ANDs one Equal per entry key, in key order.
func foreachFilter(entry map[string]ir.ScalarValue) (queryir.Filter, error) {
	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	operands := make([]queryir.Filter, 0, len(keys))
	for _, k := range keys {
		v := entry[k]
		typed, err := compiler.EncodeScalar(v.ValueType, v.Value)
		if err != nil {
			return nil, err
		}
		operands = append(operands, queryir.Equal([]string{k}, typed))
	}
	return queryir.AndOf(operands...), nil
}

func positive(n *int) int {
	if n == nil || *n < 0 {
		return 0
	}
	return *n
}

// overMatchWarnings flags request constructs that compile to "no filter".
func overMatchWarnings(expr ir.Expression) []string {
	var warnings []string
	var walk func(e ir.Expression)
	walk = func(e ir.Expression) {
		switch n := e.(type) {
		case ir.And:
			if len(n.Expressions) == 0 {
				warnings = append(warnings, "empty and matches every object")
			}
			for _, c := range n.Expressions {
				walk(c)
			}
		case ir.Or:
			if len(n.Expressions) == 0 {
				warnings = append(warnings, "empty or matches every object")
			}
			for _, c := range n.Expressions {
				walk(c)
			}
		case ir.Not:
			walk(n.Expression)
		case ir.BinaryArrayOp:
			if len(n.Values) == 0 {
				warnings = append(warnings, fmt.Sprintf("in on %s has no values and matches every object", n.Column.FieldName()))
			}
		}
	}
	walk(expr)
	return warnings
}

// lint collects validator warnings across queries, without duplicates.
func lint(queries []QueryPlan) []string {
	var out []string
	seen := map[string]bool{}
	add := func(ws []string) {
		for _, w := range ws {
			if !seen[w] {
				seen[w] = true
				out = append(out, w)
			}
		}
	}
	for _, q := range queries {
		add(queryir.Validate(q.Get).Warnings)
		for _, a := range q.Aggregates {
			add(queryir.ValidateAggregate(a.Query).Warnings)
		}
	}
	return out
}
