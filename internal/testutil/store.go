package testutil

import (
	"context"
	"sync"

	"github.com/roach88/weavebridge/internal/queryir"
)

// Call records one store call made against a FakeStore.
type Call struct {
	Op         string
	Class      string
	ID         string
	WithVector bool
	Get        queryir.GetQuery
	Aggregate  queryir.AggregateQuery
	Objects    []queryir.Object
	Where      queryir.Filter
}

// FakeStore is a scripted store.
//
// Each hook, when set, answers its operation; otherwise the store answers
// from Objects (FetchByKey), with no rows (Search, Aggregate), with SUCCESS
// for every object (BatchInsert) and with zero matches (BatchDelete).
// Every call is recorded, including failing ones.
//
// Thread-safety: safe for concurrent use. Hooks must be safe for concurrent
// use themselves when the store serves foreach fan-out.
type FakeStore struct {
	Objects map[string]queryir.Object

	FetchHook     func(ctx context.Context, class, id string, withVector bool) (*queryir.Object, error)
	SearchHook    func(ctx context.Context, q queryir.GetQuery) ([]map[string]any, error)
	AggregateHook func(ctx context.Context, q queryir.AggregateQuery) ([]map[string]any, error)
	InsertHook    func(ctx context.Context, class string, objects []queryir.Object) ([]queryir.InsertResult, error)
	DeleteHook    func(ctx context.Context, class string, where queryir.Filter) (queryir.DeleteResult, error)

	mu    sync.Mutex
	calls []Call
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{Objects: map[string]queryir.Object{}}
}

// Calls returns a copy of the recorded calls in call order.
func (s *FakeStore) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns the recorded calls of one operation.
func (s *FakeStore) CallsTo(op string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (s *FakeStore) record(c Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

// FetchByKey implements engine.Store.
func (s *FakeStore) FetchByKey(ctx context.Context, class, id string, withVector bool) (*queryir.Object, error) {
	s.record(Call{Op: "fetch", Class: class, ID: id, WithVector: withVector})
	if s.FetchHook != nil {
		return s.FetchHook(ctx, class, id, withVector)
	}
	obj, ok := s.Objects[id]
	if !ok || obj.Class != class {
		return nil, nil
	}
	if !withVector {
		obj.Vector = nil
	}
	return &obj, nil
}

// Search implements engine.Store.
func (s *FakeStore) Search(ctx context.Context, q queryir.GetQuery) ([]map[string]any, error) {
	s.record(Call{Op: "search", Class: q.Class, Get: q, Where: q.Where})
	if s.SearchHook != nil {
		return s.SearchHook(ctx, q)
	}
	return nil, nil
}

// Aggregate implements engine.Store.
func (s *FakeStore) Aggregate(ctx context.Context, q queryir.AggregateQuery) ([]map[string]any, error) {
	s.record(Call{Op: "aggregate", Class: q.Class, Aggregate: q, Where: q.Where})
	if s.AggregateHook != nil {
		return s.AggregateHook(ctx, q)
	}
	return nil, nil
}

// BatchInsert implements engine.Store.
func (s *FakeStore) BatchInsert(ctx context.Context, class string, objects []queryir.Object) ([]queryir.InsertResult, error) {
	s.record(Call{Op: "insert", Class: class, Objects: objects})
	if s.InsertHook != nil {
		return s.InsertHook(ctx, class, objects)
	}
	results := make([]queryir.InsertResult, len(objects))
	for i, o := range objects {
		results[i] = queryir.InsertResult{ID: o.ID, Status: queryir.InsertSuccess}
	}
	return results, nil
}

// BatchDelete implements engine.Store.
func (s *FakeStore) BatchDelete(ctx context.Context, class string, where queryir.Filter) (queryir.DeleteResult, error) {
	s.record(Call{Op: "delete", Class: class, Where: where})
	if s.DeleteHook != nil {
		return s.DeleteHook(ctx, class, where)
	}
	return queryir.DeleteResult{}, nil
}
