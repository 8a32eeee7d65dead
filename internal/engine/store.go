package engine

import (
	"context"

	"github.com/roach88/weavebridge/internal/config"
	"github.com/roach88/weavebridge/internal/queryir"
)

// Store is the native vector store as seen by the engine.
//
// Implementations render queryir values into their own wire format. Every
// method honours ctx cancellation. Errors are returned as-is; the engine
// wraps uncoded errors as STORE_CALL_FAILURE.
type Store interface {
	// FetchByKey returns the object with id, or (nil, nil) when it does not
	// exist. The vector is populated only when withVector is set.
	FetchByKey(ctx context.Context, class, id string, withVector bool) (*queryir.Object, error)

	// Search runs a Get query and returns the native rows, keyed by the
	// response keys of q.Selection.
	Search(ctx context.Context, q queryir.GetQuery) ([]map[string]any, error)

	// Aggregate runs an aggregate query and returns its native rows.
	Aggregate(ctx context.Context, q queryir.AggregateQuery) ([]map[string]any, error)

	// BatchInsert stores objects and reports one result per object, in
	// order. A rejected object is a result, not an error.
	BatchInsert(ctx context.Context, class string, objects []queryir.Object) ([]queryir.InsertResult, error)

	// BatchDelete deletes the objects of class matching where. A nil where
	// matches every object.
	BatchDelete(ctx context.Context, class string, where queryir.Filter) (queryir.DeleteResult, error)
}

// Connector opens a Store for one request's configuration.
type Connector interface {
	Connect(cfg config.Config) (Store, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(cfg config.Config) (Store, error)

// Connect calls f(cfg).
func (f ConnectorFunc) Connect(cfg config.Config) (Store, error) {
	return f(cfg)
}

// StaticConnector always returns the same Store, whatever the
// configuration. Used for the local backend and tests.
func StaticConnector(s Store) Connector {
	return ConnectorFunc(func(config.Config) (Store, error) {
		return s, nil
	})
}
