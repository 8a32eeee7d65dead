package weaviate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	client "github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/fault"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/roach88/weavebridge/internal/config"
	"github.com/roach88/weavebridge/internal/engine"
	"github.com/roach88/weavebridge/internal/querygql"
	"github.com/roach88/weavebridge/internal/queryir"
)

// OpenAIKeyHeader carries the model provider key to Weaviate modules.
const OpenAIKeyHeader = "X-Azure-Api-Key"

// DefaultTimeout bounds every HTTP call to the store.
const DefaultTimeout = 60 * time.Second

// Store is an engine.Store backed by a Weaviate instance.
type Store struct {
	client   *client.Client
	renderer *querygql.Renderer
}

var _ engine.Store = (*Store)(nil)

// ClientConfig maps a connection config to the client's configuration.
func ClientConfig(cfg config.Config) client.Config {
	c := client.Config{
		Host:             cfg.Host,
		Scheme:           cfg.Scheme,
		ConnectionClient: &http.Client{Timeout: DefaultTimeout},
		Headers:          map[string]string{},
	}
	if cfg.APIKey != "" {
		c.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}
	if cfg.OpenAIKey != "" {
		c.Headers[OpenAIKeyHeader] = cfg.OpenAIKey
	}
	return c
}

// Open creates a Store for cfg. No request is sent until the first call.
func Open(cfg config.Config) (*Store, error) {
	c, err := client.NewClient(ClientConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return &Store{client: c, renderer: querygql.NewRenderer()}, nil
}

// Connector opens a new Store for every request configuration.
func Connector() engine.Connector {
	return engine.ConnectorFunc(func(cfg config.Config) (engine.Store, error) {
		return Open(cfg)
	})
}

// FetchByKey implements engine.Store.
func (s *Store) FetchByKey(ctx context.Context, class, id string, withVector bool) (*queryir.Object, error) {
	getter := s.client.Data().ObjectsGetter().WithClassName(class).WithID(id)
	if withVector {
		getter = getter.WithVector()
	}

	objs, err := getter.Do(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(objs) == 0 || objs[0] == nil {
		return nil, nil
	}
	obj := fromModel(objs[0])
	return &obj, nil
}

// Search implements engine.Store.
func (s *Store) Search(ctx context.Context, q queryir.GetQuery) ([]map[string]any, error) {
	text, err := s.renderer.RenderGet(q)
	if err != nil {
		return nil, err
	}
	return s.raw(ctx, text, "Get", q.Class)
}

// Aggregate implements engine.Store.
func (s *Store) Aggregate(ctx context.Context, q queryir.AggregateQuery) ([]map[string]any, error) {
	text, err := s.renderer.RenderAggregate(q)
	if err != nil {
		return nil, err
	}
	return s.raw(ctx, text, "Aggregate", q.Class)
}

func (s *Store) raw(ctx context.Context, query, root, class string) ([]map[string]any, error) {
	resp, err := s.client.GraphQL().Raw().WithQuery(query).Do(ctx)
	if err != nil {
		return nil, err
	}
	if err := graphQLError(resp); err != nil {
		return nil, fmt.Errorf("graphql: %w", err)
	}
	return rowsOf(resp, root, class)
}

// BatchInsert implements engine.Store.
func (s *Store) BatchInsert(ctx context.Context, class string, objects []queryir.Object) ([]queryir.InsertResult, error) {
	batch := make([]*models.Object, len(objects))
	for i, o := range objects {
		o.Class = class
		batch[i] = toModel(o)
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(batch...).Do(ctx)
	if err != nil {
		return nil, err
	}
	return insertResults(resp), nil
}

// BatchDelete implements engine.Store. Output is requested in verbose mode
// so the response lists each deleted object.
func (s *Store) BatchDelete(ctx context.Context, class string, where queryir.Filter) (queryir.DeleteResult, error) {
	w, err := toWhere(where)
	if err != nil {
		return queryir.DeleteResult{}, err
	}

	resp, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(class).
		WithOutput("verbose").
		WithWhere(w).
		Do(ctx)
	if err != nil {
		return queryir.DeleteResult{}, err
	}
	if resp == nil || resp.Results == nil {
		return queryir.DeleteResult{}, nil
	}
	return queryir.DeleteResult{Matches: int(resp.Results.Matches)}, nil
}

func isNotFound(err error) bool {
	var clientErr *fault.WeaviateClientError
	return errors.As(err, &clientErr) && clientErr.StatusCode == http.StatusNotFound
}
