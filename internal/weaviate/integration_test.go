//go:build integration

package weaviate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/roach88/weavebridge/internal/config"
	"github.com/roach88/weavebridge/internal/queryir"
)

const weaviateImage = "cr.weaviate.io/semitechnologies/weaviate:1.26.1"

// startWeaviate runs a throwaway Weaviate with anonymous access and no
// vectorizer, and returns a Store connected to it.
func startWeaviate(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        weaviateImage,
			ExposedPorts: []string{"8080/tcp"},
			Env: map[string]string{
				"AUTHENTICATION_ANONYMOUS_ACCESS_ENABLED": "true",
				"DEFAULT_VECTORIZER_MODULE":               "none",
				"PERSISTENCE_DATA_PATH":                   "/var/lib/weaviate",
				"CLUSTER_HOSTNAME":                        "node1",
			},
			WaitingFor: wait.ForHTTP("/v1/.well-known/ready").
				WithPort("8080/tcp").
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	store, err := Open(config.Config{Scheme: "http", Host: endpoint})
	require.NoError(t, err)

	err = store.client.Schema().ClassCreator().WithClass(&models.Class{
		Class:               "Article",
		Vectorizer:          "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{IndexNullState: true},
		Properties:          []*models.Property{
			{Name: "title", DataType: []string{"text"}},
			{Name: "lang", DataType: []string{"text"}},
			{Name: "wordCount", DataType: []string{"int"}},
		},
	}).Do(ctx)
	require.NoError(t, err)

	return store
}

func TestIntegration_RoundTrip(t *testing.T) {
	store := startWeaviate(t)
	ctx := context.Background()

	results, err := store.BatchInsert(ctx, "Article", []queryir.Object{
		{ID: testID, Vector: []float32{0.1, 0.2, 0.3}, Properties: map[string]any{"title": "Moon", "lang": "en", "wordCount": 120}},
		{Properties: map[string]any{"title": "Mond", "lang": "de", "wordCount": 80}},
		{Properties: map[string]any{"title": "Lune", "lang": "fr", "wordCount": 95}},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, queryir.InsertSuccess, r.Status, strings.Join(r.Errors, "; "))
	}

	obj, err := store.FetchByKey(ctx, "Article", testID, true)
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, "Moon", obj.Properties["title"])
	assert.Len(t, obj.Vector, 3)

	missing, err := store.FetchByKey(ctx, "Article", "7c9e6679-7425-40de-944b-e07fc1f90ae7", false)
	require.NoError(t, err)
	assert.Nil(t, missing)

	rows, err := store.Search(ctx, queryir.GetQuery{
		Class:     "Article",
		Selection: queryir.Fields("title"),
		Where: queryir.Compare{
			Operator: queryir.OpGreaterThan,
			Path:     []string{"wordCount"},
			Value:    queryir.Int(90),
		},
	})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	agg, err := store.Aggregate(ctx, queryir.AggregateQuery{
		Class:     "Article",
		Selection: queryir.Selection{{Name: "meta", Sub: queryir.Fields("count")}},
	})
	require.NoError(t, err)
	require.Len(t, agg, 1)

	deleted, err := store.BatchDelete(ctx, "Article", queryir.Negation{
		Operand: queryir.Equal([]string{"lang"}, queryir.Text("en")),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted.Matches)

	deleted, err = store.BatchDelete(ctx, "Article", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted.Matches)
}
