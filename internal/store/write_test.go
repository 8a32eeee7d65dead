package store

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weavebridge/internal/queryir"
)

func TestBatchInsert_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	results, err := s.BatchInsert(ctx, "Article", []queryir.Object{{
		ID:         articleID(1),
		Vector:     []float32{0.5, 1},
		Properties: map[string]any{"title": "Moon", "wordCount": 9007199254740993},
		Additional: map[string]any{"certainty": 0.9},
	}})
	require.NoError(t, err)
	assert.Equal(t, []queryir.InsertResult{{ID: articleID(1), Status: queryir.InsertSuccess}}, results)

	obj, err := s.FetchByKey(ctx, "Article", articleID(1), true)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, "Article", obj.Class)
	assert.Equal(t, []float32{0.5, 1}, obj.Vector)
	assert.Equal(t, "Moon", obj.Properties["title"])
	assert.Equal(t, json.Number("9007199254740993"), obj.Properties["wordCount"])
	assert.Equal(t, map[string]any{"certainty": json.Number("0.9")}, obj.Additional)
	assert.Equal(t, fixedNow.UnixMilli(), obj.CreationTimeUnix)
	assert.Equal(t, fixedNow.UnixMilli(), obj.LastUpdateTimeUnix)
}

func TestBatchInsert_GeneratesIDs(t *testing.T) {
	s := createTestStore(t)

	results, err := s.BatchInsert(context.Background(), "Article", []queryir.Object{
		{Properties: map[string]any{"title": "a"}},
		{Properties: map[string]any{"title": "b"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.Equal(t, queryir.InsertSuccess, r.Status)
		_, err := uuid.Parse(r.ID)
		assert.NoError(t, err)
	}
	assert.NotEqual(t, results[0].ID, results[1].ID)
}

func TestBatchInsert_PartialFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	results, err := s.BatchInsert(ctx, "Article", []queryir.Object{
		{ID: "not-a-uuid", Properties: map[string]any{"title": "a"}},
		{ID: articleID(2), Properties: map[string]any{"score": math.Inf(1)}},
		{ID: articleID(3), Properties: map[string]any{"title": "c"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, queryir.InsertFailed, results[0].Status)
	assert.Contains(t, results[0].Errors[0], "not a valid UUID")
	assert.Equal(t, queryir.InsertFailed, results[1].Status)
	assert.NotEmpty(t, results[1].Errors)
	assert.Equal(t, queryir.InsertResult{ID: articleID(3), Status: queryir.InsertSuccess}, results[2])

	objects, err := s.scanClass(ctx, "Article")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, articleID(3), objects[0].ID)
}

func TestBatchInsert_ReplacesExisting(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seed(t, s, "Article", article(1, "Moon", "en", 10), article(2, "Sun", "en", 20))

	later := fixedNow.Add(time.Second)
	s.now = func() time.Time { return later }
	seed(t, s, "Article", queryir.Object{ID: articleID(1), Properties: map[string]any{"title": "Moon II"}})

	objects, err := s.scanClass(ctx, "Article")
	require.NoError(t, err)
	require.Len(t, objects, 2)

	assert.Equal(t, articleID(1), objects[0].ID, "replacement keeps insertion position")
	assert.Equal(t, map[string]any{"title": "Moon II"}, objects[0].Properties)
	assert.Equal(t, fixedNow.UnixMilli(), objects[0].CreationTimeUnix)
	assert.Equal(t, later.UnixMilli(), objects[0].LastUpdateTimeUnix)
}

func TestBatchInsert_ClassesAreSeparate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seed(t, s, "Article", article(1, "Moon", "en", 10))
	seed(t, s, "Author", queryir.Object{ID: articleID(1), Properties: map[string]any{"name": "Ada"}})

	obj, err := s.FetchByKey(ctx, "Author", articleID(1), false)
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, "Ada", obj.Properties["name"])

	obj, err = s.FetchByKey(ctx, "Article", articleID(1), false)
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, "Moon", obj.Properties["title"])
}

func TestBatchDelete(t *testing.T) {
	testCases := []struct {
		name      string
		where     queryir.Filter
		matches   int
		remaining []string
	}{
		{
			name:      "equality",
			where:     queryir.Equal([]string{"lang"}, queryir.Text("en")),
			matches:   2,
			remaining: []string{articleID(2)},
		},
		{
			name:      "negation",
			where:     queryir.Negation{Operand: queryir.Equal([]string{"lang"}, queryir.Text("en"))},
			matches:   1,
			remaining: []string{articleID(1), articleID(3)},
		},
		{
			name:      "by id",
			where:     queryir.Equal([]string{"id"}, queryir.Text(articleID(3))),
			matches:   1,
			remaining: []string{articleID(1), articleID(2)},
		},
		{
			name:      "no match",
			where:     queryir.Compare{Operator: queryir.OpGreaterThan, Path: []string{"wordCount"}, Value: queryir.Int(1000)},
			matches:   0,
			remaining: []string{articleID(1), articleID(2), articleID(3)},
		},
		{
			name:      "nil deletes all",
			where:     nil,
			matches:   3,
			remaining: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := createTestStore(t)
			ctx := context.Background()
			seed(t, s, "Article",
				article(1, "Moon", "en", 10),
				article(2, "Mond", "de", 20),
				article(3, "Sun", "en", 30),
			)
			seed(t, s, "Author", queryir.Object{Properties: map[string]any{"lang": "en"}})

			result, err := s.BatchDelete(ctx, "Article", tc.where)
			require.NoError(t, err)
			assert.Equal(t, tc.matches, result.Matches)

			objects, err := s.scanClass(ctx, "Article")
			require.NoError(t, err)
			var ids []string
			for _, o := range objects {
				ids = append(ids, o.ID)
			}
			assert.Equal(t, tc.remaining, ids)

			authors, err := s.scanClass(ctx, "Author")
			require.NoError(t, err)
			assert.Len(t, authors, 1, "other classes are untouched")
		})
	}
}
