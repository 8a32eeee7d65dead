package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/weavebridge/internal/queryir"
)

// fixedNow is the clock of every test store.
var fixedNow = time.UnixMilli(1700000000000)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seed inserts objects and fails the test on any rejected object.
func seed(t *testing.T, s *Store, class string, objects ...queryir.Object) {
	t.Helper()
	results, err := s.BatchInsert(context.Background(), class, objects)
	require.NoError(t, err)
	for i, r := range results {
		require.Equal(t, queryir.InsertSuccess, r.Status, "object %d: %v", i, r.Errors)
	}
}

// article builds an Article object with a fixed id suffix.
func article(n int, title, lang string, words int) queryir.Object {
	return queryir.Object{
		ID: articleID(n),
		Properties: map[string]any{
			"title":     title,
			"lang":      lang,
			"wordCount": words,
		},
	}
}

func articleID(n int) string {
	return "00000000-0000-4000-8000-00000000000" + string(rune('0'+n))
}
