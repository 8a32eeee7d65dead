package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/weavebridge/internal/queryir"
)

func TestParseBoost(t *testing.T) {
	testCases := []struct {
		in     string
		name   string
		weight float64
	}{
		{"title", "title", 1},
		{"title^3", "title", 3},
		{"title^x", "title", 1},
		{"title^0", "title", 1},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			name, weight := parseBoost(tc.in)
			assert.Equal(t, tc.name, name)
			assert.Equal(t, tc.weight, weight)
		})
	}
}

func TestRelevance_Boost(t *testing.T) {
	o := queryir.Object{Properties: map[string]any{
		"title": "Moon",
		"body":  "moon moon",
		"tags":  []any{"moon", "sky"},
	}}
	want := termSet("moon")

	assert.Equal(t, float64(4), relevance(o, want, nil))
	assert.Equal(t, float64(3), relevance(o, want, []string{"title^3"}))
	assert.Equal(t, float64(3), relevance(o, want, []string{"title", "body"}))
	assert.Equal(t, float64(0), relevance(o, termSet(""), nil))
}

func TestAutocut(t *testing.T) {
	hits := []hit{{score: 3}, {score: 3}, {score: 2}, {score: 1}}

	assert.Len(t, autocut(hits, 0), 4)
	assert.Len(t, autocut(hits, 1), 2)
	assert.Len(t, autocut(hits, 2), 3)
	assert.Len(t, autocut(hits, 5), 4)
}

func TestPage(t *testing.T) {
	hits := []hit{{score: 1}, {score: 2}, {score: 3}}

	assert.Len(t, page(hits, 0, 0), 3)
	assert.Len(t, page(hits, 1, 0), 2)
	assert.Len(t, page(hits, 0, 2), 2)
	assert.Equal(t, []hit{{score: 2}}, page(hits, 1, 1))
	assert.Empty(t, page(hits, 3, 0))
}
