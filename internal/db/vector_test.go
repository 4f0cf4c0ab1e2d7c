package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	assert.Error(t, err)
}

func TestEmbeddingRoundTrip(t *testing.T) {
	store := newTestStore(t)

	vec, err := store.GetEmbedding("nothing")
	require.NoError(t, err)
	assert.Nil(t, vec)

	in := []float32{0.1, -0.5, 3.25}
	require.NoError(t, store.StoreEmbedding("h-1", in, "test-model"))

	out, err := store.GetEmbedding("h-1")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestGetEmbeddingReturnsLatest(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.StoreEmbedding("h-1", []float32{1, 0}, "m"))
	require.NoError(t, store.StoreEmbedding("h-1", []float32{0, 1}, "m"))

	out, err := store.GetEmbedding("h-1")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, out)
}

func TestFindSimilar(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.StoreEmbedding("close", []float32{1, 0.1}, "m"))
	require.NoError(t, store.StoreEmbedding("far", []float32{0, 1}, "m"))
	require.NoError(t, store.StoreEmbedding("mid", []float32{1, 1}, "m"))

	results, err := store.FindSimilar([]float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "close", results[0].HighlightID)
	assert.Equal(t, "mid", results[1].HighlightID)
	assert.Equal(t, "far", results[2].HighlightID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestFindSimilarExcludesAndLimits(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.StoreEmbedding("a", []float32{1, 0}, "m"))
	require.NoError(t, store.StoreEmbedding("b", []float32{1, 0.5}, "m"))
	require.NoError(t, store.StoreEmbedding("c", []float32{0, 1}, "m"))

	results, err := store.FindSimilar([]float32{1, 0}, 1, []string{"a"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].HighlightID)
}

func TestFindSimilarUsesLatestEmbedding(t *testing.T) {
	store := newTestStore(t)

	// Re-embedded highlight: only the newest vector counts.
	require.NoError(t, store.StoreEmbedding("h", []float32{1, 0}, "m"))
	require.NoError(t, store.StoreEmbedding("h", []float32{0, 1}, "m"))

	results, err := store.FindSimilar([]float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0, results[0].Score, 1e-6)
}

func TestFindSimilarDeterministicTieBreak(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.StoreEmbedding("bbb", []float32{1, 0}, "m"))
	require.NoError(t, store.StoreEmbedding("aaa", []float32{1, 0}, "m"))

	results, err := store.FindSimilar([]float32{1, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "aaa", results[0].HighlightID)
	assert.Equal(t, "bbb", results[1].HighlightID)
}
