package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertIdeaWithLinks(t *testing.T) {
	store := newTestStore(t)

	idea := &Idea{
		Batch:         1,
		Title:         "Why AI infra is eating the margin",
		Hook:          "Every AI product is a thin wrapper until the infra bill arrives.",
		WhyNow:        "Inference costs are resetting product strategy.",
		Audience:      "Product managers",
		Outline:       []string{"costs", "margins", "strategy"},
		RiskOfGeneric: 0.3,
		NoveltyScore:  0.7,
		HighlightIDs:  []string{"h-1", "h-2", "h-1"},
	}
	require.NoError(t, store.InsertIdea(idea))
	assert.NotEmpty(t, idea.ID)

	got, err := store.GetIdea(idea.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, idea.Title, got.Title)
	assert.Equal(t, []string{"costs", "margins", "strategy"}, got.Outline)
	// Duplicate link collapsed to one row.
	assert.Equal(t, []string{"h-1", "h-2"}, got.HighlightIDs)
}

func TestGetIdeaMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetIdea("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIdeasByBatch(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		batch := 1
		if i == 2 {
			batch = 2
		}
		require.NoError(t, store.InsertIdea(&Idea{
			Batch: batch, Title: "t", Hook: "h", WhyNow: "w", Audience: "a",
			HighlightIDs: []string{"h-1"},
		}))
	}

	ideas, err := store.IdeasByBatch(1)
	require.NoError(t, err)
	assert.Len(t, ideas, 2)
	for _, idea := range ideas {
		assert.Equal(t, []string{"h-1"}, idea.HighlightIDs)
	}

	ideas, err = store.IdeasByBatch(99)
	require.NoError(t, err)
	assert.Empty(t, ideas)
}

func TestMaxBatch(t *testing.T) {
	store := newTestStore(t)

	batch, err := store.MaxBatch()
	require.NoError(t, err)
	assert.Equal(t, 0, batch)

	require.NoError(t, store.InsertIdea(&Idea{Batch: 3, Title: "t", Hook: "h", WhyNow: "w", Audience: "a"}))
	require.NoError(t, store.InsertIdea(&Idea{Batch: 7, Title: "t", Hook: "h", WhyNow: "w", Audience: "a"}))

	batch, err = store.MaxBatch()
	require.NoError(t, err)
	assert.Equal(t, 7, batch)
}

func TestCuratorScoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetCuratorScore("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	score := &CuratorScore{
		IdeaID:       "idea-1",
		Groundedness: 1,
		Originality:  0.8,
		BrandFit:     0.66,
		Diversity:    0.5,
		Clarity:      1,
		Average:      0.792,
		Shortlisted:  true,
		Feedback:     "Strengths: Well-grounded",
	}
	require.NoError(t, store.InsertCuratorScore(score))

	got, err = store.GetCuratorScore("idea-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Shortlisted)
	assert.InDelta(t, 0.792, got.Average, 1e-9)
	assert.Equal(t, "Strengths: Well-grounded", got.Feedback)

	// One score per idea, ever.
	assert.Error(t, store.InsertCuratorScore(score))
}
