package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/draftsmith/internal/db"
	"github.com/user/draftsmith/internal/llm"
)

func insertIdeaWith(t *testing.T, store *db.Store, citedIDs []string) db.Idea {
	t.Helper()
	idea := db.Idea{
		Batch: 1, Title: "AI infrastructure costs", Hook: strongHook,
		WhyNow: "now", Audience: "Product managers",
		Outline:      []string{"costs", "margins", "strategy"},
		HighlightIDs: citedIDs,
	}
	require.NoError(t, store.InsertIdea(&idea))
	return idea
}

func TestCreateDraftIdeaNotFound(t *testing.T) {
	store := newTestStore(t)
	creator := NewCreator(store, &stubCaller{t: t})

	_, err := creator.CreateDraft(context.Background(), "no-such-idea")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestCreateDraftPersistsWithLinks(t *testing.T) {
	store := newTestStore(t)
	cited := insertHighlight(t, store, "the cited passage")
	idea := insertIdeaWith(t, store, []string{cited.ID})

	caller := &stubCaller{t: t, complete: func(int, []llm.Message) (json.RawMessage, error) {
		return draftJSON(t), nil
	}}
	creator := NewCreator(store, caller)

	result, err := creator.CreateDraft(context.Background(), idea.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, result.DraftID)
	assert.Equal(t, 4, result.WordCount)

	draft, err := store.GetDraft(result.DraftID)
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, idea.ID, draft.IdeaID)
	assert.Equal(t, []string{cited.ID}, draft.HighlightIDs)
	assert.Len(t, draft.Outline.Sections, 3)
}

func TestCreateDraftAddsSimilarHighlights(t *testing.T) {
	store := newTestStore(t)
	cited := insertHighlight(t, store, "the cited passage")
	related := insertHighlight(t, store, "a related passage")
	require.NoError(t, store.StoreEmbedding(cited.ID, []float32{1, 0, 0}, "m"))
	require.NoError(t, store.StoreEmbedding(related.ID, []float32{1, 0.1, 0}, "m"))

	idea := insertIdeaWith(t, store, []string{cited.ID})

	var prompt string
	caller := &stubCaller{t: t, complete: func(_ int, messages []llm.Message) (json.RawMessage, error) {
		prompt = messages[len(messages)-1].Content
		return draftJSON(t), nil
	}}
	creator := NewCreator(store, caller)

	result, err := creator.CreateDraft(context.Background(), idea.ID)
	require.NoError(t, err)

	// The grounding set is cited plus similar, each linked exactly once.
	draft, err := store.GetDraft(result.DraftID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{cited.ID, related.ID}, draft.HighlightIDs)
	assert.Contains(t, prompt, cited.Text)
	assert.Contains(t, prompt, related.Text)
}

func TestCreateDraftEmbedFailureFails(t *testing.T) {
	store := newTestStore(t)
	cited := insertHighlight(t, store, "the cited passage")
	idea := insertIdeaWith(t, store, []string{cited.ID})

	caller := &stubCaller{t: t, embed: func(string) ([]float32, error) { return nil, errStub }}
	creator := NewCreator(store, caller)

	_, err := creator.CreateDraft(context.Background(), idea.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding idea")
}
