package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/user/draftsmith/internal/config"
	"github.com/user/draftsmith/internal/db"
	"github.com/user/draftsmith/internal/llm"
)

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testBrand() config.Brand {
	return config.Brand{
		Profile:     "Principal PM, AI services + infrastructure",
		Description: "A senior product manager focused on AI services and infrastructure",
		Topics:      []string{"AI infrastructure", "Product Management"},
		Keywords:    []string{"AI", "infrastructure", "product"},
		Audience:    []string{"Product managers"},
		Principles:  []string{"Actionable insights over theory"},
		Tone:        "Professional yet accessible",
	}
}

// stubCaller scripts LLM behavior per call. A nil complete func fails the
// test if Complete is reached; a nil embed func returns a fixed vector.
type stubCaller struct {
	t        *testing.T
	complete func(call int, messages []llm.Message) (json.RawMessage, error)
	embed    func(text string) ([]float32, error)
	calls    int
}

func (s *stubCaller) Complete(_ context.Context, messages []llm.Message, _ llm.Schema, _ float32) (json.RawMessage, error) {
	s.calls++
	if s.complete == nil {
		s.t.Fatal("unexpected Complete call")
	}
	return s.complete(s.calls, messages)
}

func (s *stubCaller) Embed(_ context.Context, text string) ([]float32, error) {
	if s.embed == nil {
		return []float32{1, 0, 0}, nil
	}
	return s.embed(text)
}

// stubSource serves a fixed highlight set and records the watermark it was
// asked for.
type stubSource struct {
	highlights       []db.Highlight
	err              error
	calls            int
	lastUpdatedAfter time.Time
}

func (s *stubSource) Fetch(_ context.Context, updatedAfter time.Time) ([]db.Highlight, error) {
	s.calls++
	s.lastUpdatedAfter = updatedAfter
	if s.err != nil {
		return nil, s.err
	}
	return s.highlights, nil
}

func insertHighlight(t *testing.T, store *db.Store, text string) db.Highlight {
	t.Helper()
	h := db.Highlight{
		URL: "https://example.com", Title: "Example", Text: text,
		SourceDomain: "example.com",
	}
	require.NoError(t, store.InsertHighlight(&h))
	return h
}

func ideasJSON(t *testing.T, ideas []map[string]interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{"ideas": ideas})
	require.NoError(t, err)
	return raw
}

// strongIdea scores well above the shortlist bar when cited ids resolve.
func strongIdea(title string, citedIDs []string) map[string]interface{} {
	return map[string]interface{}{
		"title":                    title,
		"one_sentence_hook":        "Why AI infrastructure decisions quietly decide your product margins before launch.",
		"why_now":                  "Inference costs are resetting product strategy.",
		"target_audience":          "Product managers building on AI infrastructure",
		"outline_bullets":          []string{"costs", "margins", "strategy", "tradeoffs", "levers"},
		"supporting_highlight_ids": citedIDs,
		"risk_of_generic":          0.1,
		"novelty_score_guess":      0.9,
	}
}

// weakIdea fails both the average bar and the generic-risk gate.
func weakIdea(title string, citedIDs []string) map[string]interface{} {
	return map[string]interface{}{
		"title":                    title,
		"one_sentence_hook":        "Some thoughts.",
		"why_now":                  "n/a",
		"target_audience":          "everyone",
		"outline_bullets":          []string{"a", "b", "c", "d", "e"},
		"supporting_highlight_ids": citedIDs,
		"risk_of_generic":          0.9,
		"novelty_score_guess":      0.1,
	}
}

func draftJSON(t *testing.T) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"outline": map[string]interface{}{
			"introduction": "intro",
			"sections": []map[string]interface{}{
				{"heading": "one", "bullets": []string{"a"}},
				{"heading": "two", "bullets": []string{"b"}},
				{"heading": "three", "bullets": []string{"c"}},
			},
			"conclusion": "done",
		},
		"body":                "the full draft body",
		"word_count":          4,
		"alternative_hooks":   []string{"h1", "h2", "h3", "h4", "h5"},
		"social_post_bullets": []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8", "s9", "s10"},
	})
	require.NoError(t, err)
	return raw
}

func ids(highlights []db.Highlight) []string {
	out := make([]string, len(highlights))
	for i, h := range highlights {
		out[i] = h.ID
	}
	return out
}

var errStub = fmt.Errorf("stub failure")
