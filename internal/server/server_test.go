package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/draftsmith/internal/agent"
	"github.com/user/draftsmith/internal/config"
	"github.com/user/draftsmith/internal/db"
	"github.com/user/draftsmith/internal/llm"
)

type fakeCaller struct {
	response json.RawMessage
}

func (f *fakeCaller) Complete(context.Context, []llm.Message, llm.Schema, float32) (json.RawMessage, error) {
	return f.response, nil
}

func (f *fakeCaller) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

type fakeSource struct {
	highlights []db.Highlight
}

func (f *fakeSource) Fetch(context.Context, time.Time) ([]db.Highlight, error) {
	return f.highlights, nil
}

func testBrand() config.Brand {
	return config.Brand{
		Profile:  "Principal PM, AI services + infrastructure",
		Topics:   []string{"AI infrastructure"},
		Keywords: []string{"AI", "infrastructure", "product"},
		Audience: []string{"Product managers"},
		Tone:     "Professional",
	}
}

func newTestServer(t *testing.T, caller llm.Caller, source agent.HighlightSource) (*Server, *db.Store) {
	t.Helper()
	store, err := db.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	brand := testBrand()
	orch := agent.NewOrchestrator(
		agent.NewRetriever(store, source, caller, "m"),
		agent.NewGenerator(store, caller, brand),
		agent.NewCurator(store, brand),
		agent.NewCreator(store, caller),
	)
	judge := agent.NewJudge("openai", "m", caller, brand)
	return New(store, orch, judge), store
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func seedDraft(t *testing.T, store *db.Store) *db.Draft {
	t.Helper()
	idea := db.Idea{Batch: 1, Title: "AI infra costs", Hook: "a hook", WhyNow: "now", Audience: "PMs"}
	require.NoError(t, store.InsertIdea(&idea))
	draft := db.Draft{IdeaID: idea.ID, Body: "original body words", WordCount: 3}
	require.NoError(t, store.InsertDraft(&draft))
	return &draft
}

func TestListHighlightsEmpty(t *testing.T) {
	s, _ := newTestServer(t, &fakeCaller{}, &fakeSource{})

	rec := doRequest(t, s, http.MethodGet, "/api/highlights/list", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Highlights []db.Highlight `json:"highlights"`
	}
	decodeBody(t, rec, &body)
	assert.NotNil(t, body.Highlights)
	assert.Empty(t, body.Highlights)
}

func TestSyncEndpoint(t *testing.T) {
	source := &fakeSource{highlights: []db.Highlight{
		{ExternalID: "1", URL: "https://a.com", Title: "A", Text: "text", SourceDomain: "a.com"},
	}}
	s, store := newTestServer(t, &fakeCaller{}, source)

	rec := doRequest(t, s, http.MethodPost, "/api/workflow/sync", `{"incremental": false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sync struct {
			NewHighlights int `json:"new_highlights"`
		} `json:"sync"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 1, body.Sync.NewHighlights)

	count, err := store.CountHighlights()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClearHighlightsEndpoint(t *testing.T) {
	s, store := newTestServer(t, &fakeCaller{}, &fakeSource{})
	h := db.Highlight{URL: "https://a.com", Title: "A", Text: "x", SourceDomain: "a.com"}
	require.NoError(t, store.InsertHighlight(&h))

	rec := doRequest(t, s, http.MethodPost, "/api/highlights/clear", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	count, err := store.CountHighlights()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCurateRequiresBatch(t *testing.T) {
	s, _ := newTestServer(t, &fakeCaller{}, &fakeSource{})

	rec := doRequest(t, s, http.MethodPost, "/api/workflow/curate", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateDraftsRequiresIdeaIDs(t *testing.T) {
	s, _ := newTestServer(t, &fakeCaller{}, &fakeSource{})

	rec := doRequest(t, s, http.MethodPost, "/api/workflow/create-drafts", `{"idea_ids": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDraftNotFound(t *testing.T) {
	s, _ := newTestServer(t, &fakeCaller{}, &fakeSource{})

	rec := doRequest(t, s, http.MethodGet, "/api/drafts/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAndUpdateDraft(t *testing.T) {
	s, store := newTestServer(t, &fakeCaller{}, &fakeSource{})
	draft := seedDraft(t, store)

	rec := doRequest(t, s, http.MethodGet, "/api/drafts/"+draft.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodPut, "/api/drafts/"+draft.ID, `{"body": "a new body with six words"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated db.Draft
	decodeBody(t, rec, &updated)
	assert.Equal(t, "a new body with six words", updated.Body)
	assert.Equal(t, 6, updated.WordCount)
}

func TestUpdateDraftRequiresBody(t *testing.T) {
	s, store := newTestServer(t, &fakeCaller{}, &fakeSource{})
	draft := seedDraft(t, store)

	rec := doRequest(t, s, http.MethodPut, "/api/drafts/"+draft.ID, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJudgeDraftEndpoint(t *testing.T) {
	caller := &fakeCaller{response: json.RawMessage(`{
		"accuracy": 0.9, "readability": 0.8, "brand_relevance": 0.7,
		"style_consistency": 0.6, "overall_score": 0.75, "feedback": "solid"
	}`)}
	s, store := newTestServer(t, caller, &fakeSource{})
	draft := seedDraft(t, store)

	rec := doRequest(t, s, http.MethodPost, "/api/drafts/"+draft.ID+"/judge", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var score agent.JudgeScore
	decodeBody(t, rec, &score)
	assert.Equal(t, 0.75, score.OverallScore)
	assert.Equal(t, "solid", score.Feedback)
}

func TestSyncStatusEndpoint(t *testing.T) {
	s, store := newTestServer(t, &fakeCaller{}, &fakeSource{})
	log, err := store.CreateSyncLog("full")
	require.NoError(t, err)
	require.NoError(t, store.FinalizeSyncLog(log.ID, db.SyncStatusSuccess, 3, ""))

	rec := doRequest(t, s, http.MethodGet, "/api/sync/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		HighlightsCount int          `json:"highlights_count"`
		SyncLogs        []db.SyncLog `json:"sync_logs"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 0, body.HighlightsCount)
	require.Len(t, body.SyncLogs, 1)
	assert.Equal(t, db.SyncStatusSuccess, body.SyncLogs[0].Status)
}
