package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/draftsmith/internal/db"
	"github.com/user/draftsmith/internal/llm"
)

const (
	draftTemperature     = 0.7
	additionalHighlights = 5
)

var draftSchema = llm.Schema{Fields: []llm.Field{
	{Name: "outline", Kind: llm.Object, Fields: []llm.Field{
		{Name: "introduction", Kind: llm.String},
		{Name: "sections", Kind: llm.ObjectArray, MinItems: 3, Fields: []llm.Field{
			{Name: "heading", Kind: llm.String},
			{Name: "bullets", Kind: llm.StringArray, MinItems: 1},
		}},
		{Name: "conclusion", Kind: llm.String},
	}},
	{Name: "body", Kind: llm.String},
	{Name: "word_count", Kind: llm.Number},
	{Name: "alternative_hooks", Kind: llm.StringArray, MinItems: 5, MaxItems: 5},
	{Name: "social_post_bullets", Kind: llm.StringArray, MinItems: 10, MaxItems: 10},
}}

type draftResponse struct {
	Outline           db.Outline `json:"outline"`
	Body              string     `json:"body"`
	WordCount         int        `json:"word_count"`
	AlternativeHooks  []string   `json:"alternative_hooks"`
	SocialPostBullets []string   `json:"social_post_bullets"`
}

type DraftResult struct {
	DraftID   string `json:"draft_id"`
	WordCount int    `json:"word_count"`
}

// Creator expands one shortlisted idea into a full draft grounded in its
// cited highlights plus semantically similar ones.
type Creator struct {
	store *db.Store
	llm   llm.Caller
}

func NewCreator(store *db.Store, caller llm.Caller) *Creator {
	return &Creator{store: store, llm: caller}
}

// CreateDraft fails if the idea does not exist. The grounding set is the
// union of cited and similarity-found highlights; each is linked to the new
// draft exactly once.
func (c *Creator) CreateDraft(ctx context.Context, ideaID string) (*DraftResult, error) {
	idea, err := c.store.GetIdea(ideaID)
	if err != nil {
		return nil, err
	}
	if idea == nil {
		return nil, fmt.Errorf("idea %s not found", ideaID)
	}
	slog.Info("creating draft", "idea_id", ideaID, "title", idea.Title, "cited", len(idea.HighlightIDs))

	cited, err := c.store.GetHighlights(idea.HighlightIDs)
	if err != nil {
		return nil, err
	}

	additional, err := c.findAdditionalHighlights(ctx, idea)
	if err != nil {
		return nil, err
	}

	grounding := cited
	seen := make(map[string]bool, len(cited))
	for _, h := range cited {
		seen[h.ID] = true
	}
	for _, h := range additional {
		if !seen[h.ID] {
			seen[h.ID] = true
			grounding = append(grounding, h)
		}
	}

	raw, err := c.llm.Complete(ctx, buildDraftPrompt(idea, grounding), draftSchema, draftTemperature)
	if err != nil {
		return nil, fmt.Errorf("generating draft for idea %s: %w", ideaID, err)
	}

	var resp draftResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding draft response: %w", err)
	}

	draft := db.Draft{
		IdeaID:            ideaID,
		Outline:           resp.Outline,
		Body:              resp.Body,
		WordCount:         resp.WordCount,
		AlternativeHooks:  resp.AlternativeHooks,
		SocialPostBullets: resp.SocialPostBullets,
	}
	for _, h := range grounding {
		draft.HighlightIDs = append(draft.HighlightIDs, h.ID)
	}

	if err := c.store.InsertDraft(&draft); err != nil {
		return nil, err
	}
	slog.Info("draft saved", "draft_id", draft.ID, "word_count", draft.WordCount)

	return &DraftResult{DraftID: draft.ID, WordCount: draft.WordCount}, nil
}

// findAdditionalHighlights embeds the idea and pulls up to five similar
// highlights beyond the cited ones.
func (c *Creator) findAdditionalHighlights(ctx context.Context, idea *db.Idea) ([]db.Highlight, error) {
	ideaText := idea.Title + " " + idea.Hook + " " + strings.Join(idea.Outline, " ")
	vector, err := c.llm.Embed(ctx, ideaText)
	if err != nil {
		return nil, fmt.Errorf("embedding idea %s: %w", idea.ID, err)
	}

	similar, err := c.store.FindSimilar(vector, additionalHighlights, idea.HighlightIDs)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(similar))
	for i, s := range similar {
		ids[i] = s.HighlightID
	}
	return c.store.GetHighlights(ids)
}

func buildDraftPrompt(idea *db.Idea, highlights []db.Highlight) []llm.Message {
	var sb strings.Builder
	for i, h := range highlights {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[ID: %s]\nTitle: %s\nHighlight: %s\nNote: %s\nURL: %s",
			h.ID, h.Title, h.Text, orNone(h.Note), h.URL)
	}

	systemPrompt := `You are an expert blog writer. Create a comprehensive, well-structured blog post from the provided idea and supporting highlights.

Respond with a JSON object of this exact shape:
{
  "outline": {
    "introduction": "2-3 sentences introducing the topic",
    "sections": [{"heading": "section title", "bullets": ["bullet points"]}],
    "conclusion": "2-3 sentences wrapping up"
  },
  "body": "full blog post, 1200-1800 words",
  "word_count": 1500,
  "alternative_hooks": ["exactly 5 hooks"],
  "social_post_bullets": ["exactly 10 social post lines"]
}

Requirements:
- body is 1200-1800 words of plain text only: no markdown, no HTML, paragraphs separated by blank lines
- outline.sections has at least 3 sections
- alternative_hooks has exactly 5 strings
- social_post_bullets has exactly 10 strings
- word_count matches the actual word count of body
- Cite specific highlights where relevant`

	userPrompt := fmt.Sprintf(`Idea:
Title: %s
Hook: %s
Why now: %s
Target audience: %s
Outline: %s

Supporting highlights:
%s

Write the full draft as plain text with blank lines between paragraphs.`,
		idea.Title, idea.Hook, idea.WhyNow, idea.Audience,
		strings.Join(idea.Outline, "; "), sb.String())

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userPrompt},
	}
}
