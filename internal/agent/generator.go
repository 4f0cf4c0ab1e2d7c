package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/user/draftsmith/internal/config"
	"github.com/user/draftsmith/internal/db"
	"github.com/user/draftsmith/internal/llm"
)

// topicRelevanceThreshold is the minimum rank-based relevance for a
// highlight to survive the semantic topic filter without a keyword match.
const topicRelevanceThreshold = 0.3

const ideaTemperature = 0.8 // slightly higher for creativity

var ideasSchema = llm.Schema{Fields: []llm.Field{
	{Name: "ideas", Kind: llm.ObjectArray, MinItems: 5, MaxItems: 10, Fields: []llm.Field{
		{Name: "title", Kind: llm.String},
		{Name: "one_sentence_hook", Kind: llm.String},
		{Name: "why_now", Kind: llm.String},
		{Name: "target_audience", Kind: llm.String},
		{Name: "outline_bullets", Kind: llm.StringArray, MinItems: 5, MaxItems: 7},
		{Name: "supporting_highlight_ids", Kind: llm.StringArray},
		llm.UnitInterval("risk_of_generic"),
		llm.UnitInterval("novelty_score_guess"),
	}},
}}

type ideasResponse struct {
	Ideas []struct {
		Title                  string   `json:"title"`
		OneSentenceHook        string   `json:"one_sentence_hook"`
		WhyNow                 string   `json:"why_now"`
		TargetAudience         string   `json:"target_audience"`
		OutlineBullets         []string `json:"outline_bullets"`
		SupportingHighlightIDs []string `json:"supporting_highlight_ids"`
		RiskOfGeneric          float64  `json:"risk_of_generic"`
		NoveltyScoreGuess      float64  `json:"novelty_score_guess"`
	} `json:"ideas"`
}

type GeneratedIdeas struct {
	Ideas   []db.Idea `json:"ideas"`
	BatchID int       `json:"batch_id"`
}

// Generator turns a highlight set into a persisted batch of blog ideas.
type Generator struct {
	store *db.Store
	llm   llm.Caller
	brand config.Brand
}

func NewGenerator(store *db.Store, caller llm.Caller, brand config.Brand) *Generator {
	return &Generator{store: store, llm: caller, brand: brand}
}

// GenerateIdeas filters highlights to the brand's topics, asks the LLM for
// 5-10 candidate ideas, validates their cited highlight ids and persists the
// survivors under a fresh batch number. feedback, when non-empty, carries
// corrective guidance from a rejected previous batch.
func (g *Generator) GenerateIdeas(ctx context.Context, highlights []db.Highlight, feedback string) (*GeneratedIdeas, error) {
	filtered := g.filterByTopic(ctx, highlights)
	if len(filtered) == 0 {
		// Never empty-filter the input to zero; fall back to the full set.
		slog.Warn("no highlights matched the topic filter, using unfiltered set")
		filtered = highlights
	}

	maxBatch, err := g.store.MaxBatch()
	if err != nil {
		return nil, err
	}
	batchID := maxBatch + 1

	raw, err := g.llm.Complete(ctx, g.buildPrompt(filtered, feedback), ideasSchema, ideaTemperature)
	if err != nil {
		return nil, fmt.Errorf("generating ideas: %w", err)
	}

	var resp ideasResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding ideas response: %w", err)
	}
	slog.Info("received ideas from LLM", "count", len(resp.Ideas), "batch", batchID)

	var ideas []db.Idea
	for _, cand := range resp.Ideas {
		validIDs, err := g.validHighlightIDs(cand.SupportingHighlightIDs)
		if err != nil {
			return nil, err
		}
		if len(validIDs) == 0 {
			slog.Warn("dropping idea with no valid cited highlights", "title", cand.Title)
			continue
		}

		idea := db.Idea{
			Batch:         batchID,
			Title:         cand.Title,
			Hook:          cand.OneSentenceHook,
			WhyNow:        cand.WhyNow,
			Audience:      cand.TargetAudience,
			Outline:       cand.OutlineBullets,
			RiskOfGeneric: cand.RiskOfGeneric,
			NoveltyScore:  cand.NoveltyScoreGuess,
			HighlightIDs:  validIDs,
		}
		if err := g.store.InsertIdea(&idea); err != nil {
			return nil, err
		}
		ideas = append(ideas, idea)
	}

	slog.Info("ideas passed validation", "kept", len(ideas), "received", len(resp.Ideas))
	return &GeneratedIdeas{Ideas: ideas, BatchID: batchID}, nil
}

func (g *Generator) validHighlightIDs(ids []string) ([]string, error) {
	var valid []string
	for _, id := range ids {
		exists, err := g.store.HighlightExists(id)
		if err != nil {
			return nil, err
		}
		if exists {
			valid = append(valid, id)
		} else {
			slog.Warn("cited highlight not found", "highlight_id", id)
		}
	}
	return valid, nil
}

// filterByTopic keeps highlights semantically close to the brand topics,
// ranked by relevance. Any embedding or search failure falls back to pure
// keyword matching.
func (g *Generator) filterByTopic(ctx context.Context, highlights []db.Highlight) []db.Highlight {
	if len(highlights) == 0 || len(g.brand.Topics) == 0 {
		return highlights
	}

	topicVector, err := g.llm.Embed(ctx, strings.Join(g.brand.Topics, " "))
	if err != nil {
		slog.Warn("topic embedding failed, using keyword fallback", "err", err)
		return g.keywordFilter(highlights)
	}

	ranked, err := g.store.FindSimilar(topicVector, len(highlights), nil)
	if err != nil {
		slog.Warn("similarity search failed, using keyword fallback", "err", err)
		return g.keywordFilter(highlights)
	}

	// Relevance decays with rank position: rank 0 of K scores 1 - 0/K.
	relevance := make(map[string]float64, len(ranked))
	for i, r := range ranked {
		relevance[r.HighlightID] = 1 - float64(i)/float64(len(ranked))
	}

	type scored struct {
		highlight db.Highlight
		relevance float64
	}
	var kept []scored
	for _, h := range highlights {
		rel := relevance[h.ID]
		text := strings.ToLower(h.Text + " " + h.Title + " " + h.Note)
		if rel > topicRelevanceThreshold || g.matchesTopic(text) {
			kept = append(kept, scored{highlight: h, relevance: rel})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].relevance > kept[j].relevance
	})

	filtered := make([]db.Highlight, len(kept))
	for i, s := range kept {
		filtered[i] = s.highlight
	}
	slog.Info("topic filter", "kept", len(filtered), "from", len(highlights))
	return filtered
}

func (g *Generator) keywordFilter(highlights []db.Highlight) []db.Highlight {
	var filtered []db.Highlight
	for _, h := range highlights {
		text := strings.ToLower(h.Text + " " + h.Title + " " + h.Note + " " + strings.Join(h.Tags, " "))
		if g.matchesTopic(text) {
			filtered = append(filtered, h)
		}
	}
	slog.Info("keyword filter", "kept", len(filtered), "from", len(highlights))
	return filtered
}

func (g *Generator) matchesTopic(lowered string) bool {
	for _, topic := range g.brand.Topics {
		if strings.Contains(lowered, strings.ToLower(topic)) {
			return true
		}
	}
	return false
}

func (g *Generator) buildPrompt(highlights []db.Highlight, feedback string) []llm.Message {
	var sb strings.Builder
	for i, h := range highlights {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[ID: %s]\nTitle: %s\nHighlight: %s\nNote: %s\nTags: %s\nURL: %s",
			h.ID, h.Title, h.Text, orNone(h.Note), strings.Join(h.Tags, ", "), h.URL)
	}
	highlightsText := sb.String()

	systemPrompt := fmt.Sprintf(`You are a blog idea generator for %s.

Brand profile: %s

Target audience: %s

Content principles:
%s

Only generate ideas related to these topics:
%s

Respond with a JSON object of this exact shape:
{
  "ideas": [
    {
      "title": "string",
      "one_sentence_hook": "one compelling sentence",
      "why_now": "why this topic matters now",
      "target_audience": "who this is for",
      "outline_bullets": ["5 to 7 bullet strings"],
      "supporting_highlight_ids": ["ids from the provided highlights"],
      "risk_of_generic": 0.5,
      "novelty_score_guess": 0.7
    }
  ]
}

Each idea must cite at least 2-3 specific highlight ids from the provided
set, include exactly 5-7 outline bullets, and score risk_of_generic and
novelty_score_guess on a 0-1 scale. Generate between 5 and 10 distinct,
diverse ideas.`,
		g.brand.Profile,
		g.brand.Description,
		strings.Join(g.brand.Audience, ", "),
		bulletList(g.brand.Principles),
		bulletList(g.brand.Topics),
	)

	userPrompt := fmt.Sprintf("Generate blog ideas from these highlights:\n\n%s", highlightsText)
	if feedback != "" {
		userPrompt = fmt.Sprintf("Previous feedback: %s\n\nGenerate NEW ideas that address this feedback.\n\nHighlights:\n%s",
			feedback, highlightsText)
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userPrompt},
	}
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
