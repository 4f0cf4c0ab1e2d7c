package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/user/draftsmith/internal/config"
	"github.com/user/draftsmith/internal/db"
	"github.com/user/draftsmith/internal/llm"
)

const judgeTemperature = 0.3 // lower for consistent judging

var judgeSchema = llm.Schema{Fields: []llm.Field{
	llm.UnitInterval("accuracy"),
	llm.UnitInterval("readability"),
	llm.UnitInterval("brand_relevance"),
	llm.UnitInterval("style_consistency"),
	llm.UnitInterval("overall_score"),
	{Name: "feedback", Kind: llm.String},
}}

// JudgeScore is an ad hoc evaluation of a finished draft. Not persisted.
type JudgeScore struct {
	Accuracy         float64 `json:"accuracy"`
	Readability      float64 `json:"readability"`
	BrandRelevance   float64 `json:"brand_relevance"`
	StyleConsistency float64 `json:"style_consistency"`
	OverallScore     float64 `json:"overall_score"`
	Feedback         string  `json:"feedback"`
}

// Judge rates drafts with a model separate from the one that wrote them.
type Judge struct {
	provider string
	model    string
	fallback llm.Caller // used when provider is openai
	brand    config.Brand
}

func NewJudge(provider, model string, fallback llm.Caller, brand config.Brand) *Judge {
	return &Judge{provider: provider, model: model, fallback: fallback, brand: brand}
}

func (j *Judge) JudgeDraft(ctx context.Context, draft *db.Draft, idea *db.Idea) (*JudgeScore, error) {
	messages := j.buildPrompt(draft, idea)

	var raw json.RawMessage
	var err error
	switch j.provider {
	case "anthropic":
		raw, err = j.judgeWithAnthropic(ctx, messages)
	case "openai":
		raw, err = j.fallback.Complete(ctx, messages, judgeSchema, judgeTemperature)
	default:
		return nil, fmt.Errorf("unsupported judge provider: %s", j.provider)
	}
	if err != nil {
		return nil, err
	}

	var score JudgeScore
	if err := json.Unmarshal(raw, &score); err != nil {
		return nil, fmt.Errorf("decoding judge response: %w", err)
	}
	return &score, nil
}

func (j *Judge) judgeWithAnthropic(ctx context.Context, messages []llm.Message) (json.RawMessage, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	client := anthropic.NewClient(apiKey)

	var system string
	var msgs []anthropic.Message
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			system = m.Content
			continue
		}
		content := m.Content
		msgs = append(msgs, anthropic.Message{
			Role:    anthropic.RoleUser,
			Content: []anthropic.MessageContent{{Type: "text", Text: &content}},
		})
	}

	resp, err := client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(j.model),
		System:    system,
		MaxTokens: 1000,
		Messages:  msgs,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("empty response from Anthropic")
	}

	raw := extractJSONObject(resp.Content[0].GetText())
	if err := judgeSchema.Validate(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// extractJSONObject pulls the outermost JSON object out of a text response
// that may surround it with prose or code fences.
func extractJSONObject(text string) json.RawMessage {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return json.RawMessage(text)
	}
	return json.RawMessage(text[start : end+1])
}

func (j *Judge) buildPrompt(draft *db.Draft, idea *db.Idea) []llm.Message {
	systemPrompt := fmt.Sprintf(`You are an expert content judge evaluating blog drafts on four dimensions:

1. accuracy (0-1): factual correctness, proper citations, logical consistency
2. readability (0-1): clarity, flow, structure, ease of understanding
3. brand_relevance (0-1): alignment with the brand profile and audience
4. style_consistency (0-1): adherence to the specified tone and voice

Brand profile: %s
Brand description: %s
Target audience: %s
Tone: %s

Respond with a JSON object of this exact shape:
{
  "accuracy": 0.85,
  "readability": 0.9,
  "brand_relevance": 0.8,
  "style_consistency": 0.75,
  "overall_score": 0.825,
  "feedback": "specific, constructive feedback"
}

overall_score is the average of the four dimension scores.`,
		j.brand.Profile, j.brand.Description,
		strings.Join(j.brand.Audience, ", "), j.brand.Tone)

	userPrompt := fmt.Sprintf("Evaluate this blog draft.\n\nIdea title: %s\nHook: %s\n\nDraft content:\n%s",
		idea.Title, idea.Hook, draft.Body)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userPrompt},
	}
}
