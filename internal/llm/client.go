package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// Message is one prompt message.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Caller is the structured-generation capability every agent depends on:
// produce JSON matching a schema (with bounded retries) and embed text.
type Caller interface {
	Complete(ctx context.Context, messages []Message, schema Schema, temperature float32) (json.RawMessage, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAI implements Caller against the OpenAI API.
type OpenAI struct {
	client     *openai.Client
	model      string
	embedModel string
	retry      RetryPolicy
}

func NewOpenAI(apiKey, baseURL, model, embedModel string, retry RetryPolicy) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "gpt-4-turbo"
	}
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}
	return &OpenAI{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		embedModel: embedModel,
		retry:      retry,
	}, nil
}

// Complete asks for a JSON-object response and validates it against schema,
// retrying per the policy. Auth failures are returned immediately; the final
// error after exhausted retries names the invalid or missing fields.
func (o *OpenAI) Complete(ctx context.Context, messages []Message, schema Schema, temperature float32) (json.RawMessage, error) {
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	var lastErr error
	for attempt := 0; attempt < o.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			slog.Warn("retrying LLM call", "attempt", attempt+1, "max", o.retry.MaxAttempts, "err", lastErr)
			if err := o.retry.wait(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       o.model,
			Messages:    msgs,
			Temperature: temperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			if isAuthError(err) {
				return nil, fmt.Errorf("llm: authentication failed: %w", err)
			}
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			lastErr = errors.New("empty response")
			continue
		}

		raw := json.RawMessage(resp.Choices[0].Message.Content)
		if err := schema.Validate(raw); err != nil {
			lastErr = err
			continue
		}
		return raw, nil
	}

	var vErr *ValidationError
	if errors.As(lastErr, &vErr) {
		return nil, fmt.Errorf("llm: failed after %d attempts: %w", o.retry.MaxAttempts, vErr)
	}
	return nil, fmt.Errorf("llm: failed after %d attempts: %w", o.retry.MaxAttempts, lastErr)
}

const maxEmbedChars = 30000 // stays under the embedding model's token limit

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) > maxEmbedChars {
		text = text[:maxEmbedChars]
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(o.embedModel),
		Input: []string{text},
	})
	if err != nil {
		if isAuthError(err) {
			return nil, fmt.Errorf("llm: authentication failed: %w", err)
		}
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embeddings returned")
	}
	return resp.Data[0].Embedding, nil
}

func isAuthError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized ||
			apiErr.HTTPStatusCode == http.StatusForbidden
	}
	return false
}
