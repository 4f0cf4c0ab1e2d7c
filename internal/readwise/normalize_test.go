package readwise

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	raw := Highlight{
		ID:        42,
		Text:      "the text",
		Title:     "An Article",
		Author:    "Jane Doe",
		SourceURL: "https://blog.example.com/post",
		URL:       "https://readwise.io/open/42",
		Note:      "a note",
		CreatedAt: "2026-01-15T10:00:00Z",
		Tags:      []Tag{{ID: 1, Name: "ai"}, {ID: 2, Name: "infra"}},
	}

	got := Normalize(raw)
	assert.Equal(t, "42", got.ExternalID)
	assert.Equal(t, "https://blog.example.com/post", got.URL)
	assert.Equal(t, "blog.example.com", got.SourceDomain)
	assert.Equal(t, "An Article", got.Title)
	assert.Equal(t, []string{"ai", "infra"}, got.Tags)
	assert.Equal(t, time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC), got.CreatedAt)
}

func TestNormalizeURLPreference(t *testing.T) {
	// source_url wins over url; url is the fallback.
	got := Normalize(Highlight{ID: 1, SourceURL: "https://a.com/x", URL: "https://b.com/y"})
	assert.Equal(t, "https://a.com/x", got.URL)
	assert.Equal(t, "a.com", got.SourceDomain)

	got = Normalize(Highlight{ID: 1, URL: "https://b.com/y"})
	assert.Equal(t, "https://b.com/y", got.URL)
	assert.Equal(t, "b.com", got.SourceDomain)
}

func TestNormalizeFallbacks(t *testing.T) {
	got := Normalize(Highlight{ID: 7, Text: "bare highlight"})
	assert.Equal(t, "Untitled", got.Title)
	assert.Equal(t, DefaultDomain, got.SourceDomain)
	assert.Equal(t, "", got.URL)
	// No timestamps at all: falls back to now, never zero.
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
}

func TestNormalizeBadURLAndTime(t *testing.T) {
	got := Normalize(Highlight{
		ID:            3,
		SourceURL:     "::not a url::",
		CreatedAt:     "not-a-time",
		HighlightedAt: "2026-02-01T08:30:00Z",
	})
	assert.Equal(t, DefaultDomain, got.SourceDomain)
	// highlighted_at backs up an unparsable created_at.
	assert.Equal(t, time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC), got.CreatedAt)
}
