package readwise

import (
	"context"
	"time"

	"github.com/user/draftsmith/internal/db"
)

// Source adapts the API client to the retriever's highlight-source contract:
// fetch raw highlights and hand back normalized records. The trailing
// max-age window is source policy, applied here rather than by the caller.
type Source struct {
	client     *Client
	maxAgeDays int
}

func NewSource(client *Client, maxAgeDays int) *Source {
	return &Source{client: client, maxAgeDays: maxAgeDays}
}

func (s *Source) Fetch(ctx context.Context, updatedAfter time.Time) ([]db.Highlight, error) {
	raw, err := s.client.FetchHighlights(ctx, updatedAfter, s.maxAgeDays)
	if err != nil {
		return nil, err
	}

	highlights := make([]db.Highlight, 0, len(raw))
	for _, r := range raw {
		highlights = append(highlights, Normalize(r))
	}
	return highlights, nil
}
