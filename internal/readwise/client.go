// Package readwise pulls highlights from the Readwise v2 API.
// https://readwise.io/api_deets
package readwise

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrAuth means the access token was rejected. Not retryable.
var ErrAuth = errors.New("readwise: authentication failed, check your access token")

// RateLimitError carries the server's Retry-After hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("readwise: rate limited, retry after %s", e.RetryAfter)
}

// Highlight is a raw record as returned by the /highlights/ endpoint.
type Highlight struct {
	ID            int    `json:"id"`
	IsDeleted     bool   `json:"is_deleted"`
	Text          string `json:"text"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	SourceURL     string `json:"source_url"`
	URL           string `json:"url"`
	Note          string `json:"note"`
	HighlightedAt string `json:"highlighted_at"`
	CreatedAt     string `json:"created_at"`
	Tags          []Tag  `json:"tags"`
}

type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type highlightsPage struct {
	Count          int         `json:"count"`
	NextPageCursor string      `json:"nextPageCursor"`
	Results        []Highlight `json:"results"`
}

type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
	now         func() time.Time
}

const maxPages = 100 // safety limit

func NewClient(accessToken, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://readwise.io/api/v2"
	}
	return &Client{
		accessToken: accessToken,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		now:         time.Now,
	}
}

// VerifyToken checks the access token against /auth/.
func (c *Client) VerifyToken(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Token "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusNoContent, nil
}

// FetchHighlights pages through /highlights/ and returns every live
// highlight. A non-zero updatedAfter is passed as the updated__gt filter; a
// positive maxAgeDays drops highlights created before that trailing window.
// A 429 is waited out once per page before escalating.
func (c *Client) FetchHighlights(ctx context.Context, updatedAfter time.Time, maxAgeDays int) ([]Highlight, error) {
	if c.accessToken == "" {
		return nil, ErrAuth
	}

	var minCreatedAt time.Time
	if maxAgeDays > 0 {
		minCreatedAt = c.now().AddDate(0, 0, -maxAgeDays)
	}

	var all []Highlight
	cursor := ""

	for page := 0; page < maxPages; page++ {
		result, err := c.fetchPage(ctx, updatedAfter, cursor)
		if err != nil {
			var rateErr *RateLimitError
			if errors.As(err, &rateErr) {
				select {
				case <-time.After(rateErr.RetryAfter):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				result, err = c.fetchPage(ctx, updatedAfter, cursor)
			}
			if err != nil {
				return nil, err
			}
		}

		for _, h := range result.Results {
			if h.IsDeleted {
				continue
			}
			if !minCreatedAt.IsZero() && createdBefore(h, minCreatedAt) {
				continue
			}
			all = append(all, h)
		}

		if result.NextPageCursor == "" {
			break
		}
		cursor = result.NextPageCursor
	}

	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, updatedAfter time.Time, cursor string) (*highlightsPage, error) {
	u, err := url.Parse(c.baseURL + "/highlights/")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("page_size", "1000")
	if cursor != "" {
		q.Set("pageCursor", cursor)
	}
	if !updatedAfter.IsZero() {
		q.Set("updated__gt", updatedAfter.UTC().Format(time.RFC3339))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("readwise: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrAuth
	case http.StatusTooManyRequests:
		retryAfter := 60 * time.Second
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
			retryAfter = time.Duration(secs) * time.Second
		}
		return nil, &RateLimitError{RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("readwise: unexpected status %d: %s", resp.StatusCode, body)
	}

	var page highlightsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("readwise: decoding response: %w", err)
	}
	return &page, nil
}

func createdBefore(h Highlight, cutoff time.Time) bool {
	ts := h.CreatedAt
	if ts == "" {
		ts = h.HighlightedAt
	}
	if ts == "" {
		return false
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return false
	}
	return t.Before(cutoff)
}
