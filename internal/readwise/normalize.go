package readwise

import (
	"net/url"
	"strconv"
	"time"

	"github.com/user/draftsmith/internal/db"
)

// DefaultDomain is used when a highlight has no parsable source URL.
const DefaultDomain = "readwise.io"

// Normalize converts a raw Readwise highlight into the canonical record.
// It is total: malformed URLs and timestamps degrade to fallbacks instead
// of failing.
func Normalize(raw Highlight) db.Highlight {
	sourceURL := raw.SourceURL
	if sourceURL == "" {
		sourceURL = raw.URL
	}

	domain := DefaultDomain
	if sourceURL != "" {
		if u, err := url.Parse(sourceURL); err == nil && u.Hostname() != "" {
			domain = u.Hostname()
		}
	}

	title := raw.Title
	if title == "" {
		title = "Untitled"
	}

	createdAt := parseTime(raw.CreatedAt)
	if createdAt.IsZero() {
		createdAt = parseTime(raw.HighlightedAt)
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tags := make([]string, 0, len(raw.Tags))
	for _, t := range raw.Tags {
		tags = append(tags, t.Name)
	}

	return db.Highlight{
		ExternalID:   strconv.Itoa(raw.ID),
		URL:          sourceURL,
		Title:        title,
		Author:       raw.Author,
		CreatedAt:    createdAt,
		Text:         raw.Text,
		Note:         raw.Note,
		Tags:         tags,
		SourceDomain: domain,
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
