package db

import "time"

// Highlight is a captured excerpt plus metadata synced from Readwise.
// ExternalID is the Readwise highlight id; it is empty for hand-entered or
// legacy rows and unique otherwise (the dedup key on re-sync).
type Highlight struct {
	ID           string    `json:"id"`
	ExternalID   string    `json:"external_id,omitempty"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Author       string    `json:"author,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // source-side creation time, not ingestion time
	Text         string    `json:"text"`
	Note         string    `json:"note,omitempty"`
	Tags         []string  `json:"tags"`
	SourceDomain string    `json:"source_domain"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Idea is an LLM-proposed blog topic belonging to a generation batch.
type Idea struct {
	ID            string    `json:"id"`
	Batch         int       `json:"batch"`
	Title         string    `json:"title"`
	Hook          string    `json:"hook"`
	WhyNow        string    `json:"why_now"`
	Audience      string    `json:"audience"`
	Outline       []string  `json:"outline"`
	RiskOfGeneric float64   `json:"risk_of_generic"`
	NoveltyScore  float64   `json:"novelty_score"`
	CreatedAt     time.Time `json:"created_at"`
	HighlightIDs  []string  `json:"highlight_ids,omitempty"`
}

// CuratorScore holds the five rubric dimensions for one idea, 1:1.
type CuratorScore struct {
	IdeaID       string    `json:"idea_id"`
	Groundedness float64   `json:"groundedness"`
	Originality  float64   `json:"originality"`
	BrandFit     float64   `json:"brand_fit"`
	Diversity    float64   `json:"diversity"`
	Clarity      float64   `json:"clarity"`
	Average      float64   `json:"average"`
	Shortlisted  bool      `json:"shortlisted"`
	Feedback     string    `json:"feedback"`
	CreatedAt    time.Time `json:"created_at"`
}

type OutlineSection struct {
	Heading string   `json:"heading"`
	Bullets []string `json:"bullets"`
}

type Outline struct {
	Introduction string           `json:"introduction"`
	Sections     []OutlineSection `json:"sections"`
	Conclusion   string           `json:"conclusion"`
}

// Draft is full generated blog content for one idea.
type Draft struct {
	ID                string    `json:"id"`
	IdeaID            string    `json:"idea_id"`
	Outline           Outline   `json:"outline"`
	Body              string    `json:"body"`
	WordCount         int       `json:"word_count"`
	AlternativeHooks  []string  `json:"alternative_hooks"`
	SocialPostBullets []string  `json:"social_post_bullets"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	HighlightIDs      []string  `json:"highlight_ids,omitempty"`
}

// SyncLog is the audit record of one retriever run.
type SyncLog struct {
	ID              string    `json:"id"`
	SyncType        string    `json:"sync_type"` // full, incremental
	Status          string    `json:"status"`    // running, success, error
	HighlightsCount int       `json:"highlights_count"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at,omitempty"`
}

const (
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)
