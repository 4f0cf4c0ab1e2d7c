package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/user/draftsmith/internal/db"
)

// HighlightSource fetches normalized highlights from the external service.
// A zero updatedAfter means an unbounded fetch.
type HighlightSource interface {
	Fetch(ctx context.Context, updatedAfter time.Time) ([]db.Highlight, error)
}

// Embedder produces a fixed-length vector for a single string.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type SyncResult struct {
	HighlightsCount   int    `json:"highlights_count"`
	NewHighlights     int    `json:"new_highlights"`
	UpdatedHighlights int    `json:"updated_highlights"`
	SyncLogID         string `json:"sync_log_id"`
}

// Retriever syncs highlights into the store and embeds new ones.
type Retriever struct {
	store      *db.Store
	source     HighlightSource
	embedder   Embedder // nil disables embeddings
	embedModel string
}

func NewRetriever(store *db.Store, source HighlightSource, embedder Embedder, embedModel string) *Retriever {
	return &Retriever{store: store, source: source, embedder: embedder, embedModel: embedModel}
}

// SyncHighlights pulls highlights from the source, dedups by external id and
// records the run in a sync log. Incremental runs fetch only highlights
// updated after the last successful run's completion time. Partial progress
// is not rolled back on failure; the next sync reconciles via updates.
func (r *Retriever) SyncHighlights(ctx context.Context, incremental bool) (*SyncResult, error) {
	syncType := "full"
	if incremental {
		syncType = "incremental"
	}

	syncLog, err := r.store.CreateSyncLog(syncType)
	if err != nil {
		return nil, err
	}

	result, err := r.sync(ctx, incremental, syncLog.ID)
	if err != nil {
		if logErr := r.store.FinalizeSyncLog(syncLog.ID, db.SyncStatusError, 0, err.Error()); logErr != nil {
			slog.Error("finalizing sync log", "sync_log_id", syncLog.ID, "err", logErr)
		}
		return nil, err
	}

	if err := r.store.FinalizeSyncLog(syncLog.ID, db.SyncStatusSuccess, result.HighlightsCount, ""); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Retriever) sync(ctx context.Context, incremental bool, syncLogID string) (*SyncResult, error) {
	var updatedAfter time.Time
	if incremental {
		last, err := r.store.LastSuccessfulSync()
		if err != nil {
			return nil, err
		}
		if last != nil {
			updatedAfter = last.CompletedAt
			slog.Info("incremental sync", "updated_after", updatedAfter)
		}
	}

	fetched, err := r.source.Fetch(ctx, updatedAfter)
	if err != nil {
		return nil, err
	}
	slog.Info("fetched highlights", "count", len(fetched))

	result := &SyncResult{HighlightsCount: len(fetched), SyncLogID: syncLogID}

	for _, h := range fetched {
		h := h
		existing, err := r.store.GetHighlightByExternalID(h.ExternalID)
		if err != nil {
			return nil, err
		}

		if existing != nil {
			existing.URL = h.URL
			existing.Title = h.Title
			existing.Author = h.Author
			existing.Text = h.Text
			existing.Note = h.Note
			existing.Tags = h.Tags
			existing.SourceDomain = h.SourceDomain
			if err := r.store.UpdateHighlight(existing); err != nil {
				return nil, err
			}
			result.UpdatedHighlights++
			continue
		}

		if err := r.store.InsertHighlight(&h); err != nil {
			return nil, err
		}
		result.NewHighlights++
		r.embedHighlight(ctx, &h)
	}

	return result, nil
}

// embedHighlight is best effort: failures are logged and swallowed so a
// flaky embedding backend never fails a sync.
func (r *Retriever) embedHighlight(ctx context.Context, h *db.Highlight) {
	if r.embedder == nil {
		return
	}

	text := strings.TrimSpace(h.Text + " " + h.Note)
	if text == "" {
		return
	}

	vector, err := r.embedder.Embed(ctx, text)
	if err != nil {
		slog.Warn("embedding failed", "highlight_id", h.ID, "err", err)
		return
	}
	if err := r.store.StoreEmbedding(h.ID, vector, r.embedModel); err != nil {
		slog.Warn("storing embedding failed", "highlight_id", h.ID, "err", err)
	}
}

// TopHighlights returns the most recent highlights for idea generation.
func (r *Retriever) TopHighlights(limit int) ([]db.Highlight, error) {
	return r.store.ListHighlights(limit)
}
