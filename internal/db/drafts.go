package db

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InsertDraft stores a draft and one link row per grounding highlight.
func (s *Store) InsertDraft(draft *Draft) error {
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	now := time.Now()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now

	outline, err := json.Marshal(draft.Outline)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO drafts (id, idea_id, outline, body, word_count, alternative_hooks, social_bullets, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		draft.ID, draft.IdeaID, string(outline), draft.Body, draft.WordCount,
		marshalStrings(draft.AlternativeHooks), marshalStrings(draft.SocialPostBullets),
		draft.CreatedAt, draft.UpdatedAt,
	)
	if err != nil {
		return err
	}

	// INSERT OR IGNORE keeps a highlight linked exactly once even when it
	// appears both cited and similarity-added.
	for _, hid := range draft.HighlightIDs {
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO draft_highlights (draft_id, highlight_id) VALUES (?, ?)`,
			draft.ID, hid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const draftCols = `id, idea_id, outline, body, word_count, alternative_hooks, social_bullets, created_at, updated_at`

func scanDraft(row interface{ Scan(...interface{}) error }) (*Draft, error) {
	var d Draft
	var outline, hooks, bullets string
	err := row.Scan(&d.ID, &d.IdeaID, &outline, &d.Body, &d.WordCount,
		&hooks, &bullets, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(outline), &d.Outline); err != nil {
		return nil, err
	}
	d.AlternativeHooks = unmarshalStrings(hooks)
	d.SocialPostBullets = unmarshalStrings(bullets)
	return &d, nil
}

func (s *Store) GetDraft(id string) (*Draft, error) {
	row := s.db.QueryRow(`SELECT `+draftCols+` FROM drafts WHERE id = ?`, id)
	d, err := scanDraft(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.HighlightIDs, err = s.DraftHighlightIDs(d.ID)
	return d, err
}

func (s *Store) ListDrafts(limit int) ([]Draft, error) {
	rows, err := s.db.Query(`SELECT `+draftCols+` FROM drafts ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *d)
	}
	return drafts, rows.Err()
}

func (s *Store) DraftHighlightIDs(draftID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT highlight_id FROM draft_highlights WHERE draft_id = ? ORDER BY highlight_id`, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateDraftBody replaces a draft body and recomputes its word count.
// Outline, hooks and social bullets are immutable after creation.
func (s *Store) UpdateDraftBody(id, body string) (*Draft, error) {
	wordCount := CountWords(body)
	_, err := s.db.Exec(`UPDATE drafts SET body = ?, word_count = ?, updated_at = ? WHERE id = ?`,
		body, wordCount, time.Now(), id)
	if err != nil {
		return nil, err
	}
	return s.GetDraft(id)
}

func CountWords(text string) int {
	return len(strings.Fields(text))
}
