package db

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db *sql.DB
}

func NewStore(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "draftsmith.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS highlights (
		id TEXT PRIMARY KEY,
		external_id TEXT UNIQUE,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		text TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		source_domain TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_highlights_created ON highlights(created_at);

	CREATE TABLE IF NOT EXISTS embeddings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		highlight_id TEXT NOT NULL,
		vector BLOB NOT NULL,
		model TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_embeddings_highlight ON embeddings(highlight_id);

	CREATE TABLE IF NOT EXISTS ideas (
		id TEXT PRIMARY KEY,
		batch INTEGER NOT NULL,
		title TEXT NOT NULL,
		hook TEXT NOT NULL,
		why_now TEXT NOT NULL,
		audience TEXT NOT NULL,
		outline TEXT NOT NULL DEFAULT '[]',
		risk_of_generic REAL NOT NULL,
		novelty_score REAL NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ideas_batch ON ideas(batch);

	CREATE TABLE IF NOT EXISTS idea_highlights (
		idea_id TEXT NOT NULL,
		highlight_id TEXT NOT NULL,
		PRIMARY KEY (idea_id, highlight_id)
	);

	CREATE TABLE IF NOT EXISTS curator_scores (
		idea_id TEXT PRIMARY KEY,
		groundedness REAL NOT NULL,
		originality REAL NOT NULL,
		brand_fit REAL NOT NULL,
		diversity REAL NOT NULL,
		clarity REAL NOT NULL,
		average REAL NOT NULL,
		shortlisted INTEGER NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS drafts (
		id TEXT PRIMARY KEY,
		idea_id TEXT NOT NULL,
		outline TEXT NOT NULL,
		body TEXT NOT NULL,
		word_count INTEGER NOT NULL,
		alternative_hooks TEXT NOT NULL DEFAULT '[]',
		social_bullets TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS draft_highlights (
		draft_id TEXT NOT NULL,
		highlight_id TEXT NOT NULL,
		PRIMARY KEY (draft_id, highlight_id)
	);

	CREATE TABLE IF NOT EXISTS sync_logs (
		id TEXT PRIMARY KEY,
		sync_type TEXT NOT NULL,
		status TEXT NOT NULL,
		highlights_count INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func marshalStrings(ss []string) string {
	if ss == nil {
		ss = []string{}
	}
	b, _ := json.Marshal(ss)
	return string(b)
}

func unmarshalStrings(raw string) []string {
	var ss []string
	if err := json.Unmarshal([]byte(raw), &ss); err != nil {
		return nil
	}
	return ss
}

// InsertHighlight stores a new highlight, assigning an id if unset.
func (s *Store) InsertHighlight(h *Highlight) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	now := time.Now()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	h.UpdatedAt = now

	var extID interface{}
	if h.ExternalID != "" {
		extID = h.ExternalID
	}

	_, err := s.db.Exec(`
		INSERT INTO highlights (id, external_id, url, title, author, created_at, text, note, tags, source_domain, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, extID, h.URL, h.Title, h.Author, h.CreatedAt, h.Text, h.Note,
		marshalStrings(h.Tags), h.SourceDomain, h.UpdatedAt,
	)
	return err
}

// UpdateHighlight overwrites the mutable fields of an existing highlight.
func (s *Store) UpdateHighlight(h *Highlight) error {
	h.UpdatedAt = time.Now()
	_, err := s.db.Exec(`
		UPDATE highlights SET url = ?, title = ?, author = ?, text = ?, note = ?, tags = ?, source_domain = ?, updated_at = ?
		WHERE id = ?`,
		h.URL, h.Title, h.Author, h.Text, h.Note, marshalStrings(h.Tags),
		h.SourceDomain, h.UpdatedAt, h.ID,
	)
	return err
}

const highlightCols = `id, COALESCE(external_id, ''), url, title, author, created_at, text, note, tags, source_domain, updated_at`

func scanHighlight(row interface{ Scan(...interface{}) error }) (*Highlight, error) {
	var h Highlight
	var tags string
	err := row.Scan(&h.ID, &h.ExternalID, &h.URL, &h.Title, &h.Author,
		&h.CreatedAt, &h.Text, &h.Note, &tags, &h.SourceDomain, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	h.Tags = unmarshalStrings(tags)
	return &h, nil
}

func (s *Store) GetHighlight(id string) (*Highlight, error) {
	row := s.db.QueryRow(`SELECT `+highlightCols+` FROM highlights WHERE id = ?`, id)
	return scanHighlight(row)
}

// GetHighlightByExternalID returns the highlight synced under the given
// external id, or nil if it has not been seen before.
func (s *Store) GetHighlightByExternalID(externalID string) (*Highlight, error) {
	row := s.db.QueryRow(`SELECT `+highlightCols+` FROM highlights WHERE external_id = ?`, externalID)
	h, err := scanHighlight(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return h, err
}

func (s *Store) HighlightExists(id string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM highlights WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// ListHighlights returns the most recently created highlights.
func (s *Store) ListHighlights(limit int) ([]Highlight, error) {
	rows, err := s.db.Query(`SELECT `+highlightCols+` FROM highlights ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var highlights []Highlight
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, err
		}
		highlights = append(highlights, *h)
	}
	return highlights, rows.Err()
}

func (s *Store) GetHighlights(ids []string) ([]Highlight, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + highlightCols + ` FROM highlights WHERE id IN (`
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "?"
		args[i] = id
	}
	query += `) ORDER BY created_at DESC, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var highlights []Highlight
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, err
		}
		highlights = append(highlights, *h)
	}
	return highlights, rows.Err()
}

func (s *Store) CountHighlights() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM highlights`).Scan(&count)
	return count, err
}

// ClearHighlights removes every highlight along with its embeddings and any
// idea/draft link rows. Ideas and drafts themselves are kept.
func (s *Store) ClearHighlights() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM draft_highlights`,
		`DELETE FROM idea_highlights`,
		`DELETE FROM embeddings`,
		`DELETE FROM highlights`,
	} {
		if _, err := tx.Exec(q); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CreateSyncLog records the start of a retriever run.
func (s *Store) CreateSyncLog(syncType string) (*SyncLog, error) {
	log := &SyncLog{
		ID:        uuid.NewString(),
		SyncType:  syncType,
		Status:    SyncStatusRunning,
		StartedAt: time.Now(),
	}
	_, err := s.db.Exec(`
		INSERT INTO sync_logs (id, sync_type, status, highlights_count, error_message, started_at)
		VALUES (?, ?, ?, 0, '', ?)`,
		log.ID, log.SyncType, log.Status, log.StartedAt,
	)
	if err != nil {
		return nil, err
	}
	return log, nil
}

// FinalizeSyncLog closes out a sync log; never touched again afterward.
func (s *Store) FinalizeSyncLog(id, status string, highlightsCount int, errorMessage string) error {
	_, err := s.db.Exec(`
		UPDATE sync_logs SET status = ?, highlights_count = ?, error_message = ?, completed_at = ?
		WHERE id = ?`,
		status, highlightsCount, errorMessage, time.Now(), id,
	)
	return err
}

// LastSuccessfulSync returns the most recently completed successful sync,
// or nil if none exists. Its completion time is the incremental watermark.
func (s *Store) LastSuccessfulSync() (*SyncLog, error) {
	row := s.db.QueryRow(`
		SELECT id, sync_type, status, highlights_count, error_message, started_at, completed_at
		FROM sync_logs
		WHERE status = ? AND completed_at IS NOT NULL
		ORDER BY completed_at DESC LIMIT 1`, SyncStatusSuccess)

	log, err := scanSyncLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return log, err
}

func (s *Store) ListSyncLogs(limit int) ([]SyncLog, error) {
	rows, err := s.db.Query(`
		SELECT id, sync_type, status, highlights_count, error_message, started_at, completed_at
		FROM sync_logs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []SyncLog
	for rows.Next() {
		log, err := scanSyncLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	return logs, rows.Err()
}

func scanSyncLog(row interface{ Scan(...interface{}) error }) (*SyncLog, error) {
	var log SyncLog
	var completedAt sql.NullTime
	err := row.Scan(&log.ID, &log.SyncType, &log.Status, &log.HighlightsCount,
		&log.ErrorMessage, &log.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		log.CompletedAt = completedAt.Time
	}
	return &log, nil
}
