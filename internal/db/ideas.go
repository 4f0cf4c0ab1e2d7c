package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// InsertIdea stores a new idea and its highlight links.
func (s *Store) InsertIdea(idea *Idea) error {
	if idea.ID == "" {
		idea.ID = uuid.NewString()
	}
	if idea.CreatedAt.IsZero() {
		idea.CreatedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO ideas (id, batch, title, hook, why_now, audience, outline, risk_of_generic, novelty_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		idea.ID, idea.Batch, idea.Title, idea.Hook, idea.WhyNow, idea.Audience,
		marshalStrings(idea.Outline), idea.RiskOfGeneric, idea.NoveltyScore, idea.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, hid := range idea.HighlightIDs {
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO idea_highlights (idea_id, highlight_id) VALUES (?, ?)`,
			idea.ID, hid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const ideaCols = `id, batch, title, hook, why_now, audience, outline, risk_of_generic, novelty_score, created_at`

func scanIdea(row interface{ Scan(...interface{}) error }) (*Idea, error) {
	var idea Idea
	var outline string
	err := row.Scan(&idea.ID, &idea.Batch, &idea.Title, &idea.Hook, &idea.WhyNow,
		&idea.Audience, &outline, &idea.RiskOfGeneric, &idea.NoveltyScore, &idea.CreatedAt)
	if err != nil {
		return nil, err
	}
	idea.Outline = unmarshalStrings(outline)
	return &idea, nil
}

func (s *Store) GetIdea(id string) (*Idea, error) {
	row := s.db.QueryRow(`SELECT `+ideaCols+` FROM ideas WHERE id = ?`, id)
	idea, err := scanIdea(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	idea.HighlightIDs, err = s.IdeaHighlightIDs(idea.ID)
	return idea, err
}

// IdeasByBatch returns all ideas of a generation batch with their links,
// ordered by id for determinism.
func (s *Store) IdeasByBatch(batch int) ([]Idea, error) {
	rows, err := s.db.Query(`SELECT `+ideaCols+` FROM ideas WHERE batch = ? ORDER BY id`, batch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ideas []Idea
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, *idea)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range ideas {
		ideas[i].HighlightIDs, err = s.IdeaHighlightIDs(ideas[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return ideas, nil
}

func (s *Store) ListIdeas(limit int) ([]Idea, error) {
	rows, err := s.db.Query(`SELECT `+ideaCols+` FROM ideas ORDER BY batch DESC, created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ideas []Idea
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, err
		}
		ideas = append(ideas, *idea)
	}
	return ideas, rows.Err()
}

func (s *Store) IdeaHighlightIDs(ideaID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT highlight_id FROM idea_highlights WHERE idea_id = ? ORDER BY highlight_id`, ideaID)
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

// MaxBatch returns the highest generation batch number, 0 if no ideas exist.
func (s *Store) MaxBatch() (int, error) {
	var batch sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(batch) FROM ideas`).Scan(&batch)
	if err != nil {
		return 0, err
	}
	return int(batch.Int64), nil
}

// InsertCuratorScore records the one scoring record an idea ever gets.
func (s *Store) InsertCuratorScore(score *CuratorScore) error {
	if score.CreatedAt.IsZero() {
		score.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO curator_scores (idea_id, groundedness, originality, brand_fit, diversity, clarity, average, shortlisted, feedback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		score.IdeaID, score.Groundedness, score.Originality, score.BrandFit,
		score.Diversity, score.Clarity, score.Average, score.Shortlisted,
		score.Feedback, score.CreatedAt,
	)
	return err
}

func (s *Store) GetCuratorScore(ideaID string) (*CuratorScore, error) {
	var score CuratorScore
	err := s.db.QueryRow(`
		SELECT idea_id, groundedness, originality, brand_fit, diversity, clarity, average, shortlisted, feedback, created_at
		FROM curator_scores WHERE idea_id = ?`, ideaID).Scan(
		&score.IdeaID, &score.Groundedness, &score.Originality, &score.BrandFit,
		&score.Diversity, &score.Clarity, &score.Average, &score.Shortlisted,
		&score.Feedback, &score.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &score, nil
}
