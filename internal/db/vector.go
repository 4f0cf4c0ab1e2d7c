package db

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// SimilarityResult is one nearest-neighbor hit from FindSimilar.
type SimilarityResult struct {
	HighlightID string  `json:"highlight_id"`
	Score       float64 `json:"score"`
}

// StoreEmbedding appends an embedding row for a highlight. Re-embedding the
// same highlight adds another row; lookups use the most recent one.
func (s *Store) StoreEmbedding(highlightID string, vector []float32, model string) error {
	_, err := s.db.Exec(`INSERT INTO embeddings (highlight_id, vector, model) VALUES (?, ?, ?)`,
		highlightID, float32SliceToBytes(vector), model)
	return err
}

// GetEmbedding returns the most recently stored vector for a highlight, or
// nil if none exists.
func (s *Store) GetEmbedding(highlightID string) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRow(`
		SELECT vector FROM embeddings WHERE highlight_id = ? ORDER BY id DESC LIMIT 1`,
		highlightID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return bytesToFloat32Slice(blob), nil
}

// FindSimilar brute-force scans the latest embedding of every highlight not
// in excludeIDs and returns the top limit matches by cosine similarity,
// descending. Ties break by highlight id so a fixed input set always yields
// the same order. Intended for corpora of at most a few thousand highlights.
func (s *Store) FindSimilar(queryVector []float32, limit int, excludeIDs []string) ([]SimilarityResult, error) {
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	// Latest embedding row per highlight.
	rows, err := s.db.Query(`
		SELECT e.highlight_id, e.vector
		FROM embeddings e
		JOIN (SELECT highlight_id, MAX(id) AS max_id FROM embeddings GROUP BY highlight_id) latest
		ON e.id = latest.max_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SimilarityResult
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		if excluded[id] {
			continue
		}
		vec := bytesToFloat32Slice(blob)
		score, err := CosineSimilarity(queryVector, vec)
		if err != nil {
			return nil, fmt.Errorf("highlight %s: %w", id, err)
		}
		results = append(results, SimilarityResult{HighlightID: id, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].HighlightID < results[j].HighlightID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CosineSimilarity is bounded in [-1, 1]. A zero vector scores 0 against
// anything. Vectors of different lengths are an error.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(a), len(b))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

func float32SliceToBytes(s []float32) []byte {
	b := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func bytesToFloat32Slice(b []byte) []float32 {
	if len(b)%4 != 0 {
		return nil
	}
	s := make([]float32, len(b)/4)
	for i := range s {
		s[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return s
}
