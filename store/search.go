package store

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// SemanticHit is one vector-search candidate with its cosine distance.
type SemanticHit struct {
	ArticleID uuid.UUID
	Distance  float64
}

// KeywordHit is one keyword-search candidate with its combined rank.
type KeywordHit struct {
	ArticleID uuid.UUID
	Rank      float64
}

// SemanticSearch ranks completed, embedded articles by cosine distance to
// queryVec. The caller must produce queryVec with the query-mode encoder;
// document-mode embeddings live in the table.
func (s *Store) SemanticSearch(userID uuid.UUID, queryVec []float32, limit int) ([]SemanticHit, error) {
	var hits []SemanticHit
	err := s.db.Raw(`
		SELECT id AS article_id, embedding <=> ? AS distance
		FROM articles
		WHERE user_id = ? AND processing_status = 'completed' AND embedding IS NOT NULL
		ORDER BY distance
		LIMIT ?`,
		pgvector.NewVector(queryVec), userID, limit,
	).Scan(&hits).Error
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return hits, nil
}

// KeywordSearch combines full-text rank with a direct title substring
// match and a tag-name match.
func (s *Store) KeywordSearch(userID uuid.UUID, query string, limit int) ([]KeywordHit, error) {
	like := "%" + query + "%"
	var hits []KeywordHit
	err := s.db.Raw(`
		SELECT a.id AS article_id,
			coalesce(ts_rank(a.search_vector, plainto_tsquery('english', ?)), 0)
			+ CASE WHEN a.title ILIKE ? THEN 0.5 ELSE 0 END
			+ CASE WHEN EXISTS (
				SELECT 1 FROM article_tags at
				JOIN tags t ON t.id = at.tag_id
				WHERE at.article_id = a.id AND t.name ILIKE ?
			) THEN 0.3 ELSE 0 END AS rank
		FROM articles a
		WHERE a.user_id = ? AND a.processing_status = 'completed'
			AND (a.search_vector @@ plainto_tsquery('english', ?)
				OR a.title ILIKE ?
				OR EXISTS (
					SELECT 1 FROM article_tags at
					JOIN tags t ON t.id = at.tag_id
					WHERE at.article_id = a.id AND t.name ILIKE ?
				))
		ORDER BY rank DESC
		LIMIT ?`,
		query, like, like, userID, query, like, like, limit,
	).Scan(&hits).Error
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return hits, nil
}

// RecentCompleted returns the most recently created completed articles,
// the fallback context when both search methods come up empty.
func (s *Store) RecentCompleted(userID uuid.UUID, limit int) ([]Article, error) {
	var out []Article
	err := s.db.Where("user_id = ? AND processing_status = 'completed'", userID).
		Order("created_at DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("recent completed: %w", err)
	}
	return out, nil
}

// ArticlesByIDs loads articles preserving no particular order; callers
// re-sort by their own scores.
func (s *Store) ArticlesByIDs(userID uuid.UUID, ids []uuid.UUID) ([]Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []Article
	err := s.db.Where("user_id = ? AND id IN ?", userID, ids).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("load articles by ids: %w", err)
	}
	return out, nil
}
