package postgres

import (
	"context"

	"blog/app/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Searcher ranks published posts with a weighted tsvector: title at
// weight A, body at weight B. The vector is computed from the rows on
// each query, so Index and Remove have nothing to do.
type Searcher struct {
	pool *pgxpool.Pool
}

func (s *Searcher) Index(ctx context.Context, post *models.Post) error { return nil }

func (s *Searcher) Remove(ctx context.Context, id int) error { return nil }

func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, rank FROM (
			SELECT p.id, p.publish,
				ts_rank(
					setweight(to_tsvector('english', p.title), 'A') ||
					setweight(to_tsvector('english', p.body), 'B'),
					plainto_tsquery('english', $1)) AS rank,
				(setweight(to_tsvector('english', p.title), 'A') ||
					setweight(to_tsvector('english', p.body), 'B')) @@ plainto_tsquery('english', $1) AS matched
			FROM posts p
			WHERE p.status = 'published'
		) ranked
		WHERE matched
		ORDER BY rank DESC, publish DESC
		LIMIT $2`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var hit models.SearchHit
		var rank float32
		if err := rows.Scan(&hit.PostID, &rank); err != nil {
			return nil, err
		}
		hit.Rank = float64(rank)
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

func (s *Searcher) Close() error { return nil }
