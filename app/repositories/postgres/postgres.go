// Package postgres implements the content store on PostgreSQL through
// pgx, including weighted full-text search over title and body.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog/app/models"
	"blog/app/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	id SERIAL PRIMARY KEY,
	title VARCHAR(250) NOT NULL,
	slug VARCHAR(250) NOT NULL,
	author_id INTEGER NOT NULL,
	author_username VARCHAR(150) NOT NULL,
	body TEXT NOT NULL,
	publish TIMESTAMPTZ NOT NULL,
	publish_date DATE NOT NULL,
	created TIMESTAMPTZ NOT NULL,
	updated TIMESTAMPTZ NOT NULL,
	status VARCHAR(10) NOT NULL DEFAULT 'draft',
	UNIQUE (slug, publish_date)
);
CREATE INDEX IF NOT EXISTS idx_posts_publish ON posts(publish DESC);
CREATE TABLE IF NOT EXISTS comments (
	id SERIAL PRIMARY KEY,
	post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	name VARCHAR(80) NOT NULL,
	email VARCHAR(254) NOT NULL,
	body TEXT NOT NULL,
	created TIMESTAMPTZ NOT NULL,
	updated TIMESTAMPTZ NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
CREATE TABLE IF NOT EXISTS tags (
	id SERIAL PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	slug VARCHAR(100) NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS tagged_items (
	post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (post_id, tag_id)
);
`

const uniqueViolation = "23505"

// Store implements repositories.Store on a pgx connection pool.
type Store struct {
	pool     *pgxpool.Pool
	loc      *time.Location
	posts    *PostRepository
	comments *CommentRepository
	tags     *TagRepository
	searcher *Searcher
}

// New connects to dsn and creates the schema if needed.
func New(ctx context.Context, dsn string, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.UTC
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	s := &Store{pool: pool, loc: loc}
	s.posts = &PostRepository{pool: pool, loc: loc}
	s.comments = &CommentRepository{pool: pool}
	s.tags = &TagRepository{pool: pool}
	s.searcher = &Searcher{pool: pool}
	return s, nil
}

func (s *Store) Posts() repositories.PostRepository       { return s.posts }
func (s *Store) Comments() repositories.CommentRepository { return s.comments }
func (s *Store) Tags() repositories.TagRepository         { return s.tags }

// Searcher returns the tsvector-backed search index for this store.
func (s *Store) Searcher() *Searcher { return s.searcher }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// PostRepository implements repositories.PostRepository.
type PostRepository struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

const postColumns = `p.id, p.title, p.slug, p.author_id, p.author_username, p.body,
	p.publish, p.created, p.updated, p.status`

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	var status string
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Author.ID, &p.Author.Username, &p.Body,
		&p.Publish, &p.Created, &p.Updated, &status)
	if err != nil {
		return nil, err
	}
	p.Status = models.Status(status)
	return &p, nil
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO posts (title, slug, author_id, author_username, body, publish, publish_date, created, updated, status)
		VALUES ($1, $2, $3, $4, $5, $6, to_date($7, 'YYYY-MM-DD'), $8, $9, $10)
		RETURNING id`,
		post.Title, post.Slug, post.Author.ID, post.Author.Username, post.Body,
		post.Publish, post.PublishDate(r.loc), post.Created, post.Updated, string(post.Status),
	).Scan(&post.ID)
	if isUniqueViolation(err) {
		return repositories.ErrDuplicateSlug
	}
	return err
}

func (r *PostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	return r.getOne(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id)
}

func (r *PostRepository) GetBySlugDate(ctx context.Context, slug, date string) (*models.Post, error) {
	return r.getOne(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.slug = $1 AND p.publish_date = to_date($2, 'YYYY-MM-DD')`, slug, date)
}

func (r *PostRepository) getOne(ctx context.Context, query string, args ...any) (*models.Post, error) {
	post, err := scanPost(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if post.Tags, err = postTags(ctx, r.pool, post.ID); err != nil {
		return nil, err
	}
	return post, nil
}

func (r *PostRepository) List(ctx context.Context, filter repositories.PostFilter) ([]*models.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts p
		WHERE ($1 = '' OR p.status = $1)
		AND ($2 = 0 OR EXISTS (SELECT 1 FROM tagged_items ti WHERE ti.post_id = p.id AND ti.tag_id = $2))
		ORDER BY p.publish DESC, p.id DESC`,
		string(filter.Status), filter.TagID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, post := range posts {
		if post.Tags, err = postTags(ctx, r.pool, post.ID); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE posts SET title = $2, slug = $3, author_id = $4, author_username = $5, body = $6,
			publish = $7, publish_date = to_date($8, 'YYYY-MM-DD'), updated = $9, status = $10
		WHERE id = $1`,
		post.ID, post.Title, post.Slug, post.Author.ID, post.Author.Username, post.Body,
		post.Publish, post.PublishDate(r.loc), post.Updated, string(post.Status))
	if isUniqueViolation(err) {
		return repositories.ErrDuplicateSlug
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// Delete relies on ON DELETE CASCADE for comments and tag links.
func (r *PostRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// CommentRepository implements repositories.CommentRepository.
type CommentRepository struct {
	pool *pgxpool.Pool
}

const commentColumns = `id, post_id, name, email, body, created, updated, active`

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.Name, &c.Email, &c.Body, &c.Created, &c.Updated, &c.Active)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO comments (post_id, name, email, body, created, updated, active)
		SELECT $1::integer, $2::text, $3::text, $4::text, $5::timestamptz, $6::timestamptz, $7::boolean
		WHERE EXISTS (SELECT 1 FROM posts WHERE id = $1::integer)
		RETURNING id`,
		comment.PostID, comment.Name, comment.Email, comment.Body, comment.Created, comment.Updated, comment.Active,
	).Scan(&comment.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return repositories.ErrNotFound
	}
	return err
}

func (r *CommentRepository) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	return c, err
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID int, activeOnly bool) ([]*models.Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+commentColumns+` FROM comments
		WHERE post_id = $1 AND (NOT $2 OR active)
		ORDER BY created, id`, postID, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *CommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE comments SET name = $2, email = $3, body = $4, updated = $5, active = $6
		WHERE id = $1
		RETURNING post_id`,
		comment.ID, comment.Name, comment.Email, comment.Body, comment.Updated, comment.Active,
	).Scan(&comment.PostID)
	if errors.Is(err, pgx.ErrNoRows) {
		return repositories.ErrNotFound
	}
	return err
}

func (r *CommentRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

// TagRepository implements repositories.TagRepository.
type TagRepository struct {
	pool *pgxpool.Pool
}

func (r *TagRepository) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var t models.Tag
	err := r.pool.QueryRow(ctx, `SELECT id, name, slug FROM tags WHERE slug = $1`, slug).Scan(&t.ID, &t.Name, &t.Slug)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	return queryTags(ctx, r.pool, `SELECT id, name, slug FROM tags ORDER BY name`)
}

func (r *TagRepository) ForPost(ctx context.Context, postID int) ([]*models.Tag, error) {
	return postTags(ctx, r.pool, postID)
}

func (r *TagRepository) SetForPost(ctx context.Context, postID int, names []string) ([]*models.Tag, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return repositories.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM tagged_items WHERE post_id = $1`, postID); err != nil {
			return err
		}
		for _, name := range names {
			tag := models.NewTag(name)
			if tag.Slug == "" {
				continue
			}
			if err := tag.Validate(); err != nil {
				return err
			}
			// The no-op update makes RETURNING yield the existing row.
			err := tx.QueryRow(ctx, `
				INSERT INTO tags (name, slug) VALUES ($1, $2)
				ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
				RETURNING id`, tag.Name, tag.Slug).Scan(&tag.ID)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO tagged_items (post_id, tag_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, postID, tag.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return postTags(ctx, r.pool, postID)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func postTags(ctx context.Context, q querier, postID int) ([]*models.Tag, error) {
	return queryTags(ctx, q, `
		SELECT t.id, t.name, t.slug FROM tags t
		JOIN tagged_items ti ON ti.tag_id = t.id
		WHERE ti.post_id = $1
		ORDER BY t.name`, postID)
}

func queryTags(ctx context.Context, q querier, sql string, args ...any) ([]*models.Tag, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}
