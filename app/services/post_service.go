// Package services holds the blog's query and business logic: which posts
// readers may see, how listings are filtered and paginated, which posts
// are similar, and how search results are ranked.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"blog/app/models"
	"blog/app/repositories"
)

// MaxSimilarPosts caps the "similar posts" list on a detail page.
const MaxSimilarPosts = 4

// SearchIndex ranks published posts against a query.
type SearchIndex interface {
	Index(ctx context.Context, post *models.Post) error
	Remove(ctx context.Context, id int) error
	Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error)
}

// PostPage is one page of a post listing, optionally scoped to a tag.
type PostPage struct {
	*Page[*models.Post]
	Tag *models.Tag `json:"tag,omitempty"`
}

// SearchResult is a published post with its search rank.
type SearchResult struct {
	Post *models.Post `json:"post"`
	Rank float64      `json:"rank"`
}

// PostService handles business logic for blog posts
type PostService struct {
	store    repositories.Store
	index    SearchIndex
	loc      *time.Location
	pageSize int
	logger   *slog.Logger
}

// Option configures a PostService.
type Option func(*PostService)

// WithLocation sets the time zone publish dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *PostService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithPageSize overrides DefaultPageSize.
func WithPageSize(n int) Option {
	return func(s *PostService) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *PostService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewPostService creates a new PostService. index may be nil, in which
// case searches find nothing.
func NewPostService(store repositories.Store, index SearchIndex, opts ...Option) *PostService {
	s := &PostService{
		store:    store,
		index:    index,
		loc:      time.UTC,
		pageSize: DefaultPageSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the configured time zone.
func (s *PostService) Location() *time.Location {
	return s.loc
}

func (s *PostService) localize(posts ...*models.Post) {
	for _, p := range posts {
		p.Publish = p.Publish.In(s.loc)
		p.Created = p.Created.In(s.loc)
		p.Updated = p.Updated.In(s.loc)
	}
}

// Published returns every published post, newest first.
func (s *PostService) Published(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.store.Posts().List(ctx, repositories.PostFilter{Status: models.StatusPublished})
	if err != nil {
		return nil, fmt.Errorf("failed to list published posts: %w", err)
	}
	s.localize(posts...)
	return posts, nil
}

// List returns one page of published posts. A non-empty tagSlug limits the
// listing to that tag and must name an existing tag. The page argument is
// the raw request parameter and is never rejected.
func (s *PostService) List(ctx context.Context, tagSlug, page string) (*PostPage, error) {
	filter := repositories.PostFilter{Status: models.StatusPublished}

	var tag *models.Tag
	if tagSlug != "" {
		var err error
		tag, err = s.store.Tags().GetBySlug(ctx, tagSlug)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", tagSlug, err)
		}
		filter.TagID = tag.ID
	}

	posts, err := s.store.Posts().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	s.localize(posts...)
	return &PostPage{Page: Paginate(posts, s.pageSize, page), Tag: tag}, nil
}

// Detail finds the published post with slug whose publish date, in the
// configured time zone, is year-month-day.
func (s *PostService) Detail(ctx context.Context, year, month, day int, slug string) (*models.Post, error) {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, s.loc)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return nil, fmt.Errorf("no post on %d-%d-%d: %w", year, month, day, repositories.ErrNotFound)
	}

	post, err := s.store.Posts().GetBySlugDate(ctx, slug, d.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("post %q: %w", slug, err)
	}
	if !post.IsPublished() {
		return nil, fmt.Errorf("post %q: %w", slug, repositories.ErrNotFound)
	}
	s.localize(post)
	return post, nil
}

// Similar returns up to MaxSimilarPosts published posts sharing at least
// one tag with post, most shared tags first and newest first among equals.
func (s *PostService) Similar(ctx context.Context, post *models.Post) ([]*models.Post, error) {
	if len(post.Tags) == 0 {
		return nil, nil
	}
	tagIDs := make(map[int]bool, len(post.Tags))
	for _, t := range post.Tags {
		tagIDs[t.ID] = true
	}

	published, err := s.Published(ctx)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		post   *models.Post
		shared int
	}
	var candidates []candidate
	for _, p := range published {
		if p.ID == post.ID {
			continue
		}
		shared := 0
		for _, t := range p.Tags {
			if tagIDs[t.ID] {
				shared++
			}
		}
		if shared > 0 {
			candidates = append(candidates, candidate{p, shared})
		}
	}

	// published is already newest first, so a stable sort keeps that order
	// among posts with the same number of shared tags.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].shared > candidates[j].shared
	})

	n := min(len(candidates), MaxSimilarPosts)
	similar := make([]*models.Post, n)
	for i := range similar {
		similar[i] = candidates[i].post
	}
	return similar, nil
}

// Search ranks published posts against query, best match first. A blank
// query finds nothing.
func (s *PostService) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" || s.index == nil {
		return nil, nil
	}

	hits, err := s.index.Search(ctx, query, 0)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		post, err := s.store.Posts().GetByID(ctx, hit.PostID)
		if errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warn("search index references a missing post", "post_id", hit.PostID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load post %d: %w", hit.PostID, err)
		}
		if !post.IsPublished() {
			continue
		}
		s.localize(post)
		results = append(results, SearchResult{Post: post, Rank: hit.Rank})
	}
	return results, nil
}

// Get returns any post, published or not.
func (s *PostService) Get(ctx context.Context, id int) (*models.Post, error) {
	post, err := s.store.Posts().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("post %d: %w", id, err)
	}
	s.localize(post)
	return post, nil
}

// GetPublished returns the post only if it is published.
func (s *PostService) GetPublished(ctx context.Context, id int) (*models.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished() {
		return nil, fmt.Errorf("post %d: %w", id, repositories.ErrNotFound)
	}
	return post, nil
}

// Tags lists every tag by name.
func (s *PostService) Tags(ctx context.Context) ([]*models.Tag, error) {
	return s.store.Tags().List(ctx)
}

// Create validates and stores a new post, tags it with tagNames and adds
// it to the search index.
func (s *PostService) Create(ctx context.Context, post *models.Post, tagNames []string) (*models.Post, error) {
	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("invalid post: %w", err)
	}
	if err := s.store.Posts().Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	tags, err := s.store.Tags().SetForPost(ctx, post.ID, tagNames)
	if err != nil {
		return nil, fmt.Errorf("failed to tag post %d: %w", post.ID, err)
	}
	post.Tags = tags

	if err := s.indexPost(ctx, post); err != nil {
		return nil, err
	}
	s.logger.Info("post created", "post_id", post.ID, "slug", post.Slug, "status", post.Status)
	s.localize(post)
	return post, nil
}

// Update stores changes to an existing post. A nil tagNames leaves the
// tags untouched; an empty one clears them.
func (s *PostService) Update(ctx context.Context, post *models.Post, tagNames []string) (*models.Post, error) {
	existing, err := s.store.Posts().GetByID(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("post %d: %w", post.ID, err)
	}

	post.Created = existing.Created
	if post.Slug == "" {
		post.Slug = models.Slugify(post.Title)
	}
	post.BeforeSave()
	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("invalid post: %w", err)
	}
	if err := s.store.Posts().Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post %d: %w", post.ID, err)
	}

	if tagNames != nil {
		if _, err := s.store.Tags().SetForPost(ctx, post.ID, tagNames); err != nil {
			return nil, fmt.Errorf("failed to tag post %d: %w", post.ID, err)
		}
	}

	updated, err := s.store.Posts().GetByID(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("post %d: %w", post.ID, err)
	}
	if err := s.indexPost(ctx, updated); err != nil {
		return nil, err
	}
	s.localize(updated)
	return updated, nil
}

// Delete removes a post along with its comments and tag links.
func (s *PostService) Delete(ctx context.Context, id int) error {
	if err := s.store.Posts().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete post %d: %w", id, err)
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			return fmt.Errorf("failed to unindex post %d: %w", id, err)
		}
	}
	s.logger.Info("post deleted", "post_id", id)
	return nil
}

// Reindex feeds every stored post to the search index and returns how
// many are searchable afterwards.
func (s *PostService) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	posts, err := s.store.Posts().List(ctx, repositories.PostFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to list posts: %w", err)
	}
	indexed := 0
	for _, p := range posts {
		if err := s.indexPost(ctx, p); err != nil {
			return indexed, err
		}
		if p.IsPublished() {
			indexed++
		}
	}
	s.logger.Info("search index rebuilt", "posts", indexed)
	return indexed, nil
}

func (s *PostService) indexPost(ctx context.Context, post *models.Post) error {
	if s.index == nil {
		return nil
	}
	if err := s.index.Index(ctx, post); err != nil {
		return fmt.Errorf("failed to index post %d: %w", post.ID, err)
	}
	return nil
}
