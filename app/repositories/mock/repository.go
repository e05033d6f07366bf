// Package mock provides an in-memory Store with the same semantics as the
// Badger store, for service and controller tests.
package mock

import (
	"context"
	"sync"
	"time"

	"blog/app/models"
	"blog/app/repositories"
)

type state struct {
	mutex         sync.RWMutex
	loc           *time.Location
	posts         map[int]*models.Post
	comments      map[int]*models.Comment
	tags          map[int]*models.Tag
	tagged        map[int]map[int]bool // post ID -> tag IDs
	nextPostID    int
	nextCommentID int
	nextTagID     int
}

// Store is an in-memory repositories.Store.
type Store struct {
	s        *state
	posts    *PostRepository
	comments *CommentRepository
	tags     *TagRepository
}

type PostRepository struct{ s *state }

type CommentRepository struct{ s *state }

type TagRepository struct{ s *state }

// NewStore creates an empty store; publish dates are compared in UTC.
func NewStore() *Store {
	return NewStoreIn(time.UTC)
}

// NewStoreIn creates an empty store comparing publish dates in loc.
func NewStoreIn(loc *time.Location) *Store {
	s := &state{
		loc:           loc,
		posts:         make(map[int]*models.Post),
		comments:      make(map[int]*models.Comment),
		tags:          make(map[int]*models.Tag),
		tagged:        make(map[int]map[int]bool),
		nextPostID:    1,
		nextCommentID: 1,
		nextTagID:     1,
	}
	return &Store{
		s:        s,
		posts:    &PostRepository{s: s},
		comments: &CommentRepository{s: s},
		tags:     &TagRepository{s: s},
	}
}

func (m *Store) Posts() repositories.PostRepository       { return m.posts }
func (m *Store) Comments() repositories.CommentRepository { return m.comments }
func (m *Store) Tags() repositories.TagRepository         { return m.tags }
func (m *Store) Close() error                             { return nil }

// Clear drops every record and resets the ID sequences.
func (m *Store) Clear() {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()
	m.s.posts = make(map[int]*models.Post)
	m.s.comments = make(map[int]*models.Comment)
	m.s.tags = make(map[int]*models.Tag)
	m.s.tagged = make(map[int]map[int]bool)
	m.s.nextPostID, m.s.nextCommentID, m.s.nextTagID = 1, 1, 1
}

// PostRepository implementation

func (m *PostRepository) Create(ctx context.Context, post *models.Post) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if m.s.slugTaken(post, 0) {
		return repositories.ErrDuplicateSlug
	}
	post.ID = m.s.nextPostID
	m.s.nextPostID++
	m.s.posts[post.ID] = copyPost(post)
	return nil
}

func (m *PostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	post, exists := m.s.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return m.s.withTags(post), nil
}

func (m *PostRepository) GetBySlugDate(ctx context.Context, slug, date string) (*models.Post, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	for _, post := range m.s.posts {
		if post.Slug == slug && post.PublishDate(m.s.loc) == date {
			return m.s.withTags(post), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *PostRepository) List(ctx context.Context, filter repositories.PostFilter) ([]*models.Post, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	var posts []*models.Post
	for _, post := range m.s.posts {
		if filter.Status != "" && post.Status != filter.Status {
			continue
		}
		if filter.TagID > 0 && !m.s.tagged[post.ID][filter.TagID] {
			continue
		}
		posts = append(posts, m.s.withTags(post))
	}
	repositories.SortPosts(posts)
	return posts, nil
}

func (m *PostRepository) Update(ctx context.Context, post *models.Post) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if _, exists := m.s.posts[post.ID]; !exists {
		return repositories.ErrNotFound
	}
	if m.s.slugTaken(post, post.ID) {
		return repositories.ErrDuplicateSlug
	}
	m.s.posts[post.ID] = copyPost(post)
	return nil
}

func (m *PostRepository) Delete(ctx context.Context, id int) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if _, exists := m.s.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.s.posts, id)
	delete(m.s.tagged, id)
	for cid, comment := range m.s.comments {
		if comment.PostID == id {
			delete(m.s.comments, cid)
		}
	}
	return nil
}

// CommentRepository implementation

func (m *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if _, exists := m.s.posts[comment.PostID]; !exists {
		return repositories.ErrNotFound
	}
	comment.ID = m.s.nextCommentID
	m.s.nextCommentID++
	cp := *comment
	m.s.comments[comment.ID] = &cp
	return nil
}

func (m *CommentRepository) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	comment, exists := m.s.comments[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	cp := *comment
	return &cp, nil
}

func (m *CommentRepository) ListByPost(ctx context.Context, postID int, activeOnly bool) ([]*models.Comment, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	var comments []*models.Comment
	for _, comment := range m.s.comments {
		if comment.PostID != postID || (activeOnly && !comment.Active) {
			continue
		}
		cp := *comment
		comments = append(comments, &cp)
	}
	repositories.SortComments(comments)
	return comments, nil
}

func (m *CommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	existing, exists := m.s.comments[comment.ID]
	if !exists {
		return repositories.ErrNotFound
	}
	comment.PostID = existing.PostID
	cp := *comment
	m.s.comments[comment.ID] = &cp
	return nil
}

func (m *CommentRepository) Delete(ctx context.Context, id int) error {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if _, exists := m.s.comments[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.s.comments, id)
	return nil
}

// TagRepository implementation

func (m *TagRepository) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	for _, tag := range m.s.tags {
		if tag.Slug == slug {
			cp := *tag
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *TagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()

	var tags []*models.Tag
	for _, tag := range m.s.tags {
		cp := *tag
		tags = append(tags, &cp)
	}
	repositories.SortTags(tags)
	return tags, nil
}

func (m *TagRepository) ForPost(ctx context.Context, postID int) ([]*models.Tag, error) {
	m.s.mutex.RLock()
	defer m.s.mutex.RUnlock()
	return m.s.postTags(postID), nil
}

func (m *TagRepository) SetForPost(ctx context.Context, postID int, names []string) ([]*models.Tag, error) {
	m.s.mutex.Lock()
	defer m.s.mutex.Unlock()

	if _, exists := m.s.posts[postID]; !exists {
		return nil, repositories.ErrNotFound
	}
	links := make(map[int]bool)
	for _, name := range names {
		tag := models.NewTag(name)
		if tag.Slug == "" {
			continue
		}
		id := m.s.tagIDBySlug(tag.Slug)
		if id == 0 {
			if err := tag.Validate(); err != nil {
				return nil, err
			}
			tag.ID = m.s.nextTagID
			m.s.nextTagID++
			m.s.tags[tag.ID] = tag
			id = tag.ID
		}
		links[id] = true
	}
	m.s.tagged[postID] = links
	return m.s.postTags(postID), nil
}

// helpers; callers hold the mutex

func (s *state) slugTaken(post *models.Post, self int) bool {
	date := post.PublishDate(s.loc)
	for id, other := range s.posts {
		if id != self && other.Slug == post.Slug && other.PublishDate(s.loc) == date {
			return true
		}
	}
	return false
}

func (s *state) tagIDBySlug(slug string) int {
	for id, tag := range s.tags {
		if tag.Slug == slug {
			return id
		}
	}
	return 0
}

func (s *state) postTags(postID int) []*models.Tag {
	var tags []*models.Tag
	for id := range s.tagged[postID] {
		cp := *s.tags[id]
		tags = append(tags, &cp)
	}
	repositories.SortTags(tags)
	return tags
}

func (s *state) withTags(post *models.Post) *models.Post {
	cp := copyPost(post)
	cp.Tags = s.postTags(post.ID)
	return cp
}

func copyPost(post *models.Post) *models.Post {
	cp := *post
	cp.Tags = nil
	cp.Comments = nil
	return &cp
}
