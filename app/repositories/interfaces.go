package repositories

import (
	"context"
	"errors"

	"blog/app/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateSlug = errors.New("slug already used for this publish date")
)

// PostFilter narrows a post listing. Zero values mean "no filter".
type PostFilter struct {
	Status models.Status
	TagID  int
}

// PostRepository defines the interface for post data access. Posts are
// returned with their tags attached, ordered by publish time descending.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int) (*models.Post, error)
	// GetBySlugDate looks a post up by slug and publish date (yyyy-mm-dd).
	GetBySlugDate(ctx context.Context, slug, date string) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	// Delete removes the post together with its comments and tag links.
	Delete(ctx context.Context, id int) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int) (*models.Comment, error)
	ListByPost(ctx context.Context, postID int, activeOnly bool) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id int) error
}

// TagRepository is the tagging collaborator: tags are created on first
// use and linked to posts by name.
type TagRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.Tag, error)
	List(ctx context.Context) ([]*models.Tag, error)
	ForPost(ctx context.Context, postID int) ([]*models.Tag, error)
	// SetForPost replaces the post's tags with the named ones.
	SetForPost(ctx context.Context, postID int, names []string) ([]*models.Tag, error)
}

// Store bundles the repositories of one backend.
type Store interface {
	Posts() PostRepository
	Comments() CommentRepository
	Tags() TagRepository
	Close() error
}
