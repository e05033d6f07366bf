package services

import (
	"context"
	"fmt"
	"log/slog"

	"blog/app/forms"
	"blog/app/models"
	"blog/app/repositories"
)

// CommentService handles business logic for comments
type CommentService struct {
	comments repositories.CommentRepository
	logger   *slog.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(store repositories.Store, logger *slog.Logger) *CommentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentService{comments: store.Comments(), logger: logger}
}

// Add validates a reader's comment form and stores it as an active
// comment on post. An invalid form yields a *forms.ValidationError and
// stores nothing.
func (s *CommentService) Add(ctx context.Context, post *models.Post, form forms.CommentForm) (*models.Comment, error) {
	form = form.Clean()
	if err := form.Validate(); err != nil {
		return nil, err
	}
	comment := models.NewComment(post.ID, form.Name, form.Email, form.Body)
	if err := s.Create(ctx, comment); err != nil {
		return nil, err
	}
	s.logger.Info("comment added", "post_id", post.ID, "comment_id", comment.ID)
	return comment, nil
}

// Create stores a comment as given, keeping its active flag.
func (s *CommentService) Create(ctx context.Context, comment *models.Comment) error {
	comment.BeforeCreate()
	if err := comment.Validate(); err != nil {
		return fmt.Errorf("invalid comment: %w", err)
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return fmt.Errorf("failed to create comment on post %d: %w", comment.PostID, err)
	}
	return nil
}

// Active lists a post's active comments, oldest first.
func (s *CommentService) Active(ctx context.Context, postID int) ([]*models.Comment, error) {
	comments, err := s.comments.ListByPost(ctx, postID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments for post %d: %w", postID, err)
	}
	return comments, nil
}

// CountActive counts a post's active comments.
func (s *CommentService) CountActive(ctx context.Context, postID int) (int, error) {
	comments, err := s.Active(ctx, postID)
	if err != nil {
		return 0, err
	}
	return len(comments), nil
}

// SetActive shows or hides a comment.
func (s *CommentService) SetActive(ctx context.Context, id int, active bool) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("comment %d: %w", id, err)
	}
	comment.Active = active
	comment.BeforeSave()
	return s.comments.Update(ctx, comment)
}

func (s *CommentService) Delete(ctx context.Context, id int) error {
	if err := s.comments.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete comment %d: %w", id, err)
	}
	return nil
}
