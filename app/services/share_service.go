package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"blog/app/forms"
	"blog/app/mailer"
	"blog/app/models"
)

// ShareService emails a post recommendation on behalf of a reader.
type ShareService struct {
	posts   *PostService
	mailer  mailer.Mailer
	from    string
	baseURL string
	logger  *slog.Logger
}

// NewShareService creates a ShareService. Mail is sent from the address
// from; when it is empty the reader's own address is used. baseURL turns
// post paths into absolute links.
func NewShareService(posts *PostService, m mailer.Mailer, from, baseURL string, logger *slog.Logger) *ShareService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ShareService{
		posts:   posts,
		mailer:  m,
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Post returns the published post that can be shared.
func (s *ShareService) Post(ctx context.Context, postID int) (*models.Post, error) {
	return s.posts.GetPublished(ctx, postID)
}

// Compose builds the recommendation email for post.
func (s *ShareService) Compose(post *models.Post, form forms.EmailPostForm) mailer.Message {
	from := s.from
	if from == "" {
		from = form.Email
	}
	link := s.baseURL + post.AbsoluteURL()
	return mailer.Message{
		From:    from,
		To:      []string{form.To},
		Subject: fmt.Sprintf("%s recommends you read %s", form.Name, post.Title),
		Body: fmt.Sprintf("Read %s at %s\n\n%s's comments: %s",
			post.Title, link, form.Name, form.Comments),
	}
}

// Share validates form and sends the recommendation for the published
// post postID. Delivery failures are returned, wrapping mailer.ErrDelivery.
func (s *ShareService) Share(ctx context.Context, postID int, form forms.EmailPostForm) (*mailer.Message, error) {
	post, err := s.Post(ctx, postID)
	if err != nil {
		return nil, err
	}
	form = form.Clean()
	if err := form.Validate(); err != nil {
		return nil, err
	}

	msg := s.Compose(post, form)
	if err := s.mailer.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to share post %d: %w", postID, err)
	}
	s.logger.Info("post shared", "post_id", postID, "to", form.To)
	return &msg, nil
}
