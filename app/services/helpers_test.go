package services

import (
	"context"
	"testing"
	"time"

	"blog/app/mailer"
	"blog/app/models"
	"blog/app/repositories/mock"
	"blog/app/search"

	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store    *mock.Store
	index    *search.Index
	posts    *PostService
	comments *CommentService
	outbox   *mailer.Outbox
	share    *ShareService
}

func newTestEnv(t *testing.T, loc *time.Location) *testEnv {
	t.Helper()
	if loc == nil {
		loc = time.UTC
	}
	store := mock.NewStoreIn(loc)
	index, err := search.NewMemIndex()
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	posts := NewPostService(store, index, WithLocation(loc))
	outbox := mailer.NewOutbox()
	return &testEnv{
		store:    store,
		index:    index,
		posts:    posts,
		comments: NewCommentService(store, nil),
		outbox:   outbox,
		share:    NewShareService(posts, outbox, "blog@example.com", "http://example.com/", nil),
	}
}

var base = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// add creates a post published `day` days after base.
func (e *testEnv) add(t *testing.T, title string, status models.Status, day int, tags ...string) *models.Post {
	t.Helper()
	return e.addPost(t, &models.Post{
		Title:   title,
		Body:    "Body of " + title,
		Author:  models.Author{ID: 1, Username: "admin"},
		Status:  status,
		Publish: base.AddDate(0, 0, day),
	}, tags...)
}

func (e *testEnv) addPost(t *testing.T, post *models.Post, tags ...string) *models.Post {
	t.Helper()
	created, err := e.posts.Create(context.Background(), post, tags)
	require.NoError(t, err)
	return created
}

func titles(posts []*models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}
