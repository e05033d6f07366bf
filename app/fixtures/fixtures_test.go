package fixtures

import (
	"context"
	"strings"
	"testing"

	"blog/app/models"
	"blog/app/repositories/mock"
	"blog/app/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFile(t *testing.T) {
	f, err := ParseFile("testdata/blog.yaml")
	require.NoError(t, err)
	require.Len(t, f.Posts, 3)
	assert.Equal(t, "Who was Django Reinhardt?", f.Posts[0].Title)
	assert.Equal(t, []string{"music", "jazz"}, f.Posts[0].Tags)
	assert.Equal(t, 2024, f.Posts[0].Publish.Year())
	require.Len(t, f.Posts[0].Comments, 2)
	require.NotNil(t, f.Posts[0].Comments[1].Active)
	assert.False(t, *f.Posts[0].Comments[1].Active)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("posts:\n  - title: x\n    colour: red\n"))
	assert.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Posts)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	store := mock.NewStore()
	posts := services.NewPostService(store, nil)
	comments := services.NewCommentService(store, nil)

	f, err := ParseFile("testdata/blog.yaml")
	require.NoError(t, err)
	res, err := f.Apply(ctx, posts, comments)
	require.NoError(t, err)
	assert.Equal(t, Result{Posts: 3, Comments: 2}, res)

	published, err := posts.Published(ctx)
	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, "notes-on-gypsy-jazz", published[0].Slug)

	first := published[1]
	assert.Equal(t, "admin", first.Author.Username)
	assert.Equal(t, []string{"jazz", "music"}, first.TagNames())

	count, err := comments.CountActive(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	draft, err := posts.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, draft.Status)
}

func TestApplyStopsOnInvalidPost(t *testing.T) {
	store := mock.NewStore()
	f := &File{Posts: []Post{{Title: "", Body: "no title"}}}
	res, err := f.Apply(context.Background(), services.NewPostService(store, nil), services.NewCommentService(store, nil))
	assert.Error(t, err)
	assert.Zero(t, res.Posts)
}
