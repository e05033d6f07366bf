package repositories

import (
	"context"
	"testing"
	"time"

	"blog/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerPostRepository(t *testing.T) {
	ctx := context.Background()
	store := NewBadgerStore(setupTestDB(t), time.UTC)
	repo := store.Posts()
	day := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	first := newTestPost("First Post", day, models.StatusPublished)
	require.NoError(t, repo.Create(ctx, first))
	assert.Equal(t, 1, first.ID)

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "First Post", got.Title)
		assert.Equal(t, "first-post", got.Slug)
		assert.True(t, got.Publish.Equal(day))
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("get by slug and date", func(t *testing.T) {
		got, err := repo.GetBySlugDate(ctx, "first-post", "2024-03-09")
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)

		_, err = repo.GetBySlugDate(ctx, "first-post", "2024-03-10")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("slug unique per publish date", func(t *testing.T) {
		dup := newTestPost("First Post", day.Add(2*time.Hour), models.StatusDraft)
		assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicateSlug)

		nextDay := newTestPost("First Post", day.Add(24*time.Hour), models.StatusDraft)
		require.NoError(t, repo.Create(ctx, nextDay))
		assert.Equal(t, "first-post", nextDay.Slug)
	})

	t.Run("update moves slug index", func(t *testing.T) {
		post, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		post.Slug = "renamed"
		require.NoError(t, repo.Update(ctx, post))

		_, err = repo.GetBySlugDate(ctx, "first-post", "2024-03-09")
		assert.ErrorIs(t, err, ErrNotFound)
		got, err := repo.GetBySlugDate(ctx, "renamed", "2024-03-09")
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
	})

	t.Run("update into taken slug", func(t *testing.T) {
		other := newTestPost("Other", day, models.StatusDraft)
		require.NoError(t, repo.Create(ctx, other))
		other.Slug = "renamed"
		assert.ErrorIs(t, repo.Update(ctx, other), ErrDuplicateSlug)
	})

	t.Run("update missing", func(t *testing.T) {
		assert.ErrorIs(t, repo.Update(ctx, &models.Post{ID: 999}), ErrNotFound)
	})
}

func TestBadgerPostRepositoryList(t *testing.T) {
	ctx := context.Background()
	store := NewBadgerStore(setupTestDB(t), time.UTC)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older := newTestPost("Older", base, models.StatusPublished)
	newer := newTestPost("Newer", base.Add(48*time.Hour), models.StatusPublished)
	draft := newTestPost("Draft", base.Add(24*time.Hour), models.StatusDraft)
	for _, p := range []*models.Post{older, newer, draft} {
		require.NoError(t, store.Posts().Create(ctx, p))
	}
	_, err := store.Tags().SetForPost(ctx, older.ID, []string{"go"})
	require.NoError(t, err)
	_, err = store.Tags().SetForPost(ctx, draft.ID, []string{"go"})
	require.NoError(t, err)

	t.Run("all posts newest first", func(t *testing.T) {
		posts, err := store.Posts().List(ctx, PostFilter{})
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, []string{"Newer", "Draft", "Older"}, titles(posts))
	})

	t.Run("published only", func(t *testing.T) {
		posts, err := store.Posts().List(ctx, PostFilter{Status: models.StatusPublished})
		require.NoError(t, err)
		assert.Equal(t, []string{"Newer", "Older"}, titles(posts))
	})

	t.Run("by tag", func(t *testing.T) {
		tag, err := store.Tags().GetBySlug(ctx, "go")
		require.NoError(t, err)
		posts, err := store.Posts().List(ctx, PostFilter{Status: models.StatusPublished, TagID: tag.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{"Older"}, titles(posts))
		assert.Equal(t, []string{"go"}, posts[0].TagNames())
	})
}

func TestBadgerPostRepositoryDeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := NewBadgerStore(setupTestDB(t), time.UTC)
	day := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	doomed := newTestPost("Doomed", day, models.StatusPublished)
	kept := newTestPost("Kept", day, models.StatusPublished)
	require.NoError(t, store.Posts().Create(ctx, doomed))
	require.NoError(t, store.Posts().Create(ctx, kept))
	_, err := store.Tags().SetForPost(ctx, doomed.ID, []string{"music"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		c := models.NewComment(doomed.ID, "Ann", "ann@example.com", "hi")
		c.BeforeCreate()
		require.NoError(t, store.Comments().Create(ctx, c))
	}
	c := models.NewComment(kept.ID, "Bob", "bob@example.com", "hello")
	c.BeforeCreate()
	require.NoError(t, store.Comments().Create(ctx, c))

	require.NoError(t, store.Posts().Delete(ctx, doomed.ID))

	_, err = store.Posts().GetByID(ctx, doomed.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Posts().GetBySlugDate(ctx, "doomed", "2024-03-09")
	assert.ErrorIs(t, err, ErrNotFound)

	comments, err := store.Comments().ListByPost(ctx, doomed.ID, false)
	require.NoError(t, err)
	assert.Empty(t, comments)

	comments, err = store.Comments().ListByPost(ctx, kept.ID, false)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	tags, err := store.Tags().ForPost(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)

	assert.ErrorIs(t, store.Posts().Delete(ctx, doomed.ID), ErrNotFound)
}

func titles(posts []*models.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}
