package repositories

import (
	"context"
	"testing"
	"time"

	"blog/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerCommentRepository(t *testing.T) {
	ctx := context.Background()
	store := NewBadgerStore(setupTestDB(t), time.UTC)
	repo := store.Comments()

	post := newTestPost("Commented", time.Now(), models.StatusPublished)
	require.NoError(t, store.Posts().Create(ctx, post))

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var created []*models.Comment
	for i := 0; i < 11; i++ {
		c := models.NewComment(post.ID, "Reader", "reader@example.com", "comment")
		c.Created = base.Add(time.Duration(i) * time.Minute)
		c.BeforeCreate()
		require.NoError(t, repo.Create(ctx, c))
		created = append(created, c)
	}

	t.Run("create for missing post", func(t *testing.T) {
		c := models.NewComment(999, "Reader", "reader@example.com", "comment")
		c.BeforeCreate()
		assert.ErrorIs(t, repo.Create(ctx, c), ErrNotFound)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, created[9].ID)
		require.NoError(t, err)
		assert.Equal(t, created[9].ID, got.ID)
		assert.Equal(t, post.ID, got.PostID)

		_, err = repo.GetByID(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list oldest first", func(t *testing.T) {
		comments, err := repo.ListByPost(ctx, post.ID, false)
		require.NoError(t, err)
		require.Len(t, comments, 11)
		for i := 1; i < len(comments); i++ {
			assert.True(t, comments[i-1].Created.Before(comments[i].Created))
		}
	})

	t.Run("update keeps post and filters inactive", func(t *testing.T) {
		c, err := repo.GetByID(ctx, created[0].ID)
		require.NoError(t, err)
		c.Active = false
		c.PostID = 42
		require.NoError(t, repo.Update(ctx, c))
		assert.Equal(t, post.ID, c.PostID)

		active, err := repo.ListByPost(ctx, post.ID, true)
		require.NoError(t, err)
		assert.Len(t, active, 10)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, created[1].ID))
		_, err := repo.GetByID(ctx, created[1].ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, created[1].ID), ErrNotFound)
	})
}
