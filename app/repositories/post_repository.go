package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"blog/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	db  *badger.DB
	loc *time.Location
}

// NewBadgerPostRepository creates a new BadgerPostRepository. Publish
// dates used for slug uniqueness are taken in loc (nil means UTC).
func NewBadgerPostRepository(db *badger.DB, loc *time.Location) *BadgerPostRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &BadgerPostRepository{db: db, loc: loc}
}

// Create creates a new post
func (r *BadgerPostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.Update(func(txn *badger.Txn) error {
		idxKey := slugDateKey(post.PublishDate(r.loc), post.Slug)
		if _, err := txn.Get(idxKey); err == nil {
			return ErrDuplicateSlug
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		id, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}
		post.ID = id

		data, err := marshalEntity(storedPost(post))
		if err != nil {
			return err
		}
		if err := txn.Set(postKey(post.ID), data); err != nil {
			return err
		}
		return txn.Set(idxKey, []byte(strconv.Itoa(post.ID)))
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	var post *models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		post, err = loadPost(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// GetBySlugDate retrieves a post through the slug/publish-date index.
func (r *BadgerPostRepository) GetBySlugDate(ctx context.Context, slug, date string) (*models.Post, error) {
	var post *models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getInt(txn, slugDateKey(date, slug))
		if err != nil {
			return err
		}
		post, err = loadPost(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// List retrieves every post matching filter, newest first
func (r *BadgerPostRepository) List(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(PostKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(PostKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var post models.Post
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal post: %w", err)
			}
			if filter.Status != "" && post.Status != filter.Status {
				continue
			}
			if filter.TagID > 0 {
				if _, err := txn.Get(taggedKey(post.ID, filter.TagID)); err == badger.ErrKeyNotFound {
					continue
				} else if err != nil {
					return err
				}
			}
			posts = append(posts, &post)
		}

		for _, post := range posts {
			tags, err := loadPostTags(txn, post.ID)
			if err != nil {
				return err
			}
			post.Tags = tags
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortPosts(posts)
	return posts, nil
}

// Update updates an existing post, moving its slug index entry when the
// slug or publish date changed.
func (r *BadgerPostRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.Update(func(txn *badger.Txn) error {
		var existing models.Post
		if err := getEntity(txn, postKey(post.ID), &existing); err != nil {
			return err
		}

		oldIdx := slugDateKey(existing.PublishDate(r.loc), existing.Slug)
		newIdx := slugDateKey(post.PublishDate(r.loc), post.Slug)
		if string(oldIdx) != string(newIdx) {
			if owner, err := getInt(txn, newIdx); err == nil && owner != post.ID {
				return ErrDuplicateSlug
			} else if err != nil && err != ErrNotFound {
				return err
			}
			if err := txn.Delete(oldIdx); err != nil {
				return err
			}
			if err := txn.Set(newIdx, []byte(strconv.Itoa(post.ID))); err != nil {
				return err
			}
		}

		data, err := marshalEntity(storedPost(post))
		if err != nil {
			return err
		}
		return txn.Set(postKey(post.ID), data)
	})
}

// Delete deletes a post by ID along with its comments and tag links,
// all in one transaction.
func (r *BadgerPostRepository) Delete(ctx context.Context, id int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		var existing models.Post
		if err := getEntity(txn, postKey(id), &existing); err != nil {
			return err
		}

		keys := [][]byte{postKey(id), slugDateKey(existing.PublishDate(r.loc), existing.Slug)}
		keys = append(keys, keysWithPrefix(txn, commentPrefix(id))...)
		keys = append(keys, keysWithPrefix(txn, taggedPrefix(id))...)
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

func loadPost(txn *badger.Txn, id int) (*models.Post, error) {
	var post models.Post
	if err := getEntity(txn, postKey(id), &post); err != nil {
		return nil, err
	}
	tags, err := loadPostTags(txn, id)
	if err != nil {
		return nil, err
	}
	post.Tags = tags
	return &post, nil
}
