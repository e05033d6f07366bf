package repositories

import (
	"context"
	"strconv"

	"blog/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerTagRepository implements TagRepository using BadgerDB
type BadgerTagRepository struct {
	db *badger.DB
}

// NewBadgerTagRepository creates a new BadgerTagRepository
func NewBadgerTagRepository(db *badger.DB) *BadgerTagRepository {
	return &BadgerTagRepository{db: db}
}

// GetBySlug retrieves a tag by its slug
func (r *BadgerTagRepository) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.View(func(txn *badger.Txn) error {
		id, err := getInt(txn, tagSlugKey(slug))
		if err != nil {
			return err
		}
		return getEntity(txn, tagKey(id), &tag)
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// List returns all tags ordered by name
func (r *BadgerTagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(TagKeyPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var tag models.Tag
			if err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &tag)
			}); err != nil {
				return err
			}
			tags = append(tags, &tag)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortTags(tags)
	return tags, nil
}

// ForPost returns the tags linked to a post
func (r *BadgerTagRepository) ForPost(ctx context.Context, postID int) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		tags, err = loadPostTags(txn, postID)
		return err
	})
	return tags, err
}

// SetForPost replaces the post's tag links, creating unknown tags.
func (r *BadgerTagRepository) SetForPost(ctx context.Context, postID int, names []string) ([]*models.Tag, error) {
	var tags []*models.Tag
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(postKey(postID)); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		for _, key := range keysWithPrefix(txn, taggedPrefix(postID)) {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}

		seen := make(map[int]bool)
		for _, name := range names {
			tag, err := getOrCreateTag(txn, name)
			if err != nil {
				return err
			}
			if tag == nil || seen[tag.ID] {
				continue
			}
			seen[tag.ID] = true
			if err := txn.Set(taggedKey(postID, tag.ID), []byte{}); err != nil {
				return err
			}
			tags = append(tags, tag)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortTags(tags)
	return tags, nil
}

// getOrCreateTag returns nil for names that slugify to nothing.
func getOrCreateTag(txn *badger.Txn, name string) (*models.Tag, error) {
	tag := models.NewTag(name)
	if tag.Slug == "" {
		return nil, nil
	}

	id, err := getInt(txn, tagSlugKey(tag.Slug))
	if err == nil {
		var existing models.Tag
		if err := getEntity(txn, tagKey(id), &existing); err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	if err := tag.Validate(); err != nil {
		return nil, err
	}
	if tag.ID, err = getNextID(txn, TagSeqKey); err != nil {
		return nil, err
	}
	data, err := marshalEntity(tag)
	if err != nil {
		return nil, err
	}
	if err := txn.Set(tagKey(tag.ID), data); err != nil {
		return nil, err
	}
	if err := txn.Set(tagSlugKey(tag.Slug), []byte(strconv.Itoa(tag.ID))); err != nil {
		return nil, err
	}
	return tag, nil
}

func loadPostTags(txn *badger.Txn, postID int) ([]*models.Tag, error) {
	var tags []*models.Tag
	for _, key := range keysWithPrefix(txn, taggedPrefix(postID)) {
		tagID, err := lastKeyInt(key)
		if err != nil {
			return nil, err
		}
		var tag models.Tag
		if err := getEntity(txn, tagKey(tagID), &tag); err != nil {
			return nil, err
		}
		tags = append(tags, &tag)
	}
	SortTags(tags)
	return tags, nil
}
