package repositories

import (
	"context"
	"fmt"

	"blog/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB
type BadgerCommentRepository struct {
	db *badger.DB
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db}
}

// Create creates a new comment. The parent post must exist.
func (r *BadgerCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(postKey(comment.PostID)); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}

		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		comment.ID = id

		data, err := marshalEntity(comment)
		if err != nil {
			return err
		}

		// Post ID in the key keeps a post's comments together for listing
		// and cascade deletes.
		return txn.Set(commentKey(comment.PostID, comment.ID), data)
	})
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	var comment *models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		comment, _, err = findComment(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListByPost retrieves the comments of a post, oldest first
func (r *BadgerCommentRepository) ListByPost(ctx context.Context, postID int, activeOnly bool) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := commentPrefix(postID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var comment models.Comment
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal comment: %w", err)
			}
			if activeOnly && !comment.Active {
				continue
			}
			comments = append(comments, &comment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortComments(comments)
	return comments, nil
}

// Update updates an existing comment. A comment never moves between posts.
func (r *BadgerCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return r.db.Update(func(txn *badger.Txn) error {
		existing, key, err := findComment(txn, comment.ID)
		if err != nil {
			return err
		}
		comment.PostID = existing.PostID

		data, err := marshalEntity(comment)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// Delete deletes a comment by ID
func (r *BadgerCommentRepository) Delete(ctx context.Context, id int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		_, key, err := findComment(txn, id)
		if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// findComment scans for a comment by ID since keys are grouped by post.
func findComment(txn *badger.Txn, id int) (*models.Comment, []byte, error) {
	prefix := []byte(CommentKeyPrefix)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		keyID, err := lastKeyInt(item.Key())
		if err != nil || keyID != id {
			continue
		}
		var comment models.Comment
		if err := item.Value(func(val []byte) error {
			return unmarshalEntity(val, &comment)
		}); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal comment: %w", err)
		}
		return &comment, item.KeyCopy(nil), nil
	}
	return nil, nil, ErrNotFound
}
