package repositories

import (
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore wires the Badger repositories to one database.
type BadgerStore struct {
	db       *badger.DB
	posts    *BadgerPostRepository
	comments *BadgerCommentRepository
	tags     *BadgerTagRepository
}

// NewBadgerStore wraps an already opened database.
func NewBadgerStore(db *badger.DB, loc *time.Location) *BadgerStore {
	return &BadgerStore{
		db:       db,
		posts:    NewBadgerPostRepository(db, loc),
		comments: NewBadgerCommentRepository(db),
		tags:     NewBadgerTagRepository(db),
	}
}

// OpenBadgerStore opens (or creates) the database at path. An empty path
// opens an in-memory database.
func OpenBadgerStore(path string, loc *time.Location) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	} else if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return NewBadgerStore(db, loc), nil
}

func (s *BadgerStore) Posts() PostRepository       { return s.posts }
func (s *BadgerStore) Comments() CommentRepository { return s.comments }
func (s *BadgerStore) Tags() TagRepository         { return s.tags }

// DB exposes the underlying database for backup and restore.
func (s *BadgerStore) DB() *badger.DB { return s.db }

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
