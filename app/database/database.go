// Package database manages the on-disk Badger database: creating,
// removing, backing up and restoring it.
package database

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
)

var (
	ErrExists    = errors.New("database already exists")
	ErrNotExists = errors.New("database does not exist")
)

// Exists reports whether a database directory is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func open(path string) (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions(path).WithLogger(nil))
}

// Init creates a new empty database at path.
func Init(path string) error {
	if Exists(path) {
		return fmt.Errorf("%s: %w", path, ErrExists)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := open(path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return db.Close()
}

// Clean removes the database at path.
func Clean(path string) error {
	if !Exists(path) {
		return fmt.Errorf("%s: %w", path, ErrNotExists)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to clean database: %w", err)
	}
	return nil
}

// Backup writes a full backup of the database at path to w.
func Backup(path string, w io.Writer) error {
	if !Exists(path) {
		return fmt.Errorf("%s: %w", path, ErrNotExists)
	}
	db, err := open(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Backup(w, 0); err != nil {
		return fmt.Errorf("failed to backup database: %w", err)
	}
	return nil
}

// BackupToDir writes a timestamped backup file into dir and returns its
// path.
func BackupToDir(path, dir string) (string, error) {
	if !Exists(path) {
		return "", fmt.Errorf("%s: %w", path, ErrNotExists)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	file := filepath.Join(dir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
	f, err := os.Create(file)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	if err := Backup(path, f); err != nil {
		os.Remove(file)
		return "", err
	}
	return file, f.Close()
}

// Restore replaces the database at path with the contents of a backup.
// Any existing database is removed first.
func Restore(path string, r io.Reader) error {
	if Exists(path) {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove existing database: %w", err)
		}
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := open(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Load(r, 4); err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}
	return nil
}
