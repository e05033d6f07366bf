package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blog/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns its output. Flag
// globals are reset first since rootCmd is shared between tests.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cfgFile = ""
	logLevel = ""
	assumeYes = false
	backupDir = "data/backups"
	versionFormat = "text"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	_, err := rootCmd.ExecuteC()
	return out.String(), err
}

// workspace moves the test into an empty directory with a badger store
// configured under it.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(config.ConfigFileEnv, "")
	t.Setenv("BLOG_STORAGE_DRIVER", "badger")
	t.Setenv("BLOG_STORAGE_PATH", filepath.Join(dir, "db"))
	t.Setenv("BLOG_SEARCH_PATH", "")
	t.Setenv("BLOG_LOG_LEVEL", "error")
	return dir
}

func fixturePath(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "app", "fixtures", "testdata", "blog.yaml"))
	require.NoError(t, err)
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "blog version dev\n", out)

	out, err = execute(t, "", "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info["version"])
	assert.NotEmpty(t, info["go_version"])

	_, err = execute(t, "", "version", "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestDBInitAndClean(t *testing.T) {
	dir := workspace(t)
	dbPath := filepath.Join(dir, "db")

	out, err := execute(t, "", "db", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Database initialized successfully")
	assert.DirExists(t, dbPath)

	out, err = execute(t, "", "db", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Database already exists")

	out, err = execute(t, "n\n", "db", "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "Operation cancelled")
	assert.DirExists(t, dbPath)

	out, err = execute(t, "y\n", "db", "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "Database cleaned successfully")
	assert.NoDirExists(t, dbPath)

	out, err = execute(t, "", "db", "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "already clean")
}

func TestLoadBackupRestore(t *testing.T) {
	fixtures := fixturePath(t)
	dir := workspace(t)

	out, err := execute(t, "", "load", fixtures)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 3 posts and 2 comments")

	out, err = execute(t, "", "db", "backup", "--dir", filepath.Join(dir, "backups"))
	require.NoError(t, err)
	require.Contains(t, out, "Database backed up successfully to ")
	backup := strings.TrimSpace(strings.TrimPrefix(out, "Database backed up successfully to "))
	assert.FileExists(t, backup)

	_, err = execute(t, "", "db", "clean", "--yes")
	require.NoError(t, err)

	out, err = execute(t, "", "db", "restore", backup)
	require.NoError(t, err)
	assert.Contains(t, out, "Database restored successfully")

	out, err = execute(t, "", "reindex")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2 published posts")
}

func TestDBBackupWithoutDatabase(t *testing.T) {
	dir := workspace(t)

	out, err := execute(t, "", "db", "backup", "--dir", filepath.Join(dir, "backups"))
	require.NoError(t, err)
	assert.Contains(t, out, "No database exists to backup")
}

func TestDBRestoreMissingFile(t *testing.T) {
	workspace(t)

	_, err := execute(t, "", "db", "restore", "nope.db")
	assert.ErrorContains(t, err, "failed to open backup file")
}

func TestDBCommandsRequireBadger(t *testing.T) {
	workspace(t)
	t.Setenv("BLOG_STORAGE_DRIVER", "postgres")
	t.Setenv("BLOG_STORAGE_DSN", "postgres://localhost/blog")

	_, err := execute(t, "", "db", "backup")
	assert.ErrorContains(t, err, "only supported for the badger driver")
}

func TestConfigFlag(t *testing.T) {
	dir := workspace(t)
	cfg := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("storage:\n  path: "+filepath.Join(dir, "other")+"\n"), 0o644))
	t.Setenv("BLOG_STORAGE_PATH", "")

	out, err := execute(t, "", "--config", cfg, "db", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Using config file: "+cfg)
	assert.DirExists(t, filepath.Join(dir, "other"))

	_, err = execute(t, "", "--config", filepath.Join(dir, "missing.yaml"), "db", "init")
	assert.ErrorContains(t, err, "failed to read config")
}

func TestDBCleanRemovesSearchIndex(t *testing.T) {
	fixtures := fixturePath(t)
	dir := workspace(t)
	index := filepath.Join(dir, "index")
	t.Setenv("BLOG_SEARCH_PATH", index)

	_, err := execute(t, "", "load", fixtures)
	require.NoError(t, err)
	assert.DirExists(t, index)

	out, err := execute(t, "", "reindex")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2 published posts")

	_, err = execute(t, "", "db", "clean", "--yes")
	require.NoError(t, err)
	assert.NoDirExists(t, index)
}
