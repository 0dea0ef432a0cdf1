package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentBackup(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewContentRepository(filepath.Join(dir, "content.db"))
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, "rules", "Тишина"))

	path, err := repo.Backup(ctx, filepath.Join(dir, "backups"), time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "content_20260310_120000.db", filepath.Base(path))

	restored, err := NewContentRepository(path)
	require.NoError(t, err)
	defer restored.Close()
	value, ok, err := restored.Get(ctx, "rules")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Тишина", value)
}

func TestPruneBackups(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	old := filepath.Join(dir, "content_old.db")
	fresh := filepath.Join(dir, "content_fresh.db")
	foreign := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, fresh, foreign} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	past := now.Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(foreign, past, past))

	n, err := PruneBackups(dir, 48*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, foreign)
}
