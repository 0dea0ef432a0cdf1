package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentRepository(t *testing.T) {
	repo, err := NewContentRepository(filepath.Join(t.TempDir(), "nested", "content.db"))
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	t.Run("MissingKey", func(t *testing.T) {
		_, ok, err := repo.Get(ctx, "welcome")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("SetAndOverwrite", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "welcome", "Привет"))
		require.NoError(t, repo.Set(ctx, "welcome", "Здравствуйте"))

		value, ok, err := repo.Get(ctx, "welcome")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Здравствуйте", value)
	})

	t.Run("All", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "rules", "Тишина"))
		all, err := repo.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"welcome": "Здравствуйте", "rules": "Тишина"}, all)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "rules"))
		_, ok, err := repo.Get(ctx, "rules")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
}
