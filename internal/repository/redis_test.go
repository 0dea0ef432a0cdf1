package repository

import (
	"context"
	"testing"
	"time"

	"coworkingbot/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStateRepository(t *testing.T) {
	s := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisStateRepository(client, time.Hour)
	ctx := context.Background()
	id := models.ConversationID{ChatID: 55, UserID: 123}

	t.Run("SetAndGetState", func(t *testing.T) {
		state := models.ConfirmingBooking{Date: "02.01.2030", Slot: "10:00-12:00", Name: "Анна", Phone: "79991234567"}
		require.NoError(t, repo.SetState(ctx, id, state))

		got, err := repo.GetState(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, state, got)
		assert.True(t, s.Exists("session:55:123"))
		assert.Equal(t, time.Hour, s.TTL("session:55:123"))
	})

	t.Run("PendingActionSurvivesRoundTrip", func(t *testing.T) {
		action := models.NewPendingAction(models.PendingBanUser, map[string]any{"user_id": int64(777)})
		require.NoError(t, repo.SetState(ctx, id, models.ConfirmingAction{Action: action}))

		got, err := repo.GetState(ctx, id)
		require.NoError(t, err)
		ca, ok := got.(models.ConfirmingAction)
		require.True(t, ok)
		assert.Equal(t, models.PendingBanUser, ca.Action.Kind)
		assert.Equal(t, int64(777), ca.Action.GetInt64("user_id"))
	})

	t.Run("GetNonExistentState", func(t *testing.T) {
		got, err := repo.GetState(ctx, models.ConversationID{ChatID: 1, UserID: 999})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CorruptedState", func(t *testing.T) {
		require.NoError(t, s.Set("session:1:1", "{not json"))
		_, err := repo.GetState(ctx, models.ConversationID{ChatID: 1, UserID: 1})
		assert.Error(t, err)
	})

	t.Run("ClearState", func(t *testing.T) {
		require.NoError(t, repo.ClearState(ctx, id))

		got, _ := repo.GetState(ctx, id)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		userID := int64(789)
		limit := 2
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisStateRepository(nil, time.Hour)
		_, err := repo.GetState(ctx, id)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})
}
