package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"coworkingbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNextRun(t *testing.T) {
	loc := time.UTC

	t.Run("later today", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 12, 0, 0, 0, loc)
		assert.Equal(t, time.Date(2026, 3, 10, 20, 0, 0, 0, loc), nextRun(now, 20, 0, loc))
	})

	t.Run("already passed rolls to tomorrow", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 21, 0, 0, 0, loc)
		assert.Equal(t, time.Date(2026, 3, 11, 20, 0, 0, 0, loc), nextRun(now, 20, 0, loc))
	})

	t.Run("exact moment is not reused", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 20, 0, 0, 0, loc)
		assert.Equal(t, time.Date(2026, 3, 11, 20, 0, 0, 0, loc), nextRun(now, 20, 0, loc))
	})
}

func TestSendDigest(t *testing.T) {
	t.Run("alerts tomorrow's bookings", func(t *testing.T) {
		env := newTestEnv(t)
		env.backend.On("BusySlots", mock.Anything, "11.03.2026").Return([]models.Booking{
			{ID: "ID_1", Time: "10:00-12:00", Name: "Anna"},
		}, nil)

		env.bot.sendDigest(context.Background())

		require.Len(t, env.notifier.alerts, 1)
		assert.Contains(t, env.notifier.alerts[0], "11.03.2026")
		assert.Contains(t, env.notifier.alerts[0], "Anna")
	})

	t.Run("backend failure goes to error report", func(t *testing.T) {
		env := newTestEnv(t)
		env.backend.On("BusySlots", mock.Anything, "11.03.2026").Return(nil, errors.New("down"))

		env.bot.sendDigest(context.Background())

		assert.Empty(t, env.notifier.alerts)
		require.Len(t, env.notifier.errors, 1)
	})
}

func TestStartDigestDisabled(t *testing.T) {
	env := newTestEnv(t)
	// Empty and malformed times return without scheduling.
	env.bot.StartDigest(context.Background())
	env.bot.config.Bot.DigestTime = "25:99"
	env.bot.StartDigest(context.Background())
	assert.Empty(t, env.notifier.alerts)
}

func TestTestNotify(t *testing.T) {
	env := newTestEnv(t)

	env.sendCommand(testAdminID, "/test_notify", 12)

	assert.Len(t, env.notifier.alerts, len(testNotifications))
	assert.Equal(t, "✅ Тестовые уведомления отправлены!", env.tg.last().text)
}
