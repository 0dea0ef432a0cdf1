package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"coworkingbot/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetState(ctx context.Context, id models.ConversationID) (models.State, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.State), args.Error(1)
}

func (m *mockRepo) SetState(ctx context.Context, id models.ConversationID, state models.State) error {
	args := m.Called(ctx, id, state)
	return args.Error(0)
}

func (m *mockRepo) ClearState(ctx context.Context, id models.ConversationID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepo) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

func conv(user int64) models.ConversationID {
	return models.ConversationID{ChatID: user, UserID: user}
}

func TestFailoverStateRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := new(mockRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverStateRepository(primary, fallback, &logger)
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		state := models.ChoosingDate{}
		primary.On("GetState", ctx, conv(1)).Return(state, nil).Once()

		got, err := repo.GetState(ctx, conv(1))
		assert.NoError(t, err)
		assert.Equal(t, state, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		state := models.ChoosingTime{Date: "02.01.2030"}
		primary.On("GetState", ctx, conv(2)).Return(nil, errors.New("fail")).Once()
		fallback.On("GetState", ctx, conv(2)).Return(state, nil).Once()

		got, err := repo.GetState(ctx, conv(2))
		assert.NoError(t, err)
		assert.Equal(t, state, got)
		assert.False(t, repo.Healthy())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("StaysOnFallbackWithinInterval", func(t *testing.T) {
		now = now.Add(10 * time.Second)
		fallback.On("SetState", ctx, conv(4), models.ChoosingDate{}).Return(nil).Once()

		assert.NoError(t, repo.SetState(ctx, conv(4), models.ChoosingDate{}))
		primary.AssertNotCalled(t, "SetState", ctx, conv(4), models.ChoosingDate{})
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		primary.On("GetState", ctx, conv(33)).Return(nil, errors.New("still fail")).Once()
		fallback.On("GetState", ctx, conv(33)).Return(nil, nil).Once()

		_, err := repo.GetState(ctx, conv(33))
		assert.NoError(t, err)
		assert.False(t, repo.Healthy())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		state := models.ChoosingDate{}
		primary.On("GetState", ctx, conv(3)).Return(state, nil).Once()

		got, err := repo.GetState(ctx, conv(3))
		assert.NoError(t, err)
		assert.Equal(t, state, got)
		assert.True(t, repo.Healthy())
		primary.AssertExpectations(t)
	})

	t.Run("ClearHitsBoth", func(t *testing.T) {
		fallback.On("ClearState", ctx, conv(5)).Return(nil).Once()
		primary.On("ClearState", ctx, conv(5)).Return(nil).Once()

		assert.NoError(t, repo.ClearState(ctx, conv(5)))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("CheckRateLimitFailover", func(t *testing.T) {
		primary.On("CheckRateLimit", ctx, int64(6), 10, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, int64(6), 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, 6, 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, repo.Healthy())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
