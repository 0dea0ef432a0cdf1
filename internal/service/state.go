package service

import (
	"context"
	"time"

	"coworkingbot/internal/domain"
	"coworkingbot/internal/models"

	"github.com/rs/zerolog"
)

// StateService is the session store facade used by handlers.
type StateService struct {
	stateRepo domain.StateRepository
	logger    *zerolog.Logger
}

func NewStateService(stateRepo domain.StateRepository, logger *zerolog.Logger) *StateService {
	return &StateService{
		stateRepo: stateRepo,
		logger:    logger,
	}
}

func (s *StateService) Get(ctx context.Context, id models.ConversationID) (models.State, error) {
	state, err := s.stateRepo.GetState(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("chat_id", id.ChatID).Int64("user_id", id.UserID).Msg("failed to get session")
		return nil, err
	}
	return state, nil
}

func (s *StateService) Set(ctx context.Context, id models.ConversationID, state models.State) error {
	if err := s.stateRepo.SetState(ctx, id, state); err != nil {
		s.logger.Error().Err(err).Int64("chat_id", id.ChatID).Int64("user_id", id.UserID).
			Str("state", string(state.Kind())).Msg("failed to set session")
		return err
	}
	s.logger.Debug().Int64("user_id", id.UserID).Str("state", string(state.Kind())).Msg("session state changed")
	return nil
}

func (s *StateService) Clear(ctx context.Context, id models.ConversationID) error {
	if err := s.stateRepo.ClearState(ctx, id); err != nil {
		s.logger.Error().Err(err).Int64("chat_id", id.ChatID).Int64("user_id", id.UserID).Msg("failed to clear session")
		return err
	}
	return nil
}

func (s *StateService) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	return s.stateRepo.CheckRateLimit(ctx, userID, limit, window)
}
