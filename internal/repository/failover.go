package repository

import (
	"context"
	"sync/atomic"
	"time"

	"coworkingbot/internal/domain"
	"coworkingbot/internal/models"

	"github.com/rs/zerolog"
)

const failoverRetryInterval = time.Minute

// FailoverStateRepository serves sessions from primary (redis) and switches to
// fallback (memory) while primary is failing. Primary is re-probed once a minute.
type FailoverStateRepository struct {
	primary  domain.StateRepository
	fallback domain.StateRepository
	logger   *zerolog.Logger
	now      func() time.Time

	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// tryPrimary reports whether the next call should go to primary.
func (r *FailoverStateRepository) tryPrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	last := time.Unix(0, r.lastCheck.Load())
	return r.now().Sub(last) > failoverRetryInterval
}

func (r *FailoverStateRepository) observe(op string, err error) {
	if err == nil {
		if r.isDown.CompareAndSwap(true, false) {
			r.logger.Info().Str("op", op).Msg("primary session store recovered")
		}
		return
	}
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Str("op", op).Msg("primary session store failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

// Healthy reports whether primary is currently in use.
func (r *FailoverStateRepository) Healthy() bool {
	return !r.isDown.Load()
}

func (r *FailoverStateRepository) GetState(ctx context.Context, id models.ConversationID) (models.State, error) {
	if r.tryPrimary() {
		state, err := r.primary.GetState(ctx, id)
		r.observe("get", err)
		if err == nil {
			return state, nil
		}
	}
	return r.fallback.GetState(ctx, id)
}

func (r *FailoverStateRepository) SetState(ctx context.Context, id models.ConversationID, state models.State) error {
	if r.tryPrimary() {
		err := r.primary.SetState(ctx, id, state)
		r.observe("set", err)
		if err == nil {
			return nil
		}
	}
	return r.fallback.SetState(ctx, id, state)
}

func (r *FailoverStateRepository) ClearState(ctx context.Context, id models.ConversationID) error {
	// Clear both so a stale fallback copy cannot resurface after recovery.
	fallbackErr := r.fallback.ClearState(ctx, id)
	if r.tryPrimary() {
		err := r.primary.ClearState(ctx, id)
		r.observe("clear", err)
		if err == nil {
			return nil
		}
	}
	return fallbackErr
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.tryPrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		r.observe("rate_limit", err)
		if err == nil {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
