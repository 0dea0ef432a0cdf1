package repository

import (
	"context"
	"sync"
	"time"

	"coworkingbot/internal/models"
)

// MemoryStateRepository keeps sessions in process memory. A restart drops
// in-flight flows; users simply start again from the menu.
type MemoryStateRepository struct {
	states     sync.Map
	rateLimits sync.Map
	ttl        time.Duration
	now        func() time.Time
}

type sessionEntry struct {
	state     models.State
	expiresAt time.Time
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		ttl: ttl,
		now: time.Now,
	}
}

func (r *MemoryStateRepository) GetState(ctx context.Context, id models.ConversationID) (models.State, error) {
	val, ok := r.states.Load(id)
	if !ok {
		return nil, nil
	}
	entry := val.(sessionEntry)
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		r.states.CompareAndDelete(id, val)
		return nil, nil
	}
	return entry.state, nil
}

func (r *MemoryStateRepository) SetState(ctx context.Context, id models.ConversationID, state models.State) error {
	r.states.Store(id, sessionEntry{state: state, expiresAt: r.now().Add(r.ttl)})
	return nil
}

func (r *MemoryStateRepository) ClearState(ctx context.Context, id models.ConversationID) error {
	r.states.Delete(id)
	return nil
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := r.now()
	val, _ := r.rateLimits.LoadOrStore(userID, &rateLimitEntry{expiresAt: now.Add(window)})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if now.After(entry.expiresAt) {
		entry.count = 0
		entry.expiresAt = now.Add(window)
	}
	entry.count++
	return entry.count <= limit, nil
}

// Sweep drops expired sessions. Call it periodically for long-running processes.
func (r *MemoryStateRepository) Sweep() int {
	now := r.now()
	removed := 0
	r.states.Range(func(key, val any) bool {
		if r.ttl > 0 && now.After(val.(sessionEntry).expiresAt) {
			r.states.Delete(key)
			removed++
		}
		return true
	})
	return removed
}
