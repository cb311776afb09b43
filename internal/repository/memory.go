package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"event-service/internal/domain"

	"github.com/google/uuid"
)

// memoryEventRepository keeps events in process memory. Every method holds
// the lock for its whole read-modify-write, so per-record operations are
// linearizable.
type memoryEventRepository struct {
	mu     sync.RWMutex
	events map[string]domain.Event
	now    func() time.Time
}

func NewMemoryEventRepository() *memoryEventRepository {
	return &memoryEventRepository{
		events: make(map[string]domain.Event),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *memoryEventRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *memoryEventRepository) List(ctx context.Context) ([]domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]domain.Event, 0, len(r.events))
	for _, e := range r.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

func (r *memoryEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return &e, nil
}

func (r *memoryEventRepository) Create(ctx context.Context, e *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now
	r.events[e.ID] = *e
	return nil
}

func (r *memoryEventRepository) Update(ctx context.Context, e *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.events[e.ID]
	if !ok || stored.CreatedBy != e.CreatedBy {
		return domain.ErrEventNotFound
	}

	e.CreatedAt = stored.CreatedAt
	e.UpdatedAt = r.now()
	r.events[e.ID] = *e
	return nil
}

func (r *memoryEventRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}
