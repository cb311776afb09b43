package service

import (
	"context"
	"time"

	"event-service/internal/domain"
)

const serviceName = "event-service"

type ChangePublisher interface {
	Publish(ctx context.Context, change domain.EventChange) error
}

// ChangeService turns successful mutations into EventChange messages.
// A nil publisher makes every method a no-op.
type ChangeService struct {
	publisher ChangePublisher
}

func NewChangeService(publisher ChangePublisher) *ChangeService {
	return &ChangeService{publisher: publisher}
}

func (s *ChangeService) RecordCreated(ctx context.Context, e *domain.Event) error {
	if s == nil || s.publisher == nil || e == nil {
		return nil
	}

	return s.publisher.Publish(ctx, domain.EventChange{
		Service:    serviceName,
		ChangeType: domain.ChangeEventCreated,
		EventID:    e.ID,
		Actor:      e.CreatedBy,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]interface{}{
			"title":       e.Title,
			"date":        e.Date,
			"time":        e.Time,
			"location":    e.Location,
			"description": e.Description,
			"category":    e.Category,
		},
	})
}

func (s *ChangeService) RecordUpdated(ctx context.Context, e *domain.Event, actor string, changes map[string]interface{}) error {
	if s == nil || s.publisher == nil || e == nil || len(changes) == 0 {
		return nil
	}

	return s.publisher.Publish(ctx, domain.EventChange{
		Service:    serviceName,
		ChangeType: domain.ChangeEventUpdated,
		EventID:    e.ID,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
		Payload: map[string]interface{}{
			"changes": changes,
		},
	})
}

func (s *ChangeService) RecordDeleted(ctx context.Context, e *domain.Event, actor string) error {
	if s == nil || s.publisher == nil || e == nil {
		return nil
	}

	return s.publisher.Publish(ctx, domain.EventChange{
		Service:    serviceName,
		ChangeType: domain.ChangeEventDeleted,
		EventID:    e.ID,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	})
}
