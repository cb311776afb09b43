package service

import (
	"context"
	"errors"
	"fmt"

	"event-service/internal/auth"
	"event-service/internal/domain"

	log "github.com/sirupsen/logrus"
)

type EventRepository interface {
	List(ctx context.Context) ([]domain.Event, error)
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	Create(ctx context.Context, e *domain.Event) error
	Update(ctx context.Context, e *domain.Event) error
	Delete(ctx context.Context, id string) error
}

type ChangeRecorder interface {
	RecordCreated(ctx context.Context, e *domain.Event) error
	RecordUpdated(ctx context.Context, e *domain.Event, actor string, changes map[string]interface{}) error
	RecordDeleted(ctx context.Context, e *domain.Event, actor string) error
}

type EventService struct {
	repo       EventRepository
	authorizer *auth.Authorizer
	changes    ChangeRecorder
}

func NewEventService(repo EventRepository, authorizer *auth.Authorizer, changes ChangeRecorder) *EventService {
	if changes == nil {
		changes = NewChangeService(nil)
	}
	return &EventService{
		repo:       repo,
		authorizer: authorizer,
		changes:    changes,
	}
}

func storeError(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

func (s *EventService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	s.authorizer.Authorize(auth.OpRead, nil, nil)

	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return events, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	if id == "" {
		return nil, domain.ErrEventNotFound
	}

	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil, err
		}
		return nil, storeError(err)
	}

	s.authorizer.Authorize(auth.OpRead, nil, event)
	return event, nil
}

// CreateEvent saves a new event owned by identity. Ownership comes only from
// identity, never from req.
func (s *EventService) CreateEvent(ctx context.Context, identity *domain.Identity, req domain.CreateEventRequest) (*domain.Event, error) {
	if err := s.authorizer.Authorize(auth.OpCreate, identity, nil).Err(); err != nil {
		return nil, err
	}

	owner, err := auth.OwnerFor(identity)
	if err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	event, err := domain.NewEvent(req, owner)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, event); err != nil {
		log.WithError(err).WithField("created_by", owner).Error("Failed to create event")
		return nil, storeError(err)
	}

	log.WithFields(log.Fields{
		"event_id":   event.ID,
		"created_by": owner,
	}).Info("Event successfully created")

	s.recordChange(event.ID, s.changes.RecordCreated(ctx, event))
	return event, nil
}

// UpdateEvent applies a partial update to the event id on behalf of identity.
func (s *EventService) UpdateEvent(ctx context.Context, identity *domain.Identity, id string, req domain.UpdateEventRequest) (*domain.Event, error) {
	event, err := s.findForMutation(ctx, auth.OpUpdate, identity, id)
	if err != nil {
		return nil, err
	}

	changed, err := event.ApplyUpdate(req)
	if err != nil {
		return nil, err
	}
	if !changed {
		return event, nil
	}

	if err := s.repo.Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			// deleted between lookup and write
			return nil, err
		}
		log.WithError(err).WithField("event_id", id).Error("Failed to update event")
		return nil, storeError(err)
	}

	log.WithField("event_id", id).Info("Event successfully updated")

	s.recordChange(id, s.changes.RecordUpdated(ctx, event, identity.Subject, req.Changes()))
	return event, nil
}

// DeleteEvent removes the event id on behalf of identity.
func (s *EventService) DeleteEvent(ctx context.Context, identity *domain.Identity, id string) error {
	event, err := s.findForMutation(ctx, auth.OpDelete, identity, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return err
		}
		log.WithError(err).WithField("event_id", id).Error("Failed to delete event")
		return storeError(err)
	}

	log.WithField("event_id", id).Info("Event successfully deleted")

	s.recordChange(id, s.changes.RecordDeleted(ctx, event, identity.Subject))
	return nil
}

// findForMutation loads the target of an update or delete and runs the
// ownership check on it. Without an identity the store is never consulted.
func (s *EventService) findForMutation(ctx context.Context, op auth.Operation, identity *domain.Identity, id string) (*domain.Event, error) {
	if identity == nil {
		return nil, s.authorizer.Authorize(op, nil, nil).Err()
	}

	var target *domain.Event
	if id != "" {
		event, err := s.repo.GetByID(ctx, id)
		switch {
		case err == nil:
			target = event
		case errors.Is(err, domain.ErrEventNotFound):
		default:
			log.WithError(err).WithField("event_id", id).Error("Failed to load event")
			return nil, storeError(err)
		}
	}

	decision := s.authorizer.Authorize(op, identity, target)
	if err := decision.Err(); err != nil {
		log.WithFields(log.Fields{
			"event_id":  id,
			"subject":   identity.Subject,
			"operation": op.String(),
			"decision":  decision.String(),
		}).Warn("Event mutation denied")
		return nil, err
	}

	return target, nil
}

func (s *EventService) recordChange(eventID string, err error) {
	if err != nil {
		log.WithError(err).WithField("event_id", eventID).Warn("Failed to publish event change")
	}
}
