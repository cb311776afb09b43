package server

import (
	"context"
	"net/http"

	"event-service/internal/auth"
	"event-service/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type EventService interface {
	ListEvents(ctx context.Context) ([]domain.Event, error)
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	CreateEvent(ctx context.Context, identity *domain.Identity, req domain.CreateEventRequest) (*domain.Event, error)
	UpdateEvent(ctx context.Context, identity *domain.Identity, id string, req domain.UpdateEventRequest) (*domain.Event, error)
	DeleteEvent(ctx context.Context, identity *domain.Identity, id string) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	eventService EventService
	store        Pinger
}

func NewServer(eventService EventService, store Pinger) *Server {
	return &Server{
		eventService: eventService,
		store:        store,
	}
}

func (s *Server) HealthCheck(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		log.WithError(err).Error("Health check failed: event store is down")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "event store connection error",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) ListEvents(c echo.Context) error {
	events, err := s.eventService.ListEvents(c.Request().Context())
	if err != nil {
		log.WithError(err).Error("Failed to list events")
		status, body := handleEventError(err)
		return c.JSON(status, body)
	}

	if events == nil {
		events = []domain.Event{}
	}
	return c.JSON(http.StatusOK, events)
}

func (s *Server) GetEvent(c echo.Context) error {
	id := c.Param("id")

	event, err := s.eventService.GetEvent(c.Request().Context(), id)
	if err != nil {
		logFailure(err, id, "Failed to get event")
		status, body := handleEventError(err)
		return c.JSON(status, body)
	}

	return c.JSON(http.StatusOK, event)
}

func (s *Server) CreateEvent(c echo.Context) error {
	var req domain.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		status, body := handleEventError(domain.ErrValidationFailed)
		return c.JSON(status, body)
	}
	if err := c.Validate(&req); err != nil {
		status, body := handleEventError(err)
		return c.JSON(status, body)
	}

	identity := auth.IdentityFromContext(c.Request().Context())
	event, err := s.eventService.CreateEvent(c.Request().Context(), identity, req)
	if err != nil {
		logFailure(err, "", "Failed to create event")
		status, body := handleEventError(err)
		return c.JSON(status, body)
	}

	return c.JSON(http.StatusCreated, event)
}

func (s *Server) UpdateEvent(c echo.Context) error {
	id := c.Param("id")

	var req domain.UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		status, body := handleEventError(domain.ErrValidationFailed)
		return c.JSON(status, body)
	}

	identity := auth.IdentityFromContext(c.Request().Context())
	event, err := s.eventService.UpdateEvent(c.Request().Context(), identity, id, req)
	if err != nil {
		logFailure(err, id, "Failed to update event")
		status, body := handleEventError(err)
		return c.JSON(status, body)
	}

	return c.JSON(http.StatusOK, event)
}

func (s *Server) DeleteEvent(c echo.Context) error {
	id := c.Param("id")

	identity := auth.IdentityFromContext(c.Request().Context())
	if err := s.eventService.DeleteEvent(c.Request().Context(), identity, id); err != nil {
		logFailure(err, id, "Failed to delete event")
		status, body := handleEventError(err)
		return c.JSON(status, body)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Event removed",
	})
}

// logFailure logs store and other unexpected failures at error level with the
// full cause. Expected client outcomes are left to the request logger.
func logFailure(err error, id, msg string) {
	if !isInternal(err) {
		return
	}
	entry := log.WithError(err)
	if id != "" {
		entry = entry.WithField("event_id", id)
	}
	entry.Error(msg)
}
