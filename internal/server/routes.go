package server

import (
	"event-service/internal/auth"
	"event-service/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewRouter builds the echo instance serving the event API. m may be nil.
func NewRouter(srv *Server, authenticator *auth.Authenticator, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(RequestLogger())
	if m != nil {
		e.Use(PrometheusMiddleware(m))
	}

	e.GET("/health", srv.HealthCheck)

	events := e.Group("/api/events")
	events.GET("", srv.ListEvents)
	events.GET("/:id", srv.GetEvent)

	requireAuth := RequireAuth(authenticator)
	events.POST("", srv.CreateEvent, requireAuth)
	events.PUT("/:id", srv.UpdateEvent, requireAuth)
	events.DELETE("/:id", srv.DeleteEvent, requireAuth)

	return e
}
