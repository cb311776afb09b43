package server

import (
	"strconv"
	"time"

	"event-service/internal/auth"
	"event-service/internal/metrics"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// RequireAuth rejects requests without a valid credential before they reach a
// handler and stores the caller identity in the request context.
func RequireAuth(authenticator *auth.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			credential := auth.CredentialFromHeader(req.Header.Get(echo.HeaderAuthorization))

			identity, err := authenticator.Authenticate(credential)
			if err != nil {
				log.WithError(err).WithFields(log.Fields{
					"method": req.Method,
					"path":   req.URL.Path,
				}).Warn("Request rejected by authenticator")
				status, body := handleEventError(err)
				return c.JSON(status, body)
			}

			c.SetRequest(req.WithContext(auth.WithIdentity(req.Context(), identity)))
			return next(c)
		}
	}
}

func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()
			entry := log.WithFields(log.Fields{
				"request_id": res.Header().Get(echo.HeaderXRequestID),
				"method":     req.Method,
				"path":       req.URL.Path,
				"status":     res.Status,
				"size":       res.Size,
				"latency":    time.Since(start).String(),
				"remote_ip":  c.RealIP(),
			})
			if identity := auth.IdentityFromContext(req.Context()); identity != nil {
				entry = entry.WithField("subject", identity.Subject)
			}

			switch {
			case err != nil:
				entry.WithError(err).Error("Request failed")
			case res.Status >= 500:
				entry.Error("Server error")
			case res.Status >= 400:
				entry.Warn("Client error")
			default:
				entry.Info("Request completed")
			}

			return err
		}
	}
}

func PrometheusMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			method := c.Request().Method

			m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
