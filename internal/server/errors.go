package server

import (
	"errors"
	"net/http"

	"event-service/internal/domain"
)

// handleEventError maps a service error to a status code and response body.
// Anything unrecognised becomes a generic 500; causes stay in the logs.
func handleEventError(err error) (int, map[string]string) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, map[string]string{"error": "No token"}
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadRequest, map[string]string{"error": "Invalid token"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, map[string]string{"error": "Unauthorized"}
	case errors.Is(err, domain.ErrEventNotFound):
		return http.StatusNotFound, map[string]string{"message": "Event not found"}
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusBadRequest, map[string]string{"message": "Please fill in all fields"}
	default:
		return http.StatusInternalServerError, map[string]string{"message": "Server error"}
	}
}

func isInternal(err error) bool {
	status, _ := handleEventError(err)
	return status == http.StatusInternalServerError
}
