package domain

import "errors"

// Request outcome errors. The transport layer maps each one to a status code.
var (
	ErrUnauthenticated  = errors.New("no credential presented")
	ErrInvalidToken     = errors.New("invalid token")
	ErrForbidden        = errors.New("caller does not own the event")
	ErrEventNotFound    = errors.New("event not found")
	ErrValidationFailed = errors.New("missing or invalid event fields")
	ErrStoreUnavailable = errors.New("event store unavailable")
)
