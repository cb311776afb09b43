package auth

import (
	"event-service/internal/domain"
)

type Operation int

const (
	OpRead Operation = iota
	OpCreate
	OpUpdate
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Decision is the outcome of an ownership check.
type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
	DenyNotFound
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "deny_unauthenticated"
	case DenyForbidden:
		return "deny_forbidden"
	case DenyNotFound:
		return "deny_not_found"
	default:
		return "unknown"
	}
}

// Err returns the domain error for a deny decision, or nil for Allow.
func (d Decision) Err() error {
	switch d {
	case Allow:
		return nil
	case DenyUnauthenticated:
		return domain.ErrUnauthenticated
	case DenyNotFound:
		return domain.ErrEventNotFound
	default:
		return domain.ErrForbidden
	}
}

// DecisionObserver is notified of every decision. Used for metrics.
type DecisionObserver interface {
	ObserveDecision(op Operation, d Decision)
}

// Authorizer decides whether an identity may act on an event. The only rule
// is ownership: the creator of an event is the one caller allowed to change it.
type Authorizer struct {
	observer DecisionObserver
}

func NewAuthorizer(observer DecisionObserver) *Authorizer {
	return &Authorizer{observer: observer}
}

// Authorize evaluates op for identity against target. target is the stored
// event for update and delete (nil when the id does not exist) and is ignored
// for read and create.
//
// For update and delete the checks run in a fixed order: identity, existence,
// ownership. A caller probing a missing id therefore always sees DenyNotFound.
func (a *Authorizer) Authorize(op Operation, identity *domain.Identity, target *domain.Event) Decision {
	d := decide(op, identity, target)
	if a != nil && a.observer != nil {
		a.observer.ObserveDecision(op, d)
	}
	return d
}

func decide(op Operation, identity *domain.Identity, target *domain.Event) Decision {
	switch op {
	case OpRead:
		// reads are public
		return Allow
	case OpCreate:
		if identity == nil {
			return DenyUnauthenticated
		}
		return Allow
	case OpUpdate, OpDelete:
		if identity == nil {
			return DenyUnauthenticated
		}
		if target == nil {
			return DenyNotFound
		}
		if !identity.Owns(target) {
			return DenyForbidden
		}
		return Allow
	default:
		return DenyForbidden
	}
}

// OwnerFor returns the createdBy value to stamp on a new event.
func OwnerFor(identity *domain.Identity) (string, error) {
	if identity == nil {
		return "", domain.ErrUnauthenticated
	}
	owner := domain.CanonicalSubject(identity.Subject)
	if owner == "" {
		return "", domain.ErrUnauthenticated
	}
	return owner, nil
}
