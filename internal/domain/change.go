package domain

import "time"

const (
	ChangeEventCreated = "event_created"
	ChangeEventUpdated = "event_updated"
	ChangeEventDeleted = "event_deleted"
)

// EventChange is published after a successful mutation.
type EventChange struct {
	Service    string                 `json:"service"`
	ChangeType string                 `json:"change_type"`
	EventID    string                 `json:"event_id"`
	Actor      string                 `json:"actor,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}
