package domain

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateEventRequest carries no owner field: createdBy always comes from the
// authenticated caller, so a createdBy key in the payload is dropped on decode.
type CreateEventRequest struct {
	Title       string `json:"title" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
}

// UpdateEventRequest is a partial patch. Empty fields mean "no change".
type UpdateEventRequest struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ParseEventDate accepts a calendar date (2006-01-02) or a full RFC 3339 timestamp.
func ParseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(dateLayout, s); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrValidationFailed
	}
	return d.UTC(), nil
}

// NewEvent builds an unsaved event owned by owner.
func NewEvent(req CreateEventRequest, owner string) (*Event, error) {
	date, err := ParseEventDate(req.Date)
	if err != nil {
		return nil, err
	}

	return &Event{
		Title:       req.Title,
		Date:        date,
		Time:        req.Time,
		Location:    req.Location,
		Description: req.Description,
		Category:    req.Category,
		CreatedBy:   owner,
	}, nil
}

// ApplyUpdate merges req into e. ID and CreatedBy are never touched.
// It reports whether any stored field changed.
func (e *Event) ApplyUpdate(req UpdateEventRequest) (bool, error) {
	changed := false

	if req.Date != "" {
		date, err := ParseEventDate(req.Date)
		if err != nil {
			return false, err
		}
		if !date.Equal(e.Date) {
			e.Date = date
			changed = true
		}
	}

	for _, f := range []struct {
		dst *string
		src string
	}{
		{&e.Title, req.Title},
		{&e.Time, req.Time},
		{&e.Location, req.Location},
		{&e.Description, req.Description},
		{&e.Category, req.Category},
	} {
		if f.src != "" && f.src != *f.dst {
			*f.dst = f.src
			changed = true
		}
	}

	return changed, nil
}

// Changes lists the fields of req that would be applied, for change messages.
func (req UpdateEventRequest) Changes() map[string]interface{} {
	changes := map[string]interface{}{}
	if req.Title != "" {
		changes["title"] = req.Title
	}
	if req.Date != "" {
		changes["date"] = req.Date
	}
	if req.Time != "" {
		changes["time"] = req.Time
	}
	if req.Location != "" {
		changes["location"] = req.Location
	}
	if req.Description != "" {
		changes["description"] = req.Description
	}
	if req.Category != "" {
		changes["category"] = req.Category
	}
	return changes
}

// Validate reports ErrValidationFailed when any required field is blank.
func (req CreateEventRequest) Validate() error {
	for _, v := range []string{req.Title, req.Date, req.Time, req.Location, req.Description, req.Category} {
		if strings.TrimSpace(v) == "" {
			return ErrValidationFailed
		}
	}
	return nil
}
