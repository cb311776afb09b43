package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"event-service/internal/domain"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	_ "github.com/lib/pq"
)

const queryTimeout = 5 * time.Second

const eventColumns = `id, title, date, time, location, description, category, created_by, created_at, updated_at`

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) *postgresEventRepository {
	return &postgresEventRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Date,
		&e.Time,
		&e.Location,
		&e.Description,
		&e.Category,
		&e.CreatedBy,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Date = e.Date.UTC()
	return &e, nil
}

func (r *postgresEventRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *postgresEventRepository) List(ctx context.Context) ([]domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		log.WithError(err).Error("Failed to list events")
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan event row")
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over event rows: %w", err)
	}

	return events, nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	// ids are UUIDs; anything else cannot exist
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrEventNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		log.WithError(err).WithField("event_id", id).Error("Failed to get event by ID")
		return nil, fmt.Errorf("failed to get event by ID: %w", err)
	}

	return e, nil
}

// Create inserts e and fills in the id and timestamps assigned by the database.
func (r *postgresEventRepository) Create(ctx context.Context, e *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO events (title, date, time, location, description, category, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		e.Title,
		e.Date,
		e.Time,
		e.Location,
		e.Description,
		e.Category,
		e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		log.WithError(err).WithField("created_by", e.CreatedBy).Error("Failed to create event")
		return fmt.Errorf("failed to create event: %w", err)
	}

	log.WithFields(log.Fields{
		"event_id":   e.ID,
		"created_by": e.CreatedBy,
	}).Info("Event created in database")
	return nil
}

// Update writes the mutable fields of e. The row must still exist and still
// belong to e.CreatedBy; otherwise ErrEventNotFound is returned and nothing
// is written, so an update that loses a race with a delete never re-creates
// the record.
func (r *postgresEventRepository) Update(ctx context.Context, e *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		UPDATE events SET
			title = $1,
			date = $2,
			time = $3,
			location = $4,
			description = $5,
			category = $6,
			updated_at = NOW()
		WHERE id = $7 AND created_by = $8
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		e.Title,
		e.Date,
		e.Time,
		e.Location,
		e.Description,
		e.Category,
		e.ID,
		e.CreatedBy,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrEventNotFound
	}
	if err != nil {
		log.WithError(err).WithField("event_id", e.ID).Error("Failed to update event")
		return fmt.Errorf("failed to update event: %w", err)
	}

	return nil
}

func (r *postgresEventRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrEventNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		log.WithError(err).WithField("event_id", id).Error("Failed to delete event")
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not determine rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrEventNotFound
	}

	log.WithField("event_id", id).Info("Event deleted from database")
	return nil
}
