package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wb-go/wbf/dbpg"

	"github.com/torsdagskos/backend/internal/model"
)

var ErrEventNotFound = errors.New("event not found")

// Repository provides methods to interact with the events table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new event repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

const eventColumns = `
	id, title, description, date_time, location, map_link, created_at, updated_at
`

func scanEvent(row interface{ Scan(...interface{}) error }) (model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.DateTime,
		&e.Location, &e.MapLink, &e.CreatedAt, &e.UpdatedAt,
	)

	return e, err
}

// CreateEvent inserts a new event and returns its ID.
func (r *Repository) CreateEvent(ctx context.Context, e model.Event) (int64, error) {
	query := `
		INSERT INTO events (title, description, date_time, location, map_link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
    `

	var id int64
	err := r.db.QueryRowContext(
		ctx, query, e.Title, e.Description, e.DateTime, e.Location, e.MapLink,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create event: %w", err)
	}

	return id, nil
}

// UpdateEvent overwrites the user-visible fields of an event.
func (r *Repository) UpdateEvent(ctx context.Context, id int64, s model.EventSnapshot) error {
	query := `
		UPDATE events
		SET title = $1, description = $2, date_time = $3, location = $4, map_link = $5, updated_at = now()
		WHERE id = $6;
    `

	res, err := r.db.ExecContext(ctx, query, s.Title, s.Description, s.DateTime, s.Location, s.MapLink, id)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrEventNotFound
	}

	return nil
}

// GetEventByID retrieves a single event.
func (r *Repository) GetEventByID(ctx context.Context, id int64) (model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1;
    `

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrEventNotFound
		}

		return model.Event{}, fmt.Errorf("failed to get event: %w", err)
	}

	return e, nil
}

// GetUpcomingEvents retrieves all events at or after the given instant,
// soonest first. The caller narrows these to the reminder window by civil
// date key; the repository only applies the absolute cutoff.
func (r *Repository) GetUpcomingEvents(ctx context.Context, from time.Time) ([]model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE date_time >= $1
		ORDER BY date_time;
    `

	rows, err := r.db.QueryContext(ctx, query, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}

		events = append(events, e)
	}

	return events, rows.Err()
}
