package rsvp

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/dbpg"

	"github.com/torsdagskos/backend/internal/model"
)

// Repository provides methods to interact with the rsvps table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new RSVP repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// UpsertRSVP records a member's answer for an event, overwriting any previous
// answer. Uniqueness of (member_id, event_id) is enforced by the table.
func (r *Repository) UpsertRSVP(ctx context.Context, memberID, eventID int64, status string) error {
	query := `
		INSERT INTO rsvps (member_id, event_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (member_id, event_id) DO UPDATE
		SET status = EXCLUDED.status, updated_at = now();
    `

	if _, err := r.db.ExecContext(ctx, query, memberID, eventID, status); err != nil {
		return fmt.Errorf("failed to upsert rsvp: %w", err)
	}

	return nil
}

// GetEventRSVPs retrieves all answers for one event.
func (r *Repository) GetEventRSVPs(ctx context.Context, eventID int64) ([]model.RSVP, error) {
	query := `
		SELECT id, member_id, event_id, status, created_at, updated_at
		FROM rsvps
		WHERE event_id = $1
		ORDER BY updated_at DESC;
    `

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rsvps: %w", err)
	}
	defer rows.Close()

	var rsvps []model.RSVP
	for rows.Next() {
		var rv model.RSVP
		if err := rows.Scan(&rv.ID, &rv.MemberID, &rv.EventID, &rv.Status, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return nil, err
		}

		rsvps = append(rsvps, rv)
	}

	return rsvps, rows.Err()
}
