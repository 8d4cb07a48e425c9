// Package notiflog persists the notification dedup ledger: one immutable row
// per successfully delivered (member, event, type, channel) tuple.
package notiflog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/wb-go/wbf/dbpg"
)

// ErrDuplicateEntry is returned when a tuple is recorded twice. The unique
// index makes the loser of a concurrent duplicate race observable, which
// callers may treat as an already-sent signal rather than a failure.
var ErrDuplicateEntry = errors.New("notification already recorded")

const uniqueViolation = "23505"

// Repository provides methods to interact with the notification_log table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new notification log repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// HasSent reports whether the tuple has already been delivered.
func (r *Repository) HasSent(ctx context.Context, memberID, eventID int64, notifType, channel string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM notification_log
			WHERE member_id = $1 AND event_id = $2 AND type = $3 AND channel = $4
		);
    `

	var sent bool
	err := r.db.QueryRowContext(ctx, query, memberID, eventID, notifType, channel).Scan(&sent)
	if err != nil {
		return false, fmt.Errorf("failed to check notification log: %w", err)
	}

	return sent, nil
}

// RecordSent appends one delivery fact. Rows are never updated or deleted by
// the dispatch path.
func (r *Repository) RecordSent(ctx context.Context, memberID, eventID int64, notifType, channel string, at time.Time) error {
	query := `
		INSERT INTO notification_log (member_id, event_id, type, channel, sent_at)
		VALUES ($1, $2, $3, $4, $5);
    `

	if _, err := r.db.ExecContext(ctx, query, memberID, eventID, notifType, channel, at); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEntry
		}

		return fmt.Errorf("failed to record notification: %w", err)
	}

	return nil
}
