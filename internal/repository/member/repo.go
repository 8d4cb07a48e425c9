package member

import (
	"context"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/dbpg"

	"github.com/torsdagskos/backend/internal/model"
)

var ErrMemberNotFound = errors.New("member not found")

// Repository provides methods to interact with the members table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new member repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

const memberColumns = `
	id, email, name, push_enabled, push_subscription, push_subscription_updated_at, created_at, updated_at
`

func scanMember(row interface{ Scan(...interface{}) error }) (model.Member, error) {
	var m model.Member
	err := row.Scan(
		&m.ID, &m.Email, &m.Name, &m.PushEnabled,
		&m.PushSubscription, &m.PushSubscriptionUpdatedAt,
		&m.CreatedAt, &m.UpdatedAt,
	)

	return m, err
}

// GetAllMembers returns every registered member. An empty slice is not an
// error; the dispatch engine short-circuits on it.
func (r *Repository) GetAllMembers(ctx context.Context) ([]model.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		ORDER BY id;
    `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}

		members = append(members, m)
	}

	return members, rows.Err()
}

// UpsertMember creates a member on first authenticated request or refreshes
// the display name on subsequent ones, returning the stored row.
func (r *Repository) UpsertMember(ctx context.Context, email, name string) (model.Member, error) {
	query := `
		INSERT INTO members (email, name)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, updated_at = now()
		RETURNING ` + memberColumns + `;
    `

	m, err := scanMember(r.db.QueryRowContext(ctx, query, email, name))
	if err != nil {
		return model.Member{}, fmt.Errorf("failed to upsert member: %w", err)
	}

	return m, nil
}

// SetPushEnabled toggles the member's browser notification preference.
func (r *Repository) SetPushEnabled(ctx context.Context, memberID int64, enabled bool) error {
	query := `
		UPDATE members
		SET push_enabled = $1, updated_at = now()
		WHERE id = $2;
    `

	res, err := r.db.ExecContext(ctx, query, enabled, memberID)
	if err != nil {
		return fmt.Errorf("failed to set push enabled: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrMemberNotFound
	}

	return nil
}

// SetPushSubscription stores a new subscription blob and enables push, or
// clears the blob and disables push when subscription is nil.
func (r *Repository) SetPushSubscription(ctx context.Context, memberID int64, subscription *string) error {
	query := `
		UPDATE members
		SET push_subscription = $1,
		    push_enabled = $2,
		    push_subscription_updated_at = now(),
		    updated_at = now()
		WHERE id = $3;
    `

	res, err := r.db.ExecContext(ctx, query, subscription, subscription != nil, memberID)
	if err != nil {
		return fmt.Errorf("failed to set push subscription: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrMemberNotFound
	}

	return nil
}

// ClearPushSubscription drops the member's subscription and disables push.
// Called when a push send reports the endpoint gone, so later triggers stop
// retrying a dead endpoint.
func (r *Repository) ClearPushSubscription(ctx context.Context, memberID int64) error {
	return r.SetPushSubscription(ctx, memberID, nil)
}
