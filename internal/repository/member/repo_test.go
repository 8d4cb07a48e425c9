package member

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/dbpg"
)

func setupMockDB(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open mock db: %v", err)
	}

	wrappedDB := &dbpg.DB{Master: db}
	repo := NewRepository(wrappedDB)

	return repo, mock
}

func memberRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "email", "name", "push_enabled", "push_subscription",
		"push_subscription_updated_at", "created_at", "updated_at",
	}).AddRow(int64(1), "member@example.com", "Member One", false, nil, nil, now, now)
}

func TestUpsertMember(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO members (email, name)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, updated_at = now()
		RETURNING `+memberColumns+`;
    `)).
		WithArgs("member@example.com", "Member One").
		WillReturnRows(memberRows())

	m, err := repo.UpsertMember(context.Background(), "member@example.com", "Member One")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), m.ID)
	assert.Equal(t, "member@example.com", m.Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllMembers(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT ` + memberColumns + `
		FROM members
		ORDER BY id;
    `)).
		WillReturnRows(memberRows())

	members, err := repo.GetAllMembers(context.Background())
	assert.NoError(t, err)
	assert.Len(t, members, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPushEnabled_MemberMissing(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE members
		SET push_enabled = $1, updated_at = now()
		WHERE id = $2;
    `)).
		WithArgs(true, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetPushEnabled(context.Background(), 99, true)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearPushSubscription(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE members
		SET push_subscription = $1,
		    push_enabled = $2,
		    push_subscription_updated_at = now(),
		    updated_at = now()
		WHERE id = $3;
    `)).
		WithArgs(nil, false, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ClearPushSubscription(context.Background(), 1)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
