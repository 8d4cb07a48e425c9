package notiflog

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
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

func TestHasSent(t *testing.T) {
	repo, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT EXISTS (
			SELECT 1
			FROM notification_log
			WHERE member_id = $1 AND event_id = $2 AND type = $3 AND channel = $4
		);
    `)).
		WithArgs(int64(1), int64(2), "new_event", "email").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	sent, err := repo.HasSent(context.Background(), 1, 2, "new_event", "email")
	assert.NoError(t, err)
	assert.True(t, sent)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordSent(t *testing.T) {
	repo, mock := setupMockDB(t)

	at := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO notification_log (member_id, event_id, type, channel, sent_at)
		VALUES ($1, $2, $3, $4, $5);
    `)).
		WithArgs(int64(1), int64(2), "reminder", "push", at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.RecordSent(context.Background(), 1, 2, "reminder", "push", at)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordSent_DuplicateTuple(t *testing.T) {
	repo, mock := setupMockDB(t)

	at := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO notification_log (member_id, event_id, type, channel, sent_at)
		VALUES ($1, $2, $3, $4, $5);
    `)).
		WithArgs(int64(1), int64(2), "new_event", "email", at).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.RecordSent(context.Background(), 1, 2, "new_event", "email", at)
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	assert.NoError(t, mock.ExpectationsWereMet())
}
