package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torsdagskos/backend/internal/civiltime"
	"github.com/torsdagskos/backend/internal/model"
)

type fakeDispatcher struct {
	calls   int
	lastNow time.Time
	summary model.ReminderSummary
	err     error
}

func (f *fakeDispatcher) DispatchReminders(_ context.Context, now time.Time) (model.ReminderSummary, error) {
	f.calls++
	f.lastNow = now
	return f.summary, f.err
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRunTick_InsideWindow(t *testing.T) {
	civil, err := civiltime.New("Europe/Oslo")
	require.NoError(t, err)

	// 16:00 UTC in June is 18:00 in Oslo (CEST).
	now := time.Date(2026, 6, 10, 16, 30, 0, 0, time.UTC)
	d := &fakeDispatcher{summary: model.ReminderSummary{
		NotificationSummary: model.NotificationSummary{TotalUsers: 3, Sent: 3},
		EventsConsidered:    2,
		EventsTargeted:      1,
	}}

	s := New(d, civil, 18, fixedNow(now))

	res, err := s.RunTick(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 1, res.Summary.EventsTargeted)
	assert.Equal(t, 1, d.calls)
	assert.Equal(t, now, d.lastNow)
}

func TestRunTick_OutsideWindow(t *testing.T) {
	civil, err := civiltime.New("Europe/Oslo")
	require.NoError(t, err)

	// 10:00 UTC in June is 12:00 in Oslo.
	now := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)
	d := &fakeDispatcher{}

	s := New(d, civil, 18, fixedNow(now))

	res, err := s.RunTick(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.Equal(t, "outside 18:00 Europe/Oslo execution window", res.Reason)
	assert.Nil(t, res.Summary)
	assert.Zero(t, d.calls)
}

func TestRunTick_DispatchError(t *testing.T) {
	civil, err := civiltime.New("Europe/Oslo")
	require.NoError(t, err)

	now := time.Date(2026, 1, 15, 17, 0, 0, 0, time.UTC) // 18:00 CET
	d := &fakeDispatcher{err: errors.New("db down")}

	s := New(d, civil, 18, fixedNow(now))

	_, err = s.RunTick(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch reminders")
}
