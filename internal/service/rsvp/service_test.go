package rsvp

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torsdagskos/backend/internal/model"
	eventrepo "github.com/torsdagskos/backend/internal/repository/event"
)

type fakeEvents struct {
	events map[int64]model.Event
}

func (f *fakeEvents) GetEventByID(_ context.Context, id int64) (model.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return model.Event{}, eventrepo.ErrEventNotFound
	}
	return ev, nil
}

type fakeRSVPs struct {
	answers map[string]string
}

func (f *fakeRSVPs) UpsertRSVP(_ context.Context, memberID, eventID int64, status string) error {
	if f.answers == nil {
		f.answers = map[string]string{}
	}
	f.answers[key(memberID, eventID)] = status
	return nil
}

func (f *fakeRSVPs) GetEventRSVPs(_ context.Context, eventID int64) ([]model.RSVP, error) {
	var out []model.RSVP
	for k, status := range f.answers {
		var memberID, evID int64
		if _, err := fmt.Sscanf(k, "%d:%d", &memberID, &evID); err != nil {
			return nil, err
		}
		if evID == eventID {
			out = append(out, model.RSVP{MemberID: memberID, EventID: evID, Status: status})
		}
	}
	return out, nil
}

func key(memberID, eventID int64) string {
	return fmt.Sprintf("%d:%d", memberID, eventID)
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSubmitRSVP_OverwritesPreviousAnswer(t *testing.T) {
	events := &fakeEvents{events: map[int64]model.Event{
		1: {ID: 1, DateTime: testNow.AddDate(0, 0, 4)},
	}}
	rsvps := &fakeRSVPs{}

	svc := NewService(events, rsvps, func() time.Time { return testNow })

	require.NoError(t, svc.SubmitRSVP(context.Background(), 5, 1, model.RSVPGoing))
	require.NoError(t, svc.SubmitRSVP(context.Background(), 5, 1, model.RSVPNotGoing))

	assert.Equal(t, model.RSVPNotGoing, rsvps.answers[key(5, 1)])
	assert.Len(t, rsvps.answers, 1)
}

func TestSubmitRSVP_UnknownEvent(t *testing.T) {
	svc := NewService(&fakeEvents{}, &fakeRSVPs{}, func() time.Time { return testNow })

	err := svc.SubmitRSVP(context.Background(), 5, 99, model.RSVPGoing)
	assert.ErrorIs(t, err, eventrepo.ErrEventNotFound)
}

func TestListEventRSVPs(t *testing.T) {
	events := &fakeEvents{events: map[int64]model.Event{
		1: {ID: 1, DateTime: testNow.AddDate(0, 0, 4)},
	}}
	rsvps := &fakeRSVPs{}

	svc := NewService(events, rsvps, func() time.Time { return testNow })

	require.NoError(t, svc.SubmitRSVP(context.Background(), 5, 1, model.RSVPGoing))

	answers, err := svc.ListEventRSVPs(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, model.RSVPGoing, answers[0].Status)

	_, err = svc.ListEventRSVPs(context.Background(), 99)
	assert.ErrorIs(t, err, eventrepo.ErrEventNotFound)
}

func TestSubmitRSVP_PastEvent(t *testing.T) {
	events := &fakeEvents{events: map[int64]model.Event{
		1: {ID: 1, DateTime: testNow.AddDate(0, 0, -1)},
	}}
	rsvps := &fakeRSVPs{}

	svc := NewService(events, rsvps, func() time.Time { return testNow })

	err := svc.SubmitRSVP(context.Background(), 5, 1, model.RSVPMaybe)
	assert.ErrorIs(t, err, ErrEventClosed)
	assert.Empty(t, rsvps.answers)
}
