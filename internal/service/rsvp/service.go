package rsvp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/torsdagskos/backend/internal/model"
)

// ErrEventClosed is returned when answering for an event that already happened.
var ErrEventClosed = errors.New("cannot rsvp to past events")

type eventRepository interface {
	GetEventByID(ctx context.Context, id int64) (model.Event, error)
}

type rsvpRepository interface {
	UpsertRSVP(ctx context.Context, memberID, eventID int64, status string) error
	GetEventRSVPs(ctx context.Context, eventID int64) ([]model.RSVP, error)
}

// Service records member attendance answers.
type Service struct {
	events eventRepository
	rsvps  rsvpRepository
	now    func() time.Time
}

// NewService creates an RSVP service. now may be nil and defaults to time.Now.
func NewService(events eventRepository, rsvps rsvpRepository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{events: events, rsvps: rsvps, now: now}
}

// SubmitRSVP stores the member's answer for an upcoming event, overwriting
// any previous answer.
func (s *Service) SubmitRSVP(ctx context.Context, memberID, eventID int64, status string) error {
	ev, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		return err
	}

	if ev.DateTime.Before(s.now()) {
		return ErrEventClosed
	}

	if err := s.rsvps.UpsertRSVP(ctx, memberID, eventID, status); err != nil {
		return fmt.Errorf("submit rsvp: %w", err)
	}

	return nil
}

// ListEventRSVPs returns every answer for an event, most recent first.
func (s *Service) ListEventRSVPs(ctx context.Context, eventID int64) ([]model.RSVP, error) {
	if _, err := s.events.GetEventByID(ctx, eventID); err != nil {
		return nil, err
	}

	rsvps, err := s.rsvps.GetEventRSVPs(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list rsvps: %w", err)
	}

	return rsvps, nil
}
