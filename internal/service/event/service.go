package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/torsdagskos/backend/internal/model"
	"github.com/torsdagskos/backend/internal/service/dispatch"
)

// ErrEventInPast is returned when editing an event that already happened.
var ErrEventInPast = errors.New("past events cannot be edited")

type eventRepository interface {
	CreateEvent(ctx context.Context, e model.Event) (int64, error)
	UpdateEvent(ctx context.Context, id int64, s model.EventSnapshot) error
	GetEventByID(ctx context.Context, id int64) (model.Event, error)
}

type dispatcher interface {
	DispatchNewEvent(ctx context.Context, t dispatch.NewEventTrigger) (model.NotificationSummary, error)
	DispatchEventUpdate(ctx context.Context, t dispatch.UpdateTrigger) (model.NotificationSummary, error)
}

// CreateEventInput is a validated event creation payload.
type CreateEventInput struct {
	Title       string
	Description string
	DateTime    time.Time
	Location    string
	MapLink     *string
}

// UpdateEventInput is a validated event edit payload.
type UpdateEventInput struct {
	EventID     int64
	Title       string
	Description string
	DateTime    time.Time
	Location    string
	MapLink     *string
}

// Service persists events and triggers the notification engine. The event is
// always persisted before dispatch is attempted; a failed dispatch never
// fails the write.
type Service struct {
	repo     eventRepository
	dispatch dispatcher
	now      func() time.Time
}

// NewService creates an event service. now may be nil and defaults to time.Now.
func NewService(repo eventRepository, d dispatcher, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{repo: repo, dispatch: d, now: now}
}

// CreateEvent stores a new event and notifies members. The returned summary
// is zero-valued when dispatch itself errored; the creation still succeeds.
func (s *Service) CreateEvent(ctx context.Context, in CreateEventInput) (int64, model.NotificationSummary, error) {
	id, err := s.repo.CreateEvent(ctx, model.Event{
		Title:       in.Title,
		Description: in.Description,
		DateTime:    in.DateTime,
		Location:    in.Location,
		MapLink:     in.MapLink,
	})
	if err != nil {
		return 0, model.NotificationSummary{}, fmt.Errorf("create event: %w", err)
	}

	summary, err := s.dispatch.DispatchNewEvent(ctx, dispatch.NewEventTrigger{
		EventID:     id,
		Title:       in.Title,
		Description: in.Description,
		DateTime:    in.DateTime,
		Location:    in.Location,
	})
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("event_id", id).Msg("new event notifications failed")
		summary = model.NotificationSummary{}
	}

	return id, summary, nil
}

// UpdateEvent overwrites an upcoming event and notifies members with a diff
// of what changed. Editing past events is rejected.
func (s *Service) UpdateEvent(ctx context.Context, in UpdateEventInput) (model.NotificationSummary, error) {
	existing, err := s.repo.GetEventByID(ctx, in.EventID)
	if err != nil {
		return model.NotificationSummary{}, err
	}

	if existing.DateTime.Before(s.now()) {
		return model.NotificationSummary{}, ErrEventInPast
	}

	previous := existing.Snapshot()
	updated := model.EventSnapshot{
		Title:       in.Title,
		Description: in.Description,
		DateTime:    in.DateTime,
		Location:    in.Location,
		MapLink:     in.MapLink,
	}

	if err := s.repo.UpdateEvent(ctx, in.EventID, updated); err != nil {
		return model.NotificationSummary{}, err
	}

	summary, err := s.dispatch.DispatchEventUpdate(ctx, dispatch.UpdateTrigger{
		EventID:  in.EventID,
		Previous: previous,
		Updated:  updated,
	})
	if err != nil {
		zlog.Logger.Error().Err(err).Int64("event_id", in.EventID).Msg("event update notifications failed")
		summary = model.NotificationSummary{}
	}

	return summary, nil
}
