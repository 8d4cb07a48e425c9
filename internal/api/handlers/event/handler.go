package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/torsdagskos/backend/internal/api/dto"
	"github.com/torsdagskos/backend/internal/api/respond"
	"github.com/torsdagskos/backend/internal/civiltime"
	"github.com/torsdagskos/backend/internal/model"
	eventrepo "github.com/torsdagskos/backend/internal/repository/event"
	"github.com/torsdagskos/backend/internal/service/event"
)

// eventService defines the interface that the Handler depends on.
//
// It abstracts creating and editing events, both of which trigger the
// notification engine behind the scenes.
//
//go:generate mockgen -source=handler.go -destination=../../../mocks/api/handlers/event/mock.go -package=mocks
type eventService interface {
	CreateEvent(ctx context.Context, in event.CreateEventInput) (int64, model.NotificationSummary, error)
	UpdateEvent(ctx context.Context, in event.UpdateEventInput) (model.NotificationSummary, error)
}

// Handler handles HTTP requests for event creation and edits.
type Handler struct {
	service   eventService
	validator *validator.Validate
	civil     *civiltime.Resolver
}

// NewHandler creates a new Handler instance.
func NewHandler(s eventService, v *validator.Validate, civil *civiltime.Resolver) *Handler {
	return &Handler{service: s, validator: v, civil: civil}
}

// Create handles HTTP POST requests to create a new event.
//
// The civil date and time fields are resolved to an instant in the community
// timezone before they reach the service layer.
func (h *Handler) Create(c *ginext.Context) {
	var req dto.CreateEventRequest

	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to validate request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	dateTime, err := h.civil.ResolveCivilInstant(req.Date, req.Time)
	if err != nil {
		zlog.Logger.Warn().Err(err).Str("date", req.Date).Str("time", req.Time).Msg("failed to resolve event time")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid date or time"))
		return
	}

	id, summary, err := h.service.CreateEvent(c.Request.Context(), event.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		DateTime:    dateTime,
		Location:    req.Location,
		MapLink:     req.MapLink,
	})
	if err != nil {
		zlog.Logger.Error().Err(err).Str("title", req.Title).Msg("failed to create event")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.Created(c.Writer, CreateResponse{EventID: id, Notifications: summary})
}

// Update handles HTTP POST requests to edit an existing event.
//
// Unknown events map to 404 and past events to 403; members are notified with
// a diff of the changed fields.
func (h *Handler) Update(c *ginext.Context) {
	var req dto.UpdateEventRequest

	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to validate request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	dateTime, err := h.civil.ResolveCivilInstant(req.Date, req.Time)
	if err != nil {
		zlog.Logger.Warn().Err(err).Str("date", req.Date).Str("time", req.Time).Msg("failed to resolve event time")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid date or time"))
		return
	}

	summary, err := h.service.UpdateEvent(c.Request.Context(), event.UpdateEventInput{
		EventID:     req.EventID,
		Title:       req.Title,
		Description: req.Description,
		DateTime:    dateTime,
		Location:    req.Location,
		MapLink:     req.MapLink,
	})
	if err != nil {
		if errors.Is(err, eventrepo.ErrEventNotFound) {
			zlog.Logger.Warn().Int64("event_id", req.EventID).Msg("event not found")
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("event not found"))
			return
		}

		if errors.Is(err, event.ErrEventInPast) {
			zlog.Logger.Warn().Int64("event_id", req.EventID).Msg("attempt to edit past event")
			respond.Fail(c.Writer, http.StatusForbidden, fmt.Errorf("past events cannot be edited"))
			return
		}

		zlog.Logger.Error().Err(err).Int64("event_id", req.EventID).Msg("failed to update event")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, UpdateResponse{EventID: req.EventID, Notifications: summary})
}

// CreateResponse is the body returned after a successful event creation.
type CreateResponse struct {
	EventID       int64                     `json:"eventId"`
	Notifications model.NotificationSummary `json:"notifications"`
}

// UpdateResponse is the body returned after a successful event edit.
type UpdateResponse struct {
	EventID       int64                     `json:"eventId"`
	Notifications model.NotificationSummary `json:"notifications"`
}
