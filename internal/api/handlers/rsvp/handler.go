package rsvp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/torsdagskos/backend/internal/api/dto"
	"github.com/torsdagskos/backend/internal/api/respond"
	"github.com/torsdagskos/backend/internal/middlewares"
	"github.com/torsdagskos/backend/internal/model"
	eventrepo "github.com/torsdagskos/backend/internal/repository/event"
	"github.com/torsdagskos/backend/internal/service/rsvp"
)

type memberService interface {
	SyncMember(ctx context.Context, email, name string) (model.Member, error)
}

type rsvpService interface {
	SubmitRSVP(ctx context.Context, memberID, eventID int64, status string) error
	ListEventRSVPs(ctx context.Context, eventID int64) ([]model.RSVP, error)
}

// Handler handles HTTP requests for event attendance answers.
type Handler struct {
	members   memberService
	rsvps     rsvpService
	validator *validator.Validate
}

// NewHandler creates a new Handler instance.
func NewHandler(m memberService, r rsvpService, v *validator.Validate) *Handler {
	return &Handler{members: m, rsvps: r, validator: v}
}

// Submit handles HTTP POST requests to answer an event invitation. Answers
// overwrite any previous one for the same member and event.
func (h *Handler) Submit(c *ginext.Context) {
	identity, ok := middlewares.IdentityFrom(c)
	if !ok {
		respond.Fail(c.Writer, http.StatusUnauthorized, fmt.Errorf("authentication required"))
		return
	}

	var req dto.RSVPRequest

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

	member, err := h.members.SyncMember(c.Request.Context(), identity.Email, identity.Name)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("email", identity.Email).Msg("failed to sync member")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	err = h.rsvps.SubmitRSVP(c.Request.Context(), member.ID, req.EventID, req.Status)
	if err != nil {
		if errors.Is(err, eventrepo.ErrEventNotFound) {
			zlog.Logger.Warn().Int64("event_id", req.EventID).Msg("event not found")
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("event not found"))
			return
		}

		if errors.Is(err, rsvp.ErrEventClosed) {
			zlog.Logger.Warn().Int64("event_id", req.EventID).Msg("rsvp to past event")
			respond.Fail(c.Writer, http.StatusConflict, fmt.Errorf("event is closed for answers"))
			return
		}

		zlog.Logger.Error().Err(err).Int64("event_id", req.EventID).Msg("failed to submit rsvp")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, Response{EventID: req.EventID, Status: req.Status})
}

// List handles HTTP GET requests for all answers to one event.
func (h *Handler) List(c *ginext.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || eventID <= 0 {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid event id"))
		return
	}

	rsvps, err := h.rsvps.ListEventRSVPs(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, eventrepo.ErrEventNotFound) {
			zlog.Logger.Warn().Int64("event_id", eventID).Msg("event not found")
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("event not found"))
			return
		}

		zlog.Logger.Error().Err(err).Int64("event_id", eventID).Msg("failed to list rsvps")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, rsvps)
}

// Response is the body returned after a recorded answer.
type Response struct {
	EventID int64  `json:"eventId"`
	Status  string `json:"status"`
}
