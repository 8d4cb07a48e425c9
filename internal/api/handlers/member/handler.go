package member

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/torsdagskos/backend/internal/api/dto"
	"github.com/torsdagskos/backend/internal/api/respond"
	"github.com/torsdagskos/backend/internal/middlewares"
	"github.com/torsdagskos/backend/internal/model"
)

type memberService interface {
	SyncMember(ctx context.Context, email, name string) (model.Member, error)
	SetNotificationPreference(ctx context.Context, email, name string, enabled bool) (model.Member, error)
	SavePushSubscription(ctx context.Context, email, name string, subscription *string) (bool, error)
}

// Handler handles HTTP requests for member sync and notification settings.
type Handler struct {
	service   memberService
	validator *validator.Validate
}

// NewHandler creates a new Handler instance.
func NewHandler(s memberService, v *validator.Validate) *Handler {
	return &Handler{service: s, validator: v}
}

// Sync handles HTTP POST requests to upsert the authenticated member.
func (h *Handler) Sync(c *ginext.Context) {
	identity, ok := middlewares.IdentityFrom(c)
	if !ok {
		respond.Fail(c.Writer, http.StatusUnauthorized, fmt.Errorf("authentication required"))
		return
	}

	m, err := h.service.SyncMember(c.Request.Context(), identity.Email, identity.Name)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("email", identity.Email).Msg("failed to sync member")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, SettingsResponse{
		MemberID:    m.ID,
		PushEnabled: m.PushEnabled,
	})
}

// SetNotifications handles HTTP POST requests to toggle browser notifications.
func (h *Handler) SetNotifications(c *ginext.Context) {
	identity, ok := middlewares.IdentityFrom(c)
	if !ok {
		respond.Fail(c.Writer, http.StatusUnauthorized, fmt.Errorf("authentication required"))
		return
	}

	var req dto.NotificationSettingsRequest

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

	m, err := h.service.SetNotificationPreference(c.Request.Context(), identity.Email, identity.Name, *req.Enabled)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("email", identity.Email).Msg("failed to set notification preference")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, SettingsResponse{
		MemberID:    m.ID,
		PushEnabled: m.PushEnabled,
	})
}

// SavePushSubscription handles HTTP POST requests to store or clear the
// browser push subscription. A null subscription clears the stored one and
// disables push.
func (h *Handler) SavePushSubscription(c *ginext.Context) {
	identity, ok := middlewares.IdentityFrom(c)
	if !ok {
		respond.Fail(c.Writer, http.StatusUnauthorized, fmt.Errorf("authentication required"))
		return
	}

	var req dto.PushSubscriptionRequest

	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	var subscription *string
	if len(req.Subscription) > 0 && string(req.Subscription) != "null" {
		if !json.Valid(req.Subscription) {
			respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid subscription payload"))
			return
		}

		s := string(req.Subscription)
		subscription = &s
	}

	stored, err := h.service.SavePushSubscription(c.Request.Context(), identity.Email, identity.Name, subscription)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("email", identity.Email).Msg("failed to save push subscription")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, PushSubscriptionResponse{Subscribed: stored})
}

// SettingsResponse reports the member's current notification settings.
type SettingsResponse struct {
	MemberID    int64 `json:"memberId"`
	PushEnabled bool  `json:"pushEnabled"`
}

// PushSubscriptionResponse reports whether a subscription is now stored.
type PushSubscriptionResponse struct {
	Subscribed bool `json:"subscribed"`
}
