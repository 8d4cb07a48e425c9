package cron

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/torsdagskos/backend/internal/api/respond"
	"github.com/torsdagskos/backend/internal/scheduler"
)

type reminderScheduler interface {
	RunTick(ctx context.Context) (scheduler.TickResult, error)
}

// Handler exposes the reminder tick to an external cron caller. The endpoint
// is authenticated with a shared secret instead of member identity.
type Handler struct {
	scheduler reminderScheduler
	secret    string
}

// NewHandler creates a new Handler instance.
func NewHandler(s reminderScheduler, secret string) *Handler {
	return &Handler{scheduler: s, secret: secret}
}

// Tick handles HTTP GET requests from the external scheduler. Calls outside
// the configured civil hour return a skipped result; calls inside it dispatch
// reminders for tomorrow's events.
func (h *Handler) Tick(c *ginext.Context) {
	if !h.authorized(c) {
		zlog.Logger.Warn().Str("remote", c.ClientIP()).Msg("unauthorized cron request")
		respond.Fail(c.Writer, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
		return
	}

	result, err := h.scheduler.RunTick(c.Request.Context())
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("reminder tick failed")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, result)
}

// authorized accepts the shared secret as either a bearer token or the
// X-Cron-Secret header. An unset secret rejects everything.
func (h *Handler) authorized(c *ginext.Context) bool {
	if h.secret == "" {
		return false
	}

	candidate := c.GetHeader("X-Cron-Secret")
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		candidate = strings.TrimPrefix(auth, "Bearer ")
	}

	return subtle.ConstantTimeCompare([]byte(candidate), []byte(h.secret)) == 1
}
