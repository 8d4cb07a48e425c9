package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/torsdagskos/backend/internal/api/handlers/cron"
	"github.com/torsdagskos/backend/internal/api/handlers/event"
	"github.com/torsdagskos/backend/internal/api/handlers/member"
	"github.com/torsdagskos/backend/internal/api/handlers/rsvp"
	"github.com/torsdagskos/backend/internal/middlewares"
)

func New(
	eventHandler *event.Handler,
	rsvpHandler *rsvp.Handler,
	memberHandler *member.Handler,
	cronHandler *cron.Handler,
) *ginext.Engine {
	e := ginext.New()
	e.Use(middlewares.CORSMiddleware())
	e.Use(ginext.Logger())
	e.Use(ginext.Recovery())

	api := e.Group("/api")

	// The cron endpoint authenticates with a shared secret, not member identity.
	api.GET("/cron/event-reminders", cronHandler.Tick)

	authed := api.Group("")
	authed.Use(middlewares.RequireMember())
	{
		authed.POST("/events", eventHandler.Create)
		authed.POST("/events/update", eventHandler.Update)
		authed.POST("/rsvp", rsvpHandler.Submit)
		authed.GET("/events/:id/rsvps", rsvpHandler.List)
		authed.POST("/sync-user", memberHandler.Sync)
		authed.POST("/settings/notifications", memberHandler.SetNotifications)
		authed.POST("/settings/push-subscription", memberHandler.SavePushSubscription)
	}

	return e
}
