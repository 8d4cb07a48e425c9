// Package scheduler is the time-gated entry point for reminder dispatch. It
// is safe to invoke at any cadence; only the tick whose civil hour matches
// the configured hour reaches the dispatch engine.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/wb-go/wbf/zlog"

	"github.com/torsdagskos/backend/internal/civiltime"
	"github.com/torsdagskos/backend/internal/model"
)

type reminderDispatcher interface {
	DispatchReminders(ctx context.Context, now time.Time) (model.ReminderSummary, error)
}

// TickResult reports what a single tick did. Either Skipped with a Reason, or
// a Summary from the dispatch run.
type TickResult struct {
	Skipped bool                   `json:"skipped"`
	Reason  string                 `json:"reason,omitempty"`
	Summary *model.ReminderSummary `json:"summary,omitempty"`
}

// Scheduler gates reminder dispatch on a fixed civil hour of day.
type Scheduler struct {
	dispatch reminderDispatcher
	civil    *civiltime.Resolver
	hour     int
	now      func() time.Time
}

// New creates a scheduler firing at the given civil hour (0-23). now may be
// nil and defaults to time.Now.
func New(d reminderDispatcher, civil *civiltime.Resolver, hour int, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}

	return &Scheduler{dispatch: d, civil: civil, hour: hour, now: now}
}

// RunTick runs one tick: outside the execution window it returns a skipped
// result immediately, inside it it dispatches reminders for tomorrow's events.
func (s *Scheduler) RunTick(ctx context.Context) (TickResult, error) {
	now := s.now()

	if s.civil.HourOf(now) != s.hour {
		return TickResult{
			Skipped: true,
			Reason:  fmt.Sprintf("outside %02d:00 %s execution window", s.hour, s.civil.Zone()),
		}, nil
	}

	summary, err := s.dispatch.DispatchReminders(ctx, now)
	if err != nil {
		return TickResult{}, fmt.Errorf("dispatch reminders: %w", err)
	}

	return TickResult{Summary: &summary}, nil
}

// Start runs RunTick on the given cron spec until the returned cron is
// stopped. Deployments that prefer an external scheduler hit the cron HTTP
// endpoint instead and never call this.
func (s *Scheduler) Start(ctx context.Context, spec string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		res, err := s.RunTick(ctx)
		if err != nil {
			zlog.Logger.Error().Err(err).Msg("reminder tick failed")
			return
		}

		if res.Skipped {
			zlog.Logger.Debug().Str("reason", res.Reason).Msg("reminder tick skipped")
			return
		}

		zlog.Logger.Info().
			Int("events_considered", res.Summary.EventsConsidered).
			Int("events_targeted", res.Summary.EventsTargeted).
			Int("sent", res.Summary.Sent).
			Int("failed", res.Summary.Failed).
			Int("skipped", res.Summary.Skipped).
			Msg("reminder tick finished")
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reminder tick: %w", err)
	}

	c.Start()

	return c, nil
}
