// Package dispatch is the notification engine: given an event lifecycle
// trigger it fans out delivery over email and push to every eligible member,
// records successful sends in the notification log, and reports an
// email-channel summary to the caller.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/torsdagskos/backend/internal/civiltime"
	"github.com/torsdagskos/backend/internal/model"
	"github.com/torsdagskos/backend/internal/repository/notiflog"
	"github.com/torsdagskos/backend/pkg/email"
	"github.com/torsdagskos/backend/pkg/webpush"
)

// NewEventTrigger announces a freshly created event.
type NewEventTrigger struct {
	EventID     int64
	Title       string
	Description string
	DateTime    time.Time
	Location    string
}

// UpdateTrigger announces an edit, carrying the snapshots taken before and
// after the row was written.
type UpdateTrigger struct {
	EventID  int64
	Previous model.EventSnapshot
	Updated  model.EventSnapshot
}

type memberRepository interface {
	GetAllMembers(ctx context.Context) ([]model.Member, error)
	ClearPushSubscription(ctx context.Context, memberID int64) error
}

type eventRepository interface {
	GetUpcomingEvents(ctx context.Context, from time.Time) ([]model.Event, error)
}

type notificationLog interface {
	HasSent(ctx context.Context, memberID, eventID int64, notifType, channel string) (bool, error)
	RecordSent(ctx context.Context, memberID, eventID int64, notifType, channel string, at time.Time) error
}

type dedupCache interface {
	GetWithRetry(ctx context.Context, strategy retry.Strategy, key string) (string, error)
	SetWithRetry(ctx context.Context, strategy retry.Strategy, key string, value interface{}) error
}

type emailProvider interface {
	Name() string
	Send(ctx context.Context, msg email.Message) email.Result
}

type pushSender interface {
	Configured() bool
	Send(ctx context.Context, subscriptionJSON string, p webpush.Payload) webpush.Result
}

// Options tunes one dispatch service instance.
type Options struct {
	BaseURL     string           // site base URL for push click-through links
	SendTimeout time.Duration    // per-recipient provider call timeout
	Retry       retry.Strategy   // cache access retry policy
	Now         func() time.Time // injectable clock, defaults to time.Now
}

// Service coordinates recipient resolution, content building, per-channel
// fan-out and dedup bookkeeping for one trigger at a time. It holds no
// per-trigger state; concurrent triggers only share the log and member table,
// both guarded by storage-level atomicity.
type Service struct {
	members memberRepository
	events  eventRepository
	log     notificationLog
	cache   dedupCache
	email   emailProvider
	push    pushSender
	civil   *civiltime.Resolver

	baseURL     string
	sendTimeout time.Duration
	retry       retry.Strategy
	now         func() time.Time
}

// NewService creates a dispatch service. cache may be nil, in which case every
// dedup check goes straight to the notification log.
func NewService(
	members memberRepository,
	events eventRepository,
	log notificationLog,
	cache dedupCache,
	provider emailProvider,
	push pushSender,
	civil *civiltime.Resolver,
	opts Options,
) *Service {
	if opts.SendTimeout == 0 {
		opts.SendTimeout = 15 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		members:     members,
		events:      events,
		log:         log,
		cache:       cache,
		email:       provider,
		push:        push,
		civil:       civil,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		sendTimeout: opts.SendTimeout,
		retry:       opts.Retry,
		now:         opts.Now,
	}
}

// DispatchNewEvent notifies every member about a newly created event and
// returns the email-channel summary. Push delivery runs as a side-channel;
// its failures are logged and never affect the summary or the returned error.
func (s *Service) DispatchNewEvent(ctx context.Context, t NewEventTrigger) (model.NotificationSummary, error) {
	runID := uuid.New()

	members, err := s.members.GetAllMembers(ctx)
	if err != nil {
		return model.NotificationSummary{}, fmt.Errorf("resolve email recipients: %w", err)
	}
	if len(members) == 0 {
		return model.NotificationSummary{}, nil
	}

	content := buildNewEventEmail(s.civil, t)
	results := s.fanOutEmail(ctx, runID, members, t.EventID, model.TypeNewEvent, content)
	summary := summarize(results, len(members))

	s.deliverPush(ctx, runID, pushDelivery{
		EventID: t.EventID,
		Type:    model.TypeNewEvent,
		Title:   "New event: " + t.Title,
		Body:    fmt.Sprintf("%s · %s", s.civil.FormatEventDate(t.DateTime), t.Location),
		URL:     s.eventURL(t.EventID),
	})

	s.logSummary(runID, model.TypeNewEvent, t.EventID, summary)

	return summary, nil
}

// DispatchEventUpdate notifies every member about an edited event.
func (s *Service) DispatchEventUpdate(ctx context.Context, t UpdateTrigger) (model.NotificationSummary, error) {
	runID := uuid.New()

	members, err := s.members.GetAllMembers(ctx)
	if err != nil {
		return model.NotificationSummary{}, fmt.Errorf("resolve email recipients: %w", err)
	}
	if len(members) == 0 {
		return model.NotificationSummary{}, nil
	}

	content := buildEventUpdateEmail(s.civil, t)
	results := s.fanOutEmail(ctx, runID, members, t.EventID, model.TypeEventUpdate, content)
	summary := summarize(results, len(members))

	title := t.Updated.Title
	if title == "" {
		title = t.Previous.Title
	}

	s.deliverPush(ctx, runID, pushDelivery{
		EventID: t.EventID,
		Type:    model.TypeEventUpdate,
		Title:   "Event updated: " + title,
		Body:    fmt.Sprintf("%s · %s", s.civil.FormatEventDate(t.Updated.DateTime), t.Updated.Location),
		URL:     s.eventURL(t.EventID),
	})

	s.logSummary(runID, model.TypeEventUpdate, t.EventID, summary)

	return summary, nil
}

// DispatchReminders notifies every member about each event whose civil date
// is tomorrow relative to now. Each qualifying event gets its own
// independently deduplicated dispatch run; the per-event summaries are summed.
func (s *Service) DispatchReminders(ctx context.Context, now time.Time) (model.ReminderSummary, error) {
	if now.IsZero() {
		now = s.now()
	}

	tomorrowKey := s.civil.TomorrowDateKey(now)

	members, err := s.members.GetAllMembers(ctx)
	if err != nil {
		return model.ReminderSummary{}, fmt.Errorf("resolve email recipients: %w", err)
	}
	if len(members) == 0 {
		return model.ReminderSummary{}, nil
	}

	upcoming, err := s.events.GetUpcomingEvents(ctx, now)
	if err != nil {
		return model.ReminderSummary{}, fmt.Errorf("list upcoming events: %w", err)
	}

	var target []model.Event
	for _, ev := range upcoming {
		if s.civil.DateKey(ev.DateTime) == tomorrowKey {
			target = append(target, ev)
		}
	}

	agg := model.ReminderSummary{
		NotificationSummary: model.NotificationSummary{TotalUsers: len(members)},
		EventsConsidered:    len(upcoming),
		EventsTargeted:      len(target),
	}

	for _, ev := range target {
		// Each event is its own dispatch run; log lines of one must not be
		// attributable to another.
		runID := uuid.New()

		content := buildReminderEmail(s.civil, ev)
		results := s.fanOutEmail(ctx, runID, members, ev.ID, model.TypeReminder, content)
		summary := summarize(results, len(members))

		agg.Sent += summary.Sent
		agg.Failed += summary.Failed
		agg.Skipped += summary.Skipped

		s.deliverPush(ctx, runID, pushDelivery{
			EventID: ev.ID,
			Type:    model.TypeReminder,
			Title:   fmt.Sprintf("Reminder: %s is tomorrow", ev.Title),
			Body:    fmt.Sprintf("%s · %s", s.civil.FormatEventDate(ev.DateTime), ev.Location),
			URL:     s.eventURL(ev.ID),
		})

		s.logSummary(runID, model.TypeReminder, ev.ID, summary)
	}

	return agg, nil
}

// fanOutEmail sends one rendered message to every member concurrently and
// joins the whole batch before returning. Recipients are fully independent;
// no ordering is guaranteed between them.
func (s *Service) fanOutEmail(
	ctx context.Context,
	runID uuid.UUID,
	members []model.Member,
	eventID int64,
	notifType string,
	content Content,
) []email.Result {
	results := make([]email.Result, len(members))

	var wg sync.WaitGroup
	for i, m := range members {
		wg.Add(1)
		go func(i int, m model.Member) {
			defer wg.Done()
			results[i] = s.sendEmailTo(ctx, runID, m, eventID, notifType, content)
		}(i, m)
	}
	wg.Wait()

	return results
}

func (s *Service) sendEmailTo(
	ctx context.Context,
	runID uuid.UUID,
	m model.Member,
	eventID int64,
	notifType string,
	content Content,
) email.Result {
	already, err := s.hasSent(ctx, m.ID, eventID, notifType, model.ChannelEmail)
	if err != nil {
		// A broken dedup lookup degrades to best-effort: attempt the send
		// rather than silently dropping the recipient.
		zlog.Logger.Warn().Err(err).
			Str("run_id", runID.String()).
			Int64("member_id", m.ID).
			Msg("dedup lookup failed, attempting send")
	}
	if already {
		return email.Result{Skipped: true, Provider: s.email.Name()}
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	res := s.email.Send(sendCtx, email.Message{
		To:      m.Email,
		Subject: content.Subject,
		HTML:    content.HTML,
		Text:    content.Text,
	})

	switch {
	case res.Success:
		s.markSent(ctx, m.ID, eventID, notifType, model.ChannelEmail)
	case res.Skipped:
		// Provider not configured; nothing was attempted.
	default:
		zlog.Logger.Warn().
			Str("run_id", runID.String()).
			Int64("member_id", m.ID).
			Str("provider", res.Provider).
			Str("error", res.Error).
			Msg("email send failed")
	}

	return res
}

// pushDelivery is the per-trigger input for the push side-channel.
type pushDelivery struct {
	EventID int64
	Type    string
	Title   string
	Body    string
	URL     string
}

// deliverPush runs the push side-channel and swallows every error. Push must
// never fail the request whose email summary has already been computed.
func (s *Service) deliverPush(ctx context.Context, runID uuid.UUID, in pushDelivery) {
	if err := s.pushToOptedIn(ctx, runID, in); err != nil {
		zlog.Logger.Error().Err(err).
			Str("run_id", runID.String()).
			Str("type", in.Type).
			Int64("event_id", in.EventID).
			Msg("push notification delivery failed")
	}
}

func (s *Service) pushToOptedIn(ctx context.Context, runID uuid.UUID, in pushDelivery) error {
	if !s.push.Configured() {
		return nil
	}

	members, err := s.members.GetAllMembers(ctx)
	if err != nil {
		return fmt.Errorf("resolve push recipients: %w", err)
	}

	var eligible []model.Member
	for _, m := range members {
		if m.PushEligible() {
			eligible = append(eligible, m)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	for _, m := range eligible {
		wg.Add(1)
		go func(m model.Member) {
			defer wg.Done()
			s.sendPushTo(ctx, runID, m, in)
		}(m)
	}
	wg.Wait()

	return nil
}

func (s *Service) sendPushTo(ctx context.Context, runID uuid.UUID, m model.Member, in pushDelivery) {
	already, err := s.hasSent(ctx, m.ID, in.EventID, in.Type, model.ChannelPush)
	if err != nil {
		zlog.Logger.Warn().Err(err).
			Str("run_id", runID.String()).
			Int64("member_id", m.ID).
			Msg("push dedup lookup failed, attempting send")
	}
	if already {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	res := s.push.Send(sendCtx, *m.PushSubscription, webpush.Payload{
		Title: in.Title,
		Body:  in.Body,
		URL:   in.URL,
	})

	switch {
	case res.Expired:
		// The endpoint is gone for good; demote the member right away so
		// later triggers stop targeting it. No log entry is written.
		if err := s.members.ClearPushSubscription(ctx, m.ID); err != nil {
			zlog.Logger.Error().Err(err).
				Str("run_id", runID.String()).
				Int64("member_id", m.ID).
				Msg("failed to clear expired push subscription")
			return
		}

		zlog.Logger.Info().
			Str("run_id", runID.String()).
			Int64("member_id", m.ID).
			Msg("push subscription expired, member demoted")
	case res.Success:
		s.markSent(ctx, m.ID, in.EventID, in.Type, model.ChannelPush)
	case res.Skipped:
		// Configured() gates the whole batch; a per-send skip means the
		// configuration changed mid-flight. Nothing to do.
	default:
		zlog.Logger.Warn().
			Str("run_id", runID.String()).
			Int64("member_id", m.ID).
			Str("error", res.Error).
			Msg("push send failed")
	}
}

// hasSent consults the dedup cache first and falls back to the notification
// log. Cache errors degrade to a log lookup, never to a false positive.
func (s *Service) hasSent(ctx context.Context, memberID, eventID int64, notifType, channel string) (bool, error) {
	if s.cache != nil {
		val, err := s.cache.GetWithRetry(ctx, s.retry, dedupKey(memberID, eventID, notifType, channel))
		if err == nil {
			return val == "1", nil
		}
		if !errors.Is(err, goredis.Nil) {
			zlog.Logger.Warn().Err(err).Msg("dedup cache read failed")
		}
	}

	return s.log.HasSent(ctx, memberID, eventID, notifType, channel)
}

// markSent appends the delivery fact and warms the cache. Losing the insert
// race to a concurrent duplicate trigger is not an error; the tuple exists
// either way.
func (s *Service) markSent(ctx context.Context, memberID, eventID int64, notifType, channel string) {
	err := s.log.RecordSent(ctx, memberID, eventID, notifType, channel, s.now())
	if err != nil && !errors.Is(err, notiflog.ErrDuplicateEntry) {
		zlog.Logger.Error().Err(err).
			Int64("member_id", memberID).
			Int64("event_id", eventID).
			Str("type", notifType).
			Str("channel", channel).
			Msg("failed to record notification")
		return
	}

	if s.cache != nil {
		if err := s.cache.SetWithRetry(ctx, s.retry, dedupKey(memberID, eventID, notifType, channel), "1"); err != nil {
			zlog.Logger.Warn().Err(err).Msg("dedup cache write failed")
		}
	}
}

func dedupKey(memberID, eventID int64, notifType, channel string) string {
	return fmt.Sprintf("notif:%d:%d:%s:%s", memberID, eventID, notifType, channel)
}

func summarize(results []email.Result, total int) model.NotificationSummary {
	summary := model.NotificationSummary{TotalUsers: total}
	for _, r := range results {
		switch {
		case r.Success:
			summary.Sent++
		case r.Skipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	return summary
}

func (s *Service) eventURL(eventID int64) string {
	return fmt.Sprintf("%s/events/%d", s.baseURL, eventID)
}

func (s *Service) logSummary(runID uuid.UUID, notifType string, eventID int64, summary model.NotificationSummary) {
	zlog.Logger.Info().
		Str("run_id", runID.String()).
		Str("type", notifType).
		Int64("event_id", eventID).
		Int("total_users", summary.TotalUsers).
		Int("sent", summary.Sent).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Msg("notification dispatch finished")
}
