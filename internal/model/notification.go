package model

import "time"

// Notification types. The type names a lifecycle trigger, not a channel.
const (
	TypeNewEvent    = "new_event"
	TypeEventUpdate = "event_update"
	TypeReminder    = "reminder"
)

// Delivery channels.
const (
	ChannelEmail = "email"
	ChannelPush  = "push"
)

// NotificationLogEntry is an immutable fact recording one successful send.
// The (MemberID, EventID, Type, Channel) tuple is the idempotency key for the
// whole dispatch engine; the storage layer enforces its uniqueness.
type NotificationLogEntry struct {
	ID       int64     `json:"id"`
	MemberID int64     `json:"member_id"`
	EventID  int64     `json:"event_id"`
	Type     string    `json:"type"`
	Channel  string    `json:"channel"`
	SentAt   time.Time `json:"sent_at"`
}

// NotificationSummary reports the outcome of one dispatch run. The counters
// cover the email channel only; push is a best-effort side-channel whose
// failures are logged, never surfaced.
type NotificationSummary struct {
	TotalUsers int `json:"totalUsers"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// ReminderSummary extends NotificationSummary with the reminder window stats,
// summed across the independent per-event dispatch runs of one tick.
type ReminderSummary struct {
	NotificationSummary
	EventsConsidered int `json:"eventsConsidered"`
	EventsTargeted   int `json:"eventsTargeted"`
}
