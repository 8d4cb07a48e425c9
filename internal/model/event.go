package model

import "time"

// Event is a gathering. DateTime is always an absolute instant; all
// "today/tomorrow" reasoning happens in the civiltime package against the
// configured civil zone, never by comparing formatted dates.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DateTime    time.Time `json:"date_time"`
	Location    string    `json:"location"`
	MapLink     *string   `json:"map_link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventSnapshot captures the user-visible fields of an event before and after
// an update. It is derived, never persisted; the update content builder diffs
// two of these.
type EventSnapshot struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DateTime    time.Time `json:"date_time"`
	Location    string    `json:"location"`
	MapLink     *string   `json:"map_link,omitempty"`
}

// Snapshot returns the event's user-visible fields.
func (e Event) Snapshot() EventSnapshot {
	return EventSnapshot{
		Title:       e.Title,
		Description: e.Description,
		DateTime:    e.DateTime,
		Location:    e.Location,
		MapLink:     e.MapLink,
	}
}

// RSVP statuses accepted from members.
const (
	RSVPGoing    = "going"
	RSVPMaybe    = "maybe"
	RSVPNotGoing = "not_going"
)

// RSVP is a member's attendance answer for one event. One row per
// (member, event) pair; answering again overwrites the previous status.
type RSVP struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	EventID   int64     `json:"event_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
