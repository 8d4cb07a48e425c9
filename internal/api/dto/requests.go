package dto

import "encoding/json"

// CreateEventRequest is the JSON body for creating an event. Date and Time
// are civil wall-clock values in the community timezone.
type CreateEventRequest struct {
	Title       string  `json:"title" validate:"required,max=120"`
	Description string  `json:"description" validate:"max=4000"`
	Date        string  `json:"date" validate:"required"`
	Time        string  `json:"time" validate:"required"`
	Location    string  `json:"location" validate:"required,min=2,max=150"`
	MapLink     *string `json:"mapLink" validate:"omitempty,url"`
}

// UpdateEventRequest is the JSON body for editing an event.
type UpdateEventRequest struct {
	EventID     int64   `json:"eventId" validate:"required,gt=0"`
	Title       string  `json:"title" validate:"required,max=120"`
	Description string  `json:"description" validate:"max=4000"`
	Date        string  `json:"date" validate:"required"`
	Time        string  `json:"time" validate:"required"`
	Location    string  `json:"location" validate:"required,min=2,max=150"`
	MapLink     *string `json:"mapLink" validate:"omitempty,url"`
}

// RSVPRequest is the JSON body for answering an event invitation.
type RSVPRequest struct {
	EventID int64  `json:"eventId" validate:"required,gt=0"`
	Status  string `json:"status" validate:"required,oneof=going maybe not_going"`
}

// NotificationSettingsRequest toggles browser notifications for the member.
type NotificationSettingsRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// PushSubscriptionRequest carries the browser push subscription blob. A null
// subscription clears the stored one.
type PushSubscriptionRequest struct {
	Subscription json.RawMessage `json:"subscription"`
}
