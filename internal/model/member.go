package model

import "time"

// Member is a registered user of the club.
//
// Push fields are mutated whenever the member toggles browser notifications
// or their browser (re)subscribes, and cleared when a push send reports that
// the subscription endpoint is gone.
type Member struct {
	ID                        int64      `json:"id"`
	Email                     string     `json:"email"`
	Name                      string     `json:"name"`
	PushEnabled               bool       `json:"push_enabled"`
	PushSubscription          *string    `json:"push_subscription,omitempty"`
	PushSubscriptionUpdatedAt *time.Time `json:"push_subscription_updated_at,omitempty"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// PushEligible reports whether the member should receive push notifications.
func (m Member) PushEligible() bool {
	return m.PushEnabled && m.PushSubscription != nil
}
