package member

import (
	"context"
	"fmt"

	"github.com/torsdagskos/backend/internal/model"
)

type memberRepository interface {
	UpsertMember(ctx context.Context, email, name string) (model.Member, error)
	SetPushEnabled(ctx context.Context, memberID int64, enabled bool) error
	SetPushSubscription(ctx context.Context, memberID int64, subscription *string) error
}

// Service manages member rows and their notification settings. Members are
// created lazily on the first authenticated request that needs one.
type Service struct {
	members memberRepository
}

// NewService creates a member service.
func NewService(members memberRepository) *Service {
	return &Service{members: members}
}

// SyncMember upserts the member identified by the authenticated request.
// An empty display name falls back to the email address.
func (s *Service) SyncMember(ctx context.Context, email, name string) (model.Member, error) {
	if name == "" {
		name = email
	}

	m, err := s.members.UpsertMember(ctx, email, name)
	if err != nil {
		return model.Member{}, fmt.Errorf("sync member: %w", err)
	}

	return m, nil
}

// SetNotificationPreference toggles browser notifications for the member,
// creating the member row if needed.
func (s *Service) SetNotificationPreference(ctx context.Context, email, name string, enabled bool) (model.Member, error) {
	m, err := s.SyncMember(ctx, email, name)
	if err != nil {
		return model.Member{}, err
	}

	if err := s.members.SetPushEnabled(ctx, m.ID, enabled); err != nil {
		return model.Member{}, fmt.Errorf("set notification preference: %w", err)
	}

	m.PushEnabled = enabled

	return m, nil
}

// SavePushSubscription stores a browser subscription blob (enabling push) or
// clears it when subscription is nil (disabling push). It reports whether a
// subscription is now stored.
func (s *Service) SavePushSubscription(ctx context.Context, email, name string, subscription *string) (bool, error) {
	m, err := s.SyncMember(ctx, email, name)
	if err != nil {
		return false, err
	}

	if err := s.members.SetPushSubscription(ctx, m.ID, subscription); err != nil {
		return false, fmt.Errorf("save push subscription: %w", err)
	}

	return subscription != nil, nil
}
