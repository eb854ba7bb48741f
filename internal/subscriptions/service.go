// Package subscriptions manages the subscriber-to-channel relation.
package subscriptions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/pkg/apperr"
)

// toggleAttempts bounds retries when concurrent toggles on the same pair collide.
const toggleAttempts = 3

// Store is the persistence used by the service.
type Store interface {
	UsersExist(ctx context.Context, subscriberID, channelID uuid.UUID) (subscriberOK, channelOK bool, err error)
	Toggle(ctx context.Context, subscriberID, channelID uuid.UUID) (*models.Subscription, bool, error)
	ListByChannel(ctx context.Context, channelID uuid.UUID) ([]models.SubscriptionWithProfile, error)
	ListBySubscriber(ctx context.Context, subscriberID uuid.UUID) ([]models.SubscriptionWithProfile, error)
}

// ToggleResult reports the edge affected by a toggle and whether it exists afterwards.
type ToggleResult struct {
	Subscription models.Subscription `json:"subscription"`
	Subscribed   bool                `json:"subscribed"`
}

// Service toggles and lists subscriptions.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates a subscription service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Toggle subscribes subscriberID to channelID, or unsubscribes if already subscribed.
// Each call performs exactly one create or one delete.
func (s *Service) Toggle(ctx context.Context, subscriberID, channelID uuid.UUID) (*ToggleResult, error) {
	if subscriberID == channelID {
		return nil, apperr.InvalidInput("cannot subscribe to your own channel")
	}
	subOK, chanOK, err := s.store.UsersExist(ctx, subscriberID, channelID)
	if err != nil {
		return nil, apperr.Upstream("failed to look up channel", err)
	}
	if !chanOK {
		return nil, apperr.NotFound("channel not found")
	}
	if !subOK {
		return nil, apperr.NotFound("subscriber not found")
	}

	for attempt := 1; attempt <= toggleAttempts; attempt++ {
		sub, subscribed, err := s.store.Toggle(ctx, subscriberID, channelID)
		if err == nil {
			return &ToggleResult{Subscription: *sub, Subscribed: subscribed}, nil
		}
		if !errors.Is(err, ErrToggleConflict) {
			s.logger.Error("toggle subscription failed", zap.Error(err),
				zap.String("subscriber_id", subscriberID.String()), zap.String("channel_id", channelID.String()))
			return nil, apperr.Upstream("failed to toggle subscription", err)
		}
		s.logger.Debug("toggle subscription conflict", zap.Int("attempt", attempt),
			zap.String("subscriber_id", subscriberID.String()), zap.String("channel_id", channelID.String()))
	}
	return nil, apperr.Upstream("failed to toggle subscription", ErrToggleConflict)
}

// Subscribers lists the users subscribed to channelID.
func (s *Service) Subscribers(ctx context.Context, channelID uuid.UUID) ([]models.SubscriptionWithProfile, error) {
	if err := s.mustExist(ctx, channelID, "channel not found"); err != nil {
		return nil, err
	}
	list, err := s.store.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, apperr.Upstream("failed to list subscribers", err)
	}
	return orEmpty(list), nil
}

// Subscriptions lists the channels subscriberID is subscribed to.
func (s *Service) Subscriptions(ctx context.Context, subscriberID uuid.UUID) ([]models.SubscriptionWithProfile, error) {
	if err := s.mustExist(ctx, subscriberID, "subscriber not found"); err != nil {
		return nil, err
	}
	list, err := s.store.ListBySubscriber(ctx, subscriberID)
	if err != nil {
		return nil, apperr.Upstream("failed to list subscriptions", err)
	}
	return orEmpty(list), nil
}

func (s *Service) mustExist(ctx context.Context, id uuid.UUID, msg string) error {
	ok, _, err := s.store.UsersExist(ctx, id, id)
	if err != nil {
		return apperr.Upstream("failed to look up user", err)
	}
	if !ok {
		return apperr.NotFound(msg)
	}
	return nil
}

func orEmpty(list []models.SubscriptionWithProfile) []models.SubscriptionWithProfile {
	if list == nil {
		return []models.SubscriptionWithProfile{}
	}
	return list
}
