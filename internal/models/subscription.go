package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is the edge between a subscriber and the channel it follows.
// At most one edge exists per (SubscriberID, ChannelID).
type Subscription struct {
	ID           uuid.UUID `json:"id"`
	SubscriberID uuid.UUID `json:"subscriber_id"`
	ChannelID    uuid.UUID `json:"channel_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// SubscriptionWithProfile is an edge joined with the profile of its counterpart
// (the subscriber when listing a channel's subscribers, the channel otherwise).
type SubscriptionWithProfile struct {
	Subscription
	Profile OwnerProfile `json:"profile"`
}
