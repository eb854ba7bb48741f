package models

import "github.com/google/uuid"

// ChannelStats is derived on read from a channel's videos and subscription edges.
type ChannelStats struct {
	ChannelID        uuid.UUID `json:"channel_id"`
	TotalVideos      int64     `json:"totalVideos"`
	TotalViews       int64     `json:"totalViews"`
	TotalLikes       int64     `json:"totalLikes"`
	TotalDislikes    int64     `json:"totalDislikes"`
	TotalSubscribers int64     `json:"totalSubscribers"`
}
