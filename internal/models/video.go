package models

import (
	"time"

	"github.com/google/uuid"
)

// Video is a published media item. Views is derived from watch history.
type Video struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"video_url"`
	VideoKey     string    `json:"-"`
	ThumbnailURL string    `json:"thumbnail_url"`
	ThumbnailKey string    `json:"-"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	Likes        int64     `json:"likes"`
	Dislikes     int64     `json:"dislikes"`
	IsPublished  bool      `json:"is_published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MediaKeys returns the media-store keys referenced by the video.
func (v *Video) MediaKeys() []string {
	var keys []string
	if v.VideoKey != "" {
		keys = append(keys, v.VideoKey)
	}
	if v.ThumbnailKey != "" {
		keys = append(keys, v.ThumbnailKey)
	}
	return keys
}

// VideoWithOwner is a video joined with its owner's public profile.
type VideoWithOwner struct {
	Video
	Owner OwnerProfile `json:"owner"`
}

// VideoPage is one page of a catalog listing.
type VideoPage struct {
	Videos      []VideoWithOwner `json:"videos"`
	TotalVideos int              `json:"totalVideos"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
	PageSize    int              `json:"pageSize"`
}

// HistoryEntry is one video in a user's watch history.
type HistoryEntry struct {
	Video    VideoWithOwner `json:"video"`
	ViewedAt time.Time      `json:"viewed_at"`
}
