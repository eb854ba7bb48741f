package dashboard

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidshare/backend/internal/models"
)

// VideoTotals is the fold of a channel's videos.
type VideoTotals struct {
	Videos   int64
	Views    int64
	Likes    int64
	Dislikes int64
}

// Repository runs the channel aggregate queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a dashboard repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// OwnerExists reports whether the channel owner exists.
func (r *Repository) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, ownerID).Scan(&ok)
	return ok, err
}

// VideoTotals counts the owner's videos and sums their counters in one pass.
func (r *Repository) VideoTotals(ctx context.Context, ownerID uuid.UUID) (VideoTotals, error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(views), 0), COALESCE(SUM(likes), 0), COALESCE(SUM(dislikes), 0)
		FROM videos WHERE owner_id = $1`
	var t VideoTotals
	err := r.pool.QueryRow(ctx, q, ownerID).Scan(&t.Videos, &t.Views, &t.Likes, &t.Dislikes)
	return t, err
}

// SubscriberCount counts the channel's subscribers.
func (r *Repository) SubscriberCount(ctx context.Context, channelID uuid.UUID) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID).Scan(&n)
	return n, err
}

// ChannelVideos returns all of the owner's videos, newest first, published or not.
func (r *Repository) ChannelVideos(ctx context.Context, ownerID uuid.UUID) ([]models.Video, error) {
	const q = `SELECT id, owner_id, title, description, video_url, thumbnail_url, duration,
			views, likes, dislikes, is_published, created_at, updated_at
		FROM videos WHERE owner_id = $1
		ORDER BY created_at DESC, seq DESC`
	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL, &v.Duration,
			&v.Views, &v.Likes, &v.Dislikes, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}
