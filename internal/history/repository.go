package history

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidshare/backend/internal/models"
)

// Repository handles watch history persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a watch history repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Exists reports whether the user and the video exist.
func (r *Repository) Exists(ctx context.Context, userID, videoID uuid.UUID) (userOK, videoOK bool, err error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1), EXISTS (SELECT 1 FROM videos WHERE id = $2)`
	err = r.pool.QueryRow(ctx, q, userID, videoID).Scan(&userOK, &videoOK)
	return userOK, videoOK, err
}

// UserExists reports whether the user exists.
func (r *Repository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&ok)
	return ok, err
}

// Append adds videoID to the user's history. It reports whether the video was absent before the call.
func (r *Repository) Append(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	const q = `INSERT INTO watch_history (user_id, video_id) VALUES ($1, $2)
		ON CONFLICT (user_id, video_id) DO NOTHING`
	tag, err := r.pool.Exec(ctx, q, userID, videoID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RecountViews sets the video's view count to its number of distinct viewers and returns it.
func (r *Repository) RecountViews(ctx context.Context, videoID uuid.UUID) (int64, error) {
	const q = `UPDATE videos SET views = (SELECT COUNT(*) FROM watch_history WHERE video_id = $1)
		WHERE id = $1
		RETURNING views`
	var views int64
	err := r.pool.QueryRow(ctx, q, videoID).Scan(&views)
	return views, err
}

// List returns the user's history, most recently watched first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.HistoryEntry, error) {
	const q = `SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url, v.duration,
			v.views, v.likes, v.dislikes, v.is_published, v.created_at, v.updated_at,
			u.id, u.username, u.full_name, u.avatar_url, h.viewed_at
		FROM watch_history h
		INNER JOIN videos v ON v.id = h.video_id
		INNER JOIN users u ON u.id = v.owner_id
		WHERE h.user_id = $1
		ORDER BY h.seq DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		v := &e.Video
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL, &v.Duration,
			&v.Views, &v.Likes, &v.Dislikes, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
			&v.Owner.ID, &v.Owner.Username, &v.Owner.FullName, &v.Owner.AvatarURL, &e.ViewedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
