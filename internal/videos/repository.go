package videos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidshare/backend/internal/models"
)

const videoColumns = `id, owner_id, title, description, video_url, video_key, thumbnail_url, thumbnail_key,
	duration, views, likes, dislikes, is_published, created_at, updated_at`

// Repository handles video persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a video repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*models.Video, error) {
	var v models.Video
	if err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.VideoKey, &v.ThumbnailURL, &v.ThumbnailKey,
		&v.Duration, &v.Views, &v.Likes, &v.Dislikes, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func scanDetail(row rowScanner) (*models.VideoWithOwner, error) {
	var d models.VideoWithOwner
	v := &d.Video
	if err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.VideoKey, &v.ThumbnailURL, &v.ThumbnailKey,
		&v.Duration, &v.Views, &v.Likes, &v.Dislikes, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
		&d.Owner.ID, &d.Owner.Username, &d.Owner.FullName, &d.Owner.AvatarURL); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateParams holds the fields of a newly published video.
type CreateParams struct {
	OwnerID      uuid.UUID
	Title        string
	Description  string
	VideoURL     string
	VideoKey     string
	ThumbnailURL string
	ThumbnailKey string
	Duration     float64
}

// Create inserts a video. New videos start published with zero counters.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*models.Video, error) {
	const q = `INSERT INTO videos (owner_id, title, description, video_url, video_key, thumbnail_url, thumbnail_key, duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + videoColumns
	return scanVideo(r.pool.QueryRow(ctx, q, p.OwnerID, p.Title, p.Description, p.VideoURL, p.VideoKey, p.ThumbnailURL, p.ThumbnailKey, p.Duration))
}

// GetByID returns a video by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	return scanVideo(r.pool.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
}

// GetDetail returns a video joined with its owner's profile.
func (r *Repository) GetDetail(ctx context.Context, id uuid.UUID) (*models.VideoWithOwner, error) {
	return scanDetail(r.pool.QueryRow(ctx, `SELECT `+detailColumns+listFrom+` WHERE v.id = $1`, id))
}

// List counts the videos matching f and returns the requested page of them.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.VideoWithOwner, int, error) {
	countSQL, pageSQL, args := buildListSQL(f)

	var total int
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 || f.Offset >= total {
		return nil, total, nil
	}

	rows, err := r.pool.Query(ctx, pageSQL, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []models.VideoWithOwner
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *d)
	}
	return list, total, rows.Err()
}

// UpdateParams holds optional video changes; nil fields are left untouched.
type UpdateParams struct {
	Title        *string
	Description  *string
	ThumbnailURL *string
	ThumbnailKey *string
}

// Update applies p and returns the updated video.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Video, error) {
	const q = `UPDATE videos SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			thumbnail_url = COALESCE($4, thumbnail_url),
			thumbnail_key = COALESCE($5, thumbnail_key),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + videoColumns
	return scanVideo(r.pool.QueryRow(ctx, q, id, p.Title, p.Description, p.ThumbnailURL, p.ThumbnailKey))
}

// Delete removes a video and returns the deleted row. Watch history rows go with it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	return scanVideo(r.pool.QueryRow(ctx, `DELETE FROM videos WHERE id = $1 RETURNING `+videoColumns, id))
}

// TogglePublished flips the published flag in one statement.
func (r *Repository) TogglePublished(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	const q = `UPDATE videos SET is_published = NOT is_published, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + videoColumns
	return scanVideo(r.pool.QueryRow(ctx, q, id))
}
