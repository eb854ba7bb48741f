package subscriptions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidshare/backend/internal/models"
)

// ErrToggleConflict means a concurrent toggle on the same pair changed the edge first.
var ErrToggleConflict = errors.New("concurrent subscription change")

// Repository handles subscription persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a subscription repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UsersExist reports whether the subscriber and the channel exist.
func (r *Repository) UsersExist(ctx context.Context, subscriberID, channelID uuid.UUID) (subscriberOK, channelOK bool, err error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1), EXISTS (SELECT 1 FROM users WHERE id = $2)`
	err = r.pool.QueryRow(ctx, q, subscriberID, channelID).Scan(&subscriberOK, &channelOK)
	return subscriberOK, channelOK, err
}

// Toggle deletes the edge if present, otherwise creates it, in a single statement.
// It returns the affected edge and whether it now exists. When a concurrent insert on the
// same pair wins, nothing changes and ErrToggleConflict is returned.
func (r *Repository) Toggle(ctx context.Context, subscriberID, channelID uuid.UUID) (*models.Subscription, bool, error) {
	const q = `WITH del AS (
			DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
			RETURNING id, subscriber_id, channel_id, created_at, FALSE AS subscribed
		), ins AS (
			INSERT INTO subscriptions (subscriber_id, channel_id)
			SELECT $1::uuid, $2::uuid WHERE NOT EXISTS (SELECT 1 FROM del)
			ON CONFLICT (subscriber_id, channel_id) DO NOTHING
			RETURNING id, subscriber_id, channel_id, created_at, TRUE AS subscribed
		)
		SELECT id, subscriber_id, channel_id, created_at, subscribed FROM del
		UNION ALL
		SELECT id, subscriber_id, channel_id, created_at, subscribed FROM ins`
	var s models.Subscription
	var subscribed bool
	err := r.pool.QueryRow(ctx, q, subscriberID, channelID).Scan(&s.ID, &s.SubscriberID, &s.ChannelID, &s.CreatedAt, &subscribed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, ErrToggleConflict
		}
		return nil, false, err
	}
	return &s, subscribed, nil
}

// ListByChannel returns the channel's subscribers, newest first.
func (r *Repository) ListByChannel(ctx context.Context, channelID uuid.UUID) ([]models.SubscriptionWithProfile, error) {
	const q = `SELECT s.id, s.subscriber_id, s.channel_id, s.created_at, u.id, u.username, u.full_name, u.avatar_url
		FROM subscriptions s
		INNER JOIN users u ON u.id = s.subscriber_id
		WHERE s.channel_id = $1
		ORDER BY s.created_at DESC`
	return r.list(ctx, q, channelID)
}

// ListBySubscriber returns the channels the user subscribes to, newest first.
func (r *Repository) ListBySubscriber(ctx context.Context, subscriberID uuid.UUID) ([]models.SubscriptionWithProfile, error) {
	const q = `SELECT s.id, s.subscriber_id, s.channel_id, s.created_at, u.id, u.username, u.full_name, u.avatar_url
		FROM subscriptions s
		INNER JOIN users u ON u.id = s.channel_id
		WHERE s.subscriber_id = $1
		ORDER BY s.created_at DESC`
	return r.list(ctx, q, subscriberID)
}

func (r *Repository) list(ctx context.Context, q string, id uuid.UUID) ([]models.SubscriptionWithProfile, error) {
	rows, err := r.pool.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.SubscriptionWithProfile
	for rows.Next() {
		var s models.SubscriptionWithProfile
		if err := rows.Scan(&s.ID, &s.SubscriberID, &s.ChannelID, &s.CreatedAt,
			&s.Profile.ID, &s.Profile.Username, &s.Profile.FullName, &s.Profile.AvatarURL); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
