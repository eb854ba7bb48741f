// Package dashboard serves a channel owner's aggregate statistics and video list.
package dashboard

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/pkg/apperr"
)

// Store is the persistence used by the dashboard.
type Store interface {
	OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error)
	VideoTotals(ctx context.Context, ownerID uuid.UUID) (VideoTotals, error)
	SubscriberCount(ctx context.Context, channelID uuid.UUID) (int64, error)
	ChannelVideos(ctx context.Context, ownerID uuid.UUID) ([]models.Video, error)
}

// Service computes channel statistics.
type Service struct {
	store  Store
	cache  StatsCache
	logger *zap.Logger
}

// NewService creates a dashboard service. cache may be nil.
func NewService(store Store, cache StatsCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cache: cache, logger: logger}
}

// ChannelStats folds the owner's videos and counts their subscribers. A channel with no
// videos gets all-zero video totals. Results may be served from the cache for a short while.
func (s *Service) ChannelStats(ctx context.Context, ownerID uuid.UUID) (*models.ChannelStats, error) {
	if s.cache != nil {
		stats, err := s.cache.Get(ctx, ownerID)
		if err == nil {
			return stats, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("stats cache read failed", zap.Error(err), zap.String("channel_id", ownerID.String()))
		}
	}

	if err := s.ownerExists(ctx, ownerID); err != nil {
		return nil, err
	}

	var totals VideoTotals
	var subscribers int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.store.VideoTotals(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		subscribers, err = s.store.SubscriberCount(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("channel stats query failed", zap.Error(err), zap.String("channel_id", ownerID.String()))
		return nil, apperr.Upstream("failed to compute channel stats", err)
	}

	stats := &models.ChannelStats{
		ChannelID:        ownerID,
		TotalVideos:      totals.Videos,
		TotalViews:       totals.Views,
		TotalLikes:       totals.Likes,
		TotalDislikes:    totals.Dislikes,
		TotalSubscribers: subscribers,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, stats); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err), zap.String("channel_id", ownerID.String()))
		}
	}
	return stats, nil
}

// ChannelVideos returns every video the owner has uploaded, newest first.
func (s *Service) ChannelVideos(ctx context.Context, ownerID uuid.UUID) ([]models.Video, error) {
	if err := s.ownerExists(ctx, ownerID); err != nil {
		return nil, err
	}
	list, err := s.store.ChannelVideos(ctx, ownerID)
	if err != nil {
		return nil, apperr.Upstream("failed to list channel videos", err)
	}
	if list == nil {
		list = []models.Video{}
	}
	return list, nil
}

func (s *Service) ownerExists(ctx context.Context, ownerID uuid.UUID) error {
	ok, err := s.store.OwnerExists(ctx, ownerID)
	if err != nil {
		return apperr.Upstream("failed to look up channel", err)
	}
	if !ok {
		return apperr.NotFound("channel not found")
	}
	return nil
}
