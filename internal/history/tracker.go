// Package history tracks which videos each user has watched and keeps video view counts
// equal to the number of distinct viewers.
package history

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/pkg/apperr"
)

// MaxHistory caps the number of entries returned by History.
const MaxHistory = 200

// Store is the persistence used by the tracker.
type Store interface {
	Exists(ctx context.Context, userID, videoID uuid.UUID) (userOK, videoOK bool, err error)
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	Append(ctx context.Context, userID, videoID uuid.UUID) (bool, error)
	RecountViews(ctx context.Context, videoID uuid.UUID) (int64, error)
	List(ctx context.Context, userID uuid.UUID, limit int) ([]models.HistoryEntry, error)
}

// ViewResult is the outcome of recording a view.
type ViewResult struct {
	// Added is true when the video was not in the user's history before this call.
	Added bool  `json:"added"`
	Views int64 `json:"views"`
}

// Tracker records views.
type Tracker struct {
	store  Store
	logger *zap.Logger
}

// NewTracker creates a watch history tracker.
func NewTracker(store Store, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, logger: logger}
}

// RecordView adds videoID to the user's history if absent, then recomputes the video's
// view count from the history itself. Repeat views leave the count unchanged.
// Both steps can be retried on their own; a failure after the append is corrected
// by the next call for the same video.
func (t *Tracker) RecordView(ctx context.Context, userID, videoID uuid.UUID) (ViewResult, error) {
	userOK, videoOK, err := t.store.Exists(ctx, userID, videoID)
	if err != nil {
		return ViewResult{}, apperr.Upstream("failed to look up video", err)
	}
	if !videoOK {
		return ViewResult{}, apperr.NotFound("video not found")
	}
	if !userOK {
		return ViewResult{}, apperr.NotFound("user not found")
	}

	added, err := t.store.Append(ctx, userID, videoID)
	if err != nil {
		t.logger.Error("append watch history failed", zap.Error(err),
			zap.String("user_id", userID.String()), zap.String("video_id", videoID.String()))
		return ViewResult{}, apperr.Upstream("failed to record view", err)
	}

	views, err := t.store.RecountViews(ctx, videoID)
	if err != nil {
		t.logger.Error("recount views failed", zap.Error(err), zap.String("video_id", videoID.String()))
		return ViewResult{}, apperr.Upstream("failed to update view count", err)
	}
	return ViewResult{Added: added, Views: views}, nil
}

// History returns the user's watched videos, most recent first. An unknown user is
// not found; a user who has watched nothing gets an empty list.
func (t *Tracker) History(ctx context.Context, userID uuid.UUID) ([]models.HistoryEntry, error) {
	ok, err := t.store.UserExists(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream("failed to look up user", err)
	}
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	list, err := t.store.List(ctx, userID, MaxHistory)
	if err != nil {
		return nil, apperr.Upstream("failed to load watch history", err)
	}
	if list == nil {
		list = []models.HistoryEntry{}
	}
	return list, nil
}
