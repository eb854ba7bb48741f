// Package videos implements the video catalog: paginated listing with filters and sorting,
// and the publish, read, update, delete and publish-toggle lifecycle.
package videos

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidshare/backend/internal/history"
	"github.com/vidshare/backend/internal/models"
	"github.com/vidshare/backend/pkg/apperr"
	"github.com/vidshare/backend/pkg/database"
	"github.com/vidshare/backend/pkg/queue"
	"github.com/vidshare/backend/pkg/storage"
)

// MaxPageSize is the largest page a listing may request.
const MaxPageSize = 100

// Store is the persistence used by the catalog.
type Store interface {
	Create(ctx context.Context, p CreateParams) (*models.Video, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*models.VideoWithOwner, error)
	List(ctx context.Context, f ListFilter) ([]models.VideoWithOwner, int, error)
	Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Video, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Video, error)
	TogglePublished(ctx context.Context, id uuid.UUID) (*models.Video, error)
}

// MediaStore turns a local upload into a durable object.
type MediaStore interface {
	Store(ctx context.Context, localPath string, kind storage.MediaKind) (*storage.MediaObject, error)
}

// ViewRecorder records that a user watched a video.
type ViewRecorder interface {
	RecordView(ctx context.Context, userID, videoID uuid.UUID) (history.ViewResult, error)
}

// CleanupEnqueuer schedules removal of media objects that are no longer referenced.
type CleanupEnqueuer interface {
	EnqueueMediaCleanup(ctx context.Context, payload queue.MediaCleanupPayload) error
}

// ListParams is a raw listing request.
type ListParams struct {
	Page          int
	PageSize      int
	Query         string
	SortBy        string
	SortType      string
	OwnerID       *uuid.UUID
	Username      string
	PublishedOnly bool
}

// PublishInput holds a new video's metadata and the local paths of its uploaded files.
type PublishInput struct {
	Title         string
	Description   string
	VideoPath     string
	ThumbnailPath string
}

// UpdateInput holds optional changes to a video.
type UpdateInput struct {
	Title         *string
	Description   *string
	ThumbnailPath string
}

// Service is the video catalog.
type Service struct {
	store       Store
	media       MediaStore
	views       ViewRecorder
	cleanup     CleanupEnqueuer
	maxPageSize int
	logger      *zap.Logger
}

// NewService creates a catalog service. cleanup may be nil, in which case removed media
// objects are only logged.
func NewService(store Store, media MediaStore, views ViewRecorder, cleanup CleanupEnqueuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		media:       media,
		views:       views,
		cleanup:     cleanup,
		maxPageSize: MaxPageSize,
		logger:      logger,
	}
}

// SetMaxPageSize lowers the largest accepted page size.
func (s *Service) SetMaxPageSize(n int) {
	if n > 0 && n <= MaxPageSize {
		s.maxPageSize = n
	}
}

// List returns one page of videos matching p. The total is counted over the whole
// filtered set; an empty result is not an error.
func (s *Service) List(ctx context.Context, p ListParams) (*models.VideoPage, error) {
	if p.Page <= 0 {
		return nil, apperr.InvalidInput("page must be a positive integer")
	}
	if p.PageSize <= 0 {
		return nil, apperr.InvalidInput("page size must be a positive integer")
	}
	if p.PageSize > s.maxPageSize {
		return nil, apperr.InvalidInput("page size too large")
	}
	if p.Page > (math.MaxInt-1)/p.PageSize+1 {
		return nil, apperr.InvalidInput("page out of range")
	}
	sort, err := ParseSort(p.SortBy, p.SortType)
	if err != nil {
		return nil, err
	}
	f := ListFilter{
		OwnerID:       p.OwnerID,
		Username:      strings.TrimSpace(p.Username),
		Query:         strings.TrimSpace(p.Query),
		PublishedOnly: p.PublishedOnly,
		Sort:          sort,
		Limit:         p.PageSize,
		Offset:        (p.Page - 1) * p.PageSize,
	}

	list, total, err := s.store.List(ctx, f)
	if err != nil {
		s.logger.Error("list videos failed", zap.Error(err))
		return nil, apperr.Upstream("failed to list videos", err)
	}
	if list == nil {
		list = []models.VideoWithOwner{}
	}
	return &models.VideoPage{
		Videos:      list,
		TotalVideos: total,
		TotalPages:  totalPages(total, p.PageSize),
		CurrentPage: p.Page,
		PageSize:    p.PageSize,
	}, nil
}

// Publish stores the uploaded files and creates the video. Nothing reaches the media
// store unless the title and both files are present.
func (s *Service) Publish(ctx context.Context, ownerID uuid.UUID, in PublishInput) (*models.Video, error) {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return nil, apperr.InvalidInput("title is required")
	case in.VideoPath == "":
		return nil, apperr.InvalidInput("video file is required")
	case in.ThumbnailPath == "":
		return nil, apperr.InvalidInput("thumbnail is required")
	}
	if err := checkMediaType(in.VideoPath, storage.KindVideo); err != nil {
		return nil, err
	}
	if err := checkMediaType(in.ThumbnailPath, storage.KindThumbnail); err != nil {
		return nil, err
	}

	video, err := s.storeMedia(ctx, in.VideoPath, storage.KindVideo)
	if err != nil {
		return nil, err
	}
	thumb, err := s.storeMedia(ctx, in.ThumbnailPath, storage.KindThumbnail)
	if err != nil {
		s.enqueueCleanup(ctx, uuid.Nil, []string{video.Key})
		return nil, err
	}

	v, err := s.store.Create(ctx, CreateParams{
		OwnerID:      ownerID,
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		VideoURL:     video.URL,
		VideoKey:     video.Key,
		ThumbnailURL: thumb.URL,
		ThumbnailKey: thumb.Key,
		Duration:     video.DurationSeconds,
	})
	if err != nil {
		s.logger.Error("create video failed", zap.Error(err), zap.String("owner_id", ownerID.String()))
		s.enqueueCleanup(ctx, uuid.Nil, []string{video.Key, thumb.Key})
		return nil, apperr.Upstream("failed to save video", err)
	}
	s.logger.Info("video published", zap.String("video_id", v.ID.String()), zap.String("owner_id", ownerID.String()))
	return v, nil
}

// Get returns a video with its owner's profile and records the view for viewerID.
// Unpublished videos are visible to their owner only.
func (s *Service) Get(ctx context.Context, viewerID, videoID uuid.UUID) (*models.VideoWithOwner, error) {
	d, err := s.store.GetDetail(ctx, videoID)
	if err != nil {
		return nil, videoErr("failed to load video", err)
	}
	if !d.IsPublished && d.OwnerID != viewerID {
		return nil, apperr.NotFound("video not found")
	}
	if s.views != nil {
		res, err := s.views.RecordView(ctx, viewerID, videoID)
		if err != nil {
			return nil, err
		}
		d.Views = res.Views
	}
	return d, nil
}

// Update changes a video's title, description or thumbnail. Only the owner may update.
func (s *Service) Update(ctx context.Context, requesterID, videoID uuid.UUID, in UpdateInput) (*models.Video, error) {
	var p UpdateParams
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, apperr.InvalidInput("title cannot be empty")
		}
		p.Title = &t
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		p.Description = &d
	}
	if p.Title == nil && p.Description == nil && in.ThumbnailPath == "" {
		return nil, apperr.InvalidInput("nothing to update")
	}
	if in.ThumbnailPath != "" {
		if err := checkMediaType(in.ThumbnailPath, storage.KindThumbnail); err != nil {
			return nil, err
		}
	}

	current, err := s.owned(ctx, requesterID, videoID)
	if err != nil {
		return nil, err
	}
	if in.ThumbnailPath != "" {
		thumb, err := s.storeMedia(ctx, in.ThumbnailPath, storage.KindThumbnail)
		if err != nil {
			return nil, err
		}
		p.ThumbnailURL = &thumb.URL
		p.ThumbnailKey = &thumb.Key
	}

	v, err := s.store.Update(ctx, videoID, p)
	if err != nil {
		if p.ThumbnailKey != nil {
			s.enqueueCleanup(ctx, videoID, []string{*p.ThumbnailKey})
		}
		return nil, videoErr("failed to update video", err)
	}
	if p.ThumbnailKey != nil && current.ThumbnailKey != "" {
		s.enqueueCleanup(ctx, videoID, []string{current.ThumbnailKey})
	}
	return v, nil
}

// Delete permanently removes a video owned by requesterID and schedules its media
// objects for cleanup. Unknown ids are reported as not found.
func (s *Service) Delete(ctx context.Context, requesterID, videoID uuid.UUID) error {
	if _, err := s.owned(ctx, requesterID, videoID); err != nil {
		return err
	}
	v, err := s.store.Delete(ctx, videoID)
	if err != nil {
		return videoErr("failed to delete video", err)
	}
	s.enqueueCleanup(ctx, videoID, v.MediaKeys())
	s.logger.Info("video deleted", zap.String("video_id", videoID.String()))
	return nil
}

// TogglePublish flips the published flag of a video owned by requesterID.
func (s *Service) TogglePublish(ctx context.Context, requesterID, videoID uuid.UUID) (*models.Video, error) {
	if _, err := s.owned(ctx, requesterID, videoID); err != nil {
		return nil, err
	}
	v, err := s.store.TogglePublished(ctx, videoID)
	if err != nil {
		return nil, videoErr("failed to toggle publish status", err)
	}
	return v, nil
}

func (s *Service) owned(ctx context.Context, requesterID, videoID uuid.UUID) (*models.Video, error) {
	v, err := s.store.GetByID(ctx, videoID)
	if err != nil {
		return nil, videoErr("failed to load video", err)
	}
	if v.OwnerID != requesterID {
		return nil, apperr.Forbidden("only the owner can modify this video")
	}
	return v, nil
}

func checkMediaType(path string, kind storage.MediaKind) error {
	if _, err := storage.ContentTypeFor(kind, path); err != nil {
		return apperr.InvalidInput("unsupported " + string(kind) + " file type")
	}
	return nil
}

func (s *Service) storeMedia(ctx context.Context, path string, kind storage.MediaKind) (*storage.MediaObject, error) {
	if s.media == nil {
		return nil, apperr.Upstream("media store not configured", nil)
	}
	obj, err := s.media.Store(ctx, path, kind)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedMedia) {
			return nil, apperr.InvalidInput("unsupported " + string(kind) + " file type")
		}
		s.logger.Error("media store failed", zap.Error(err), zap.String("kind", string(kind)))
		return nil, apperr.Upstream("failed to upload "+string(kind), err)
	}
	return obj, nil
}

func (s *Service) enqueueCleanup(ctx context.Context, videoID uuid.UUID, keys []string) {
	if len(keys) == 0 {
		return
	}
	if s.cleanup == nil {
		s.logger.Warn("media cleanup not configured", zap.Strings("keys", keys))
		return
	}
	payload := queue.MediaCleanupPayload{VideoID: videoID, Keys: keys}
	if err := s.cleanup.EnqueueMediaCleanup(ctx, payload); err != nil {
		s.logger.Error("enqueue media cleanup failed", zap.Error(err), zap.Strings("keys", keys))
	}
}

func videoErr(msg string, err error) error {
	if database.IsNoRows(err) {
		return apperr.NotFound("video not found")
	}
	return apperr.Upstream(msg, err)
}
