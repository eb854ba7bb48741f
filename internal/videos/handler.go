package videos

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/pkg/response"
)

// HandlerConfig holds request-level settings for the video endpoints.
type HandlerConfig struct {
	DefaultPageSize int
	UploadDir       string // empty uses os.TempDir()
	MaxUploadBytes  int64
}

// UpdateRequest is the JSON body for PATCH /videos/:videoId.
type UpdateRequest struct {
	Title       *string `json:"title" form:"title"`
	Description *string `json:"description" form:"description"`
}

// Handler handles video HTTP endpoints.
type Handler struct {
	svc    *Service
	cfg    HandlerConfig
	logger *zap.Logger
}

// NewHandler creates a video handler.
func NewHandler(svc *Service, cfg HandlerConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	return &Handler{svc: svc, cfg: cfg, logger: logger}
}

func queryInt(c *gin.Context, fallback int, keys ...string) (int, bool) {
	for _, k := range keys {
		if v, ok := c.GetQuery(k); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return 0, false
			}
			return n, true
		}
	}
	return fallback, true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// List handles GET /videos?page=&limit=&query=&sortBy=&sortType=&userId=&username=.
// Unpublished videos are listed only when a user lists their own channel.
func (h *Handler) List(c *gin.Context) {
	requester, _ := auth.UserID(c)
	page, ok := queryInt(c, 1, "page")
	if !ok {
		response.BadRequest(c, "page must be an integer")
		return
	}
	size, ok := queryInt(c, h.cfg.DefaultPageSize, "limit", "pageSize")
	if !ok {
		response.BadRequest(c, "limit must be an integer")
		return
	}
	p := ListParams{
		Page:          page,
		PageSize:      size,
		Query:         c.Query("query"),
		SortBy:        c.Query("sortBy"),
		SortType:      c.Query("sortType"),
		Username:      c.Query("username"),
		PublishedOnly: true,
	}
	if raw := c.Query("userId"); raw != "" {
		owner, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid userId")
			return
		}
		p.OwnerID = &owner
		p.PublishedOnly = owner != requester
	}

	out, err := h.svc.List(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, out, "Videos fetched successfully")
}

// saveUpload writes the multipart file field to a temp file, keeping its extension.
// It returns an empty path when the field is absent.
func (h *Handler) saveUpload(c *gin.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	f, err := os.CreateTemp(h.cfg.UploadDir, "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	if err := c.SaveUploadedFile(fh, name); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

func (h *Handler) removeUploads(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			h.logger.Warn("remove temp upload failed", zap.String("path", p), zap.Error(err))
		}
	}
}

func (h *Handler) limitBody(c *gin.Context) {
	if h.cfg.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.MaxUploadBytes)
	}
}

// Publish handles POST /videos (multipart: title, description, videoFile, thumbnail).
func (h *Handler) Publish(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	h.limitBody(c)

	videoPath, err := h.saveUpload(c, "videoFile")
	if err != nil {
		response.BadRequest(c, "invalid video upload: "+err.Error())
		return
	}
	defer h.removeUploads(videoPath)
	thumbPath, err := h.saveUpload(c, "thumbnail")
	if err != nil {
		response.BadRequest(c, "invalid thumbnail upload: "+err.Error())
		return
	}
	defer h.removeUploads(thumbPath)

	v, err := h.svc.Publish(c.Request.Context(), userID, PublishInput{
		Title:         c.PostForm("title"),
		Description:   c.PostForm("description"),
		VideoPath:     videoPath,
		ThumbnailPath: thumbPath,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, v, "Video published successfully")
}

// Get handles GET /videos/:videoId and records the view for the caller.
func (h *Handler) Get(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	v, err := h.svc.Get(c.Request.Context(), userID, videoID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v, "Video fetched successfully")
}

// Update handles PATCH /videos/:videoId. It accepts JSON, or multipart with an optional thumbnail.
func (h *Handler) Update(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	h.limitBody(c)

	var req UpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	in := UpdateInput{Title: req.Title, Description: req.Description}
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		thumbPath, err := h.saveUpload(c, "thumbnail")
		if err != nil {
			response.BadRequest(c, "invalid thumbnail upload: "+err.Error())
			return
		}
		defer h.removeUploads(thumbPath)
		in.ThumbnailPath = thumbPath
	}

	v, err := h.svc.Update(c.Request.Context(), userID, videoID, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v, "Video updated successfully")
}

// Delete handles DELETE /videos/:videoId.
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), userID, videoID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": videoID}, "Video deleted successfully")
}

// TogglePublish handles PATCH /videos/toggle/publish/:videoId.
func (h *Handler) TogglePublish(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	videoID, ok := pathID(c, "videoId")
	if !ok {
		return
	}
	v, err := h.svc.TogglePublish(c.Request.Context(), userID, videoID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v, "Publish status toggled successfully")
}
