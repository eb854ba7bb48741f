package dashboard

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/pkg/response"
)

// Handler handles the channel dashboard endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a dashboard handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// channelID is the authenticated user, or ?channelId= when given.
func channelID(c *gin.Context) (uuid.UUID, bool) {
	if raw := c.Query("channelId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid channelId")
			return uuid.Nil, false
		}
		return id, true
	}
	id, ok := auth.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
	}
	return id, ok
}

// Stats handles GET /dashboard/stats.
func (h *Handler) Stats(c *gin.Context) {
	id, ok := channelID(c)
	if !ok {
		return
	}
	stats, err := h.svc.ChannelStats(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, stats, "Channel stats fetched successfully")
}

// Videos handles GET /dashboard/videos.
func (h *Handler) Videos(c *gin.Context) {
	id, ok := auth.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	list, err := h.svc.ChannelVideos(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list, "Channel videos fetched successfully")
}
