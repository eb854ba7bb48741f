package history

import (
	"github.com/gin-gonic/gin"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/pkg/response"
)

// Handler serves the watch history endpoint.
type Handler struct {
	tracker *Tracker
}

// NewHandler creates a watch history handler.
func NewHandler(tracker *Tracker) *Handler {
	return &Handler{tracker: tracker}
}

// Mine handles GET /users/me/history.
func (h *Handler) Mine(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	list, err := h.tracker.History(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list, "Watch history fetched successfully")
}
