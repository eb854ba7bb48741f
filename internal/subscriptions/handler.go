package subscriptions

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vidshare/backend/internal/auth"
	"github.com/vidshare/backend/pkg/response"
)

// Handler handles subscription HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a subscription handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Toggle handles POST /subscriptions/c/:channelId.
func (h *Handler) Toggle(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	channelID, err := uuid.Parse(c.Param("channelId"))
	if err != nil {
		response.BadRequest(c, "invalid channelId")
		return
	}
	res, err := h.svc.Toggle(c.Request.Context(), userID, channelID)
	if err != nil {
		response.Error(c, err)
		return
	}
	msg := "Unsubscribed successfully"
	if res.Subscribed {
		msg = "Subscribed successfully"
	}
	response.OK(c, res, msg)
}

// Subscribers handles GET /subscriptions/c/:channelId.
func (h *Handler) Subscribers(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("channelId"))
	if err != nil {
		response.BadRequest(c, "invalid channelId")
		return
	}
	list, err := h.svc.Subscribers(c.Request.Context(), channelID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list, "Subscribers fetched successfully")
}

// Subscriptions handles GET /subscriptions/u/:subscriberId.
func (h *Handler) Subscriptions(c *gin.Context) {
	subscriberID, err := uuid.Parse(c.Param("subscriberId"))
	if err != nil {
		response.BadRequest(c, "invalid subscriberId")
		return
	}
	list, err := h.svc.Subscriptions(c.Request.Context(), subscriberID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list, "Subscribed channels fetched successfully")
}
