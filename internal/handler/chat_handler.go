package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/class-unity/classunity-api/internal/service"
	"github.com/class-unity/classunity-api/pkg/response"
)

// ChatHandler exposes chat provider endpoints.
type ChatHandler struct {
	service *service.ChatService
}

// NewChatHandler constructs a chat handler.
func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// Token godoc
// @Summary Issue a chat connection token for the caller
// @Tags Chat
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /chat/token [get]
func (h *ChatHandler) Token(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	token, err := h.service.Token(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, token, nil)
}

// Channels godoc
// @Summary List the caller's chat channels
// @Tags Chat
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /chat/channels [get]
func (h *ChatHandler) Channels(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	channels, err := h.service.Channels(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, channels, nil)
}

// Unread godoc
// @Summary Unread message counts for the caller
// @Tags Chat
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /chat/unread [get]
func (h *ChatHandler) Unread(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.service.Unread(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Sync godoc
// @Summary Queue a full roster sync to the chat provider
// @Tags Chat
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /chat/sync [post]
func (h *ChatHandler) Sync(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Sync(c.Request.Context(), p); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"status": "queued"}, nil)
}
