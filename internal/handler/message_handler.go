package handler

import (
	"strconv"

	"github.com/chantierpro/chantierpro/internal/service"
	"github.com/gin-gonic/gin"
)

// MessageHandler messagerie
type MessageHandler struct {
	svc *service.MessageService
}

func NewMessageHandler(svc *service.MessageService) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// Send POST /api/v1/messages
func (h *MessageHandler) Send(c *gin.Context) {
	var req service.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	msg, err := h.svc.Send(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, msg)
}

// History GET /api/v1/messages/conversations/:id
func (h *MessageHandler) History(c *gin.Context) {
	page, pageSize := GetPagination(c)

	items, total, err := h.svc.History(c.Request.Context(), c.Param("id"), GetUserID(c), page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, ListResponse{Items: items, Pagination: NewPagination(page, pageSize, total)})
}

// Recent GET /api/v1/messages/recent
func (h *MessageHandler) Recent(c *gin.Context) {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil {
			limit = v
		}
	}

	items, err := h.svc.Recent(c.Request.Context(), GetUserID(c), limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, items)
}

// MarkRead POST /api/v1/messages/conversations/:id/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	count, err := h.svc.MarkRead(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"marked": count})
}

type reactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

// ToggleReaction POST /api/v1/messages/:id/reactions
func (h *MessageHandler) ToggleReaction(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "emoji requis")
		return
	}

	msg, err := h.svc.ToggleReaction(c.Request.Context(), c.Param("id"), GetUserID(c), req.Emoji)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, msg)
}

// Delete DELETE /api/v1/messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	msg, err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, msg)
}
