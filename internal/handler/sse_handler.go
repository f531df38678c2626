package handler

import (
	"encoding/json"
	"io"

	"github.com/chantierpro/chantierpro/internal/sse"
	"github.com/gin-gonic/gin"
)

// SSEHandler flux d'événements temps réel
type SSEHandler struct {
	hub *sse.Hub
}

func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// Stream GET /api/v1/events (le token passe en ?token= côté navigateur)
func (h *SSEHandler) Stream(c *gin.Context) {
	userID := GetUserID(c)
	if userID == "" {
		Unauthorized(c, "authentification requise")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	ch := h.hub.Register(userID)
	defer h.hub.Unregister(userID, ch)

	// Événement initial pour confirmer la connexion
	connected, _ := json.Marshal(gin.H{"user_id": userID})
	c.SSEvent("connected", string(connected))
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(event.EventType, event.Data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
