package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/book_api/internal/sse"
)

// SSEHandler streams publish and sync activity to the dashboard.
type SSEHandler struct {
	hub          *sse.Hub
	pingInterval time.Duration
}

// NewSSEHandler creates a new SSEHandler.
func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub, pingInterval: 30 * time.Second}
}

// Stream handles GET /v1/admin/activity/stream?token=<jwt>
// Authentication is done by the JWT middleware, which accepts the query token.
func (h *SSEHandler) Stream(c *gin.Context) {
	userID := c.GetInt("user_id")
	clientID := fmt.Sprintf("admin-%d-%d", userID, time.Now().UnixNano())

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	client := h.hub.Register(clientID)
	defer h.hub.Unregister(clientID)

	c.SSEvent("connected", gin.H{
		"clientId":  clientID,
		"message":   "SSE connection established",
		"timestamp": time.Now().Format(time.RFC3339),
	})
	c.Writer.Flush()

	log.Info().Str("client_id", clientID).Int("user_id", userID).Msg("Activity stream started")

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent("activity", string(data))
			return true
		case <-ping.C:
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
