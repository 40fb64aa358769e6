package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/book_api/internal/utils"
)

var startTime = time.Now()

// Pinger is a dependency the health check probes.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthHandler provides health endpoint.
type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// GetHealth handles GET /v1/health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := probe(ctx, h.db)
	redisStatus := probe(ctx, h.redis)

	data := gin.H{
		"status":   "healthy",
		"version":  "1.0.0",
		"uptime":   int(time.Since(startTime).Seconds()),
		"database": dbStatus,
		"redis":    redisStatus,
	}

	if dbStatus != "connected" {
		data["status"] = "degraded"
		c.JSON(503, utils.Response{
			Success: false,
			Code:    503,
			Message: "Database unavailable",
			Data:    data,
			Meta:    utils.Meta{RequestID: c.GetString("request_id"), Timestamp: time.Now().Format(time.RFC3339)},
		})
		return
	}

	utils.Success(c, 200, "Service is healthy", data)
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.PingContext(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}
