package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/book_api/internal/service"
	"github.com/GTDGit/book_api/internal/utils"
)

// Publisher posts books to X.
type Publisher interface {
	Publish(ctx context.Context, ids []string) (*service.PublishSummary, error)
	PublishDue(ctx context.Context) (*service.PublishSummary, error)
}

// PublishHandler exposes manual and scheduled publishing.
type PublishHandler struct {
	publisher Publisher
}

// NewPublishHandler constructs a PublishHandler.
func NewPublishHandler(publisher Publisher) *PublishHandler {
	return &PublishHandler{publisher: publisher}
}

// Publish handles POST /v1/admin/books/publish
func (h *PublishHandler) Publish(c *gin.Context) {
	var req struct {
		BookID  string   `json:"bookId"`
		BookIDs []string `json:"bookIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	ids := req.BookIDs
	if req.BookID != "" {
		ids = append([]string{req.BookID}, ids...)
	}
	if len(ids) == 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "bookId or bookIds is required")
		return
	}

	summary, err := h.publisher.Publish(c.Request.Context(), ids)
	if err != nil {
		writePublishError(c, err)
		return
	}
	utils.Success(c, 200, "Publishing finished", summary)
}

// AutoPublish handles POST /v1/admin/books/auto-publish
func (h *PublishHandler) AutoPublish(c *gin.Context) {
	summary, err := h.publisher.PublishDue(c.Request.Context())
	if err != nil {
		writePublishError(c, err)
		return
	}
	utils.Success(c, 200, "Auto-publish finished", summary)
}

func writePublishError(c *gin.Context, err error) {
	if errors.Is(err, utils.ErrNotConfigured) {
		utils.Error(c, 503, "NOT_CONFIGURED", "X publishing is not configured")
		return
	}
	log.Error().Err(err).Msg("Publishing failed")
	utils.Error(c, 500, "INTERNAL_ERROR", "Publishing failed")
}
