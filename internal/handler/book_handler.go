package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/book_api/internal/models"
	"github.com/GTDGit/book_api/internal/service"
	"github.com/GTDGit/book_api/internal/utils"
)

// BookLister is the catalog surface the dashboard uses.
type BookLister interface {
	List(ctx context.Context) (*service.BookList, error)
	Schedule(ctx context.Context, id string, sch models.BookSchedule) error
	ResolveShortLink(ctx context.Context, code string) (string, error)
}

// BookHandler serves the catalog listing, schedules and short links.
type BookHandler struct {
	books BookLister
}

// NewBookHandler constructs a BookHandler.
func NewBookHandler(books BookLister) *BookHandler {
	return &BookHandler{books: books}
}

// ListBooks handles GET /v1/admin/books
func (h *BookHandler) ListBooks(c *gin.Context) {
	list, err := h.books.List(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list books")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve books")
		return
	}
	utils.Success(c, 200, "Books retrieved", list)
}

// UpdateSchedule handles PUT /v1/admin/books/:id/schedule
func (h *BookHandler) UpdateSchedule(c *gin.Context) {
	var req struct {
		AutoPublishEnabled bool       `json:"autoPublishEnabled"`
		ScheduledAt        *time.Time `json:"scheduledAt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	sch := models.BookSchedule{AutoPublishEnabled: req.AutoPublishEnabled, ScheduledAt: req.ScheduledAt}
	if err := h.books.Schedule(c.Request.Context(), c.Param("id"), sch); err != nil {
		if errors.Is(err, utils.ErrBookNotFound) {
			utils.Error(c, 404, "BOOK_NOT_FOUND", "Book not found")
			return
		}
		log.Error().Err(err).Str("book_id", c.Param("id")).Msg("Failed to update schedule")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update schedule")
		return
	}

	if !req.AutoPublishEnabled {
		req.ScheduledAt = nil
	}
	utils.Success(c, 200, "Schedule updated", gin.H{
		"id":                 c.Param("id"),
		"autoPublishEnabled": req.AutoPublishEnabled,
		"scheduledAt":        req.ScheduledAt,
	})
}

// Redirect handles GET /r/:code
func (h *BookHandler) Redirect(c *gin.Context) {
	target, err := h.books.ResolveShortLink(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, utils.ErrBookNotFound) {
			c.String(404, "Book not found")
			return
		}
		log.Error().Err(err).Str("code", c.Param("code")).Msg("Failed to resolve short link")
		c.String(500, "Internal error")
		return
	}
	c.Redirect(302, target)
}
