package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/book_api/internal/models"
	"github.com/GTDGit/book_api/internal/service"
	"github.com/GTDGit/book_api/internal/utils"
)

// CatalogSyncer runs one feed-to-catalog reconciliation.
type CatalogSyncer interface {
	Run(ctx context.Context, trigger string) (*service.SyncResult, error)
}

// SyncRunLister reads the sync audit trail.
type SyncRunLister interface {
	ListRecent(ctx context.Context, limit int) ([]models.SyncRun, error)
}

// SyncHandler triggers reconciliation and lists past runs.
type SyncHandler struct {
	syncer CatalogSyncer
	runs   SyncRunLister
}

// NewSyncHandler constructs a SyncHandler.
func NewSyncHandler(syncer CatalogSyncer, runs SyncRunLister) *SyncHandler {
	return &SyncHandler{syncer: syncer, runs: runs}
}

// Sync handles POST /v1/admin/sync
// The body is a fixed summary shape consumed by the dashboard, not the envelope.
func (h *SyncHandler) Sync(c *gin.Context) {
	// A disconnecting client must not interrupt a run that is already writing.
	result, err := h.syncer.Run(context.WithoutCancel(c.Request.Context()), "manual")
	if err != nil {
		if errors.Is(err, utils.ErrSyncInProgress) {
			c.JSON(409, gin.H{"success": false, "error": "Sync already in progress"})
			return
		}
		log.Error().Err(err).Msg("Manual sync failed")
		c.JSON(500, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"success": true,
		"stats": gin.H{
			"feedRecords":    result.FeedRecords,
			"catalogRecords": result.CatalogRecords,
			"updated":        result.Updated,
			"unmatched":      result.Unmatched,
		},
		"message": "Updated " + strconv.Itoa(result.Updated) + " of " + strconv.Itoa(result.CatalogRecords) + " books",
	})
}

// ListRuns handles GET /v1/admin/sync/runs?limit=20
func (h *SyncHandler) ListRuns(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	runs, err := h.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list sync runs")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve sync runs")
		return
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}
	utils.Success(c, 200, "Sync runs retrieved", runs)
}
