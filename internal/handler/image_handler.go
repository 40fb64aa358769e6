package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/book_api/internal/service"
	"github.com/GTDGit/book_api/internal/utils"
)

// ImageMigrator copies remote book images into object storage.
type ImageMigrator interface {
	MigrateAll(ctx context.Context) (*service.ImageMigrationResult, error)
}

type ImageHandler struct {
	migrator ImageMigrator
}

func NewImageHandler(migrator ImageMigrator) *ImageHandler {
	return &ImageHandler{migrator: migrator}
}

// Migrate handles POST /v1/admin/images/migrate
func (h *ImageHandler) Migrate(c *gin.Context) {
	res, err := h.migrator.MigrateAll(c.Request.Context())
	if err != nil {
		if errors.Is(err, utils.ErrNotConfigured) {
			utils.Error(c, 503, "NOT_CONFIGURED", "Image storage is not configured")
			return
		}
		log.Error().Err(err).Msg("Image migration failed")
		utils.Error(c, 500, "INTERNAL_ERROR", "Image migration failed")
		return
	}
	utils.Success(c, 200, "Image migration finished", res)
}
