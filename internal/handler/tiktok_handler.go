package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/book_api/internal/models"
	"github.com/GTDGit/book_api/internal/service"
	"github.com/GTDGit/book_api/internal/utils"
	"github.com/GTDGit/book_api/pkg/tiktok"
)

// TikTokPoster connects accounts and initialises posts.
type TikTokPoster interface {
	Connect(ctx context.Context, userID, code, codeVerifier, redirectURI string) (*models.TikTokToken, error)
	Publish(ctx context.Context, req service.TikTokPublishRequest) (string, error)
}

// TikTokHandler handles the TikTok OAuth callback and publishing.
type TikTokHandler struct {
	tiktok TikTokPoster
}

// NewTikTokHandler constructs a TikTokHandler.
func NewTikTokHandler(tiktok TikTokPoster) *TikTokHandler {
	return &TikTokHandler{tiktok: tiktok}
}

// OAuthCallback handles POST /v1/admin/tiktok/oauth/callback
func (h *TikTokHandler) OAuthCallback(c *gin.Context) {
	var req struct {
		Code         string `json:"code" binding:"required"`
		CodeVerifier string `json:"codeVerifier" binding:"required"`
		UserID       string `json:"userId" binding:"required"`
		RedirectURI  string `json:"redirectUri" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "code, codeVerifier, userId and redirectUri are required")
		return
	}

	token, err := h.tiktok.Connect(c.Request.Context(), req.UserID, req.Code, req.CodeVerifier, req.RedirectURI)
	if err != nil {
		writeTikTokError(c, err)
		return
	}

	utils.Success(c, 200, "TikTok account connected", gin.H{
		"openId":    token.OpenID,
		"expiresAt": token.ExpiresAt,
	})
}

// Publish handles POST /v1/admin/tiktok/publish
func (h *TikTokHandler) Publish(c *gin.Context) {
	var req struct {
		Text     string `json:"text"`
		ImageURL string `json:"imageUrl"`
		VideoURL string `json:"videoUrl"`
		UserID   string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "userId is required")
		return
	}

	publishID, err := h.tiktok.Publish(c.Request.Context(), service.TikTokPublishRequest{
		UserID:   req.UserID,
		Text:     req.Text,
		ImageURL: req.ImageURL,
		VideoURL: req.VideoURL,
	})
	if err != nil {
		writeTikTokError(c, err)
		return
	}

	utils.Success(c, 200, "TikTok post initialised", gin.H{"publishId": publishID})
}

func writeTikTokError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrMissingMedia):
		utils.Error(c, 400, "MISSING_MEDIA", "imageUrl or videoUrl is required")
	case errors.Is(err, utils.ErrTokenNotFound):
		utils.Error(c, 404, "TOKEN_NOT_FOUND", "TikTok account is not connected")
	case errors.Is(err, utils.ErrNoRefreshToken):
		utils.Error(c, 401, "TOKEN_EXPIRED", "TikTok token expired and cannot be refreshed")
	case errors.Is(err, utils.ErrNotConfigured):
		utils.Error(c, 503, "NOT_CONFIGURED", "TikTok is not configured")
	case errors.Is(err, tiktok.ErrPublishRejected), errors.Is(err, tiktok.ErrInvalidTokenResponse):
		utils.Error(c, 502, "TIKTOK_ERROR", err.Error())
	default:
		log.Error().Err(err).Msg("TikTok request failed")
		utils.Error(c, 500, "INTERNAL_ERROR", "TikTok request failed")
	}
}
