package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/book_api/internal/models"
	"github.com/GTDGit/book_api/internal/utils"
	"github.com/GTDGit/book_api/pkg/tiktok"
)

// TikTokAPI is the subset of the TikTok client the service drives.
type TikTokAPI interface {
	ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*tiktok.Token, error)
	RefreshToken(ctx context.Context, refreshToken string) (*tiktok.Token, error)
	InitVideoPost(ctx context.Context, accessToken, title, videoURL string) (string, error)
	InitPhotoPost(ctx context.Context, accessToken, title, photoURL string) (string, error)
}

// TikTokTokenStore persists grants by user id.
type TikTokTokenStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.TikTokToken, error)
	Upsert(ctx context.Context, t *models.TikTokToken) error
}

// TikTokPublishRequest describes one post. Exactly one of VideoURL or ImageURL
// is used; a video wins when both are given.
type TikTokPublishRequest struct {
	UserID   string
	Text     string
	ImageURL string
	VideoURL string
}

// TikTokService connects users' TikTok accounts and posts on their behalf.
type TikTokService struct {
	api    TikTokAPI
	tokens TikTokTokenStore
	now    func() time.Time
}

// NewTikTokService constructs a TikTokService.
func NewTikTokService(api TikTokAPI, tokens TikTokTokenStore) *TikTokService {
	return &TikTokService{api: api, tokens: tokens, now: time.Now}
}

// Connect completes the OAuth flow and stores the grant for userID.
func (s *TikTokService) Connect(ctx context.Context, userID, code, codeVerifier, redirectURI string) (*models.TikTokToken, error) {
	if s.api == nil {
		return nil, utils.ErrNotConfigured
	}
	tok, err := s.api.ExchangeCode(ctx, code, codeVerifier, redirectURI)
	if err != nil {
		return nil, err
	}

	row := tokenRow(userID, tok)
	if err := s.tokens.Upsert(ctx, row); err != nil {
		return nil, fmt.Errorf("store tiktok token: %w", err)
	}

	log.Info().Str("user_id", userID).Str("open_id", tok.OpenID).Msg("TikTok account connected")
	return row, nil
}

// Publish initialises a TikTok post and returns its publish id. An expired
// access token is refreshed and persisted first.
func (s *TikTokService) Publish(ctx context.Context, req TikTokPublishRequest) (string, error) {
	if s.api == nil {
		return "", utils.ErrNotConfigured
	}
	if req.VideoURL == "" && req.ImageURL == "" {
		return "", utils.ErrMissingMedia
	}

	token, err := s.validToken(ctx, req.UserID)
	if err != nil {
		return "", err
	}

	var publishID string
	if req.VideoURL != "" {
		publishID, err = s.api.InitVideoPost(ctx, token.AccessToken, req.Text, req.VideoURL)
	} else {
		publishID, err = s.api.InitPhotoPost(ctx, token.AccessToken, req.Text, req.ImageURL)
	}
	if err != nil {
		return "", err
	}

	log.Info().Str("user_id", req.UserID).Str("publish_id", publishID).Msg("TikTok post initialised")
	return publishID, nil
}

func (s *TikTokService) validToken(ctx context.Context, userID string) (*models.TikTokToken, error) {
	token, err := s.tokens.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrTokenNotFound
		}
		return nil, fmt.Errorf("load tiktok token: %w", err)
	}

	if !token.Expired(s.now()) {
		return token, nil
	}
	if token.RefreshToken == nil || *token.RefreshToken == "" {
		return nil, utils.ErrNoRefreshToken
	}

	log.Info().Str("user_id", userID).Msg("Refreshing expired TikTok token")
	fresh, err := s.api.RefreshToken(ctx, *token.RefreshToken)
	if err != nil {
		return nil, err
	}
	if fresh.OpenID == "" {
		fresh.OpenID = token.OpenID
	}
	if fresh.Scope == "" && token.Scope != nil {
		fresh.Scope = *token.Scope
	}

	row := tokenRow(userID, fresh)
	if err := s.tokens.Upsert(ctx, row); err != nil {
		return nil, fmt.Errorf("store refreshed tiktok token: %w", err)
	}
	return row, nil
}

func tokenRow(userID string, t *tiktok.Token) *models.TikTokToken {
	row := &models.TikTokToken{
		UserID:      userID,
		AccessToken: t.AccessToken,
		OpenID:      t.OpenID,
		ExpiresAt:   t.ExpiresAt,
	}
	if t.RefreshToken != "" {
		row.RefreshToken = &t.RefreshToken
	}
	if t.Scope != "" {
		row.Scope = &t.Scope
	}
	return row
}
