package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/book_api/internal/models"
	"github.com/GTDGit/book_api/internal/utils"
	"github.com/GTDGit/book_api/pkg/tiktok"
)

type fakeTikTokAPI struct {
	refreshed []string
	video     []string
	photo     []string
	usedToken string
}

func (f *fakeTikTokAPI) ExchangeCode(ctx context.Context, code, verifier, redirect string) (*tiktok.Token, error) {
	return &tiktok.Token{AccessToken: "at-" + code, RefreshToken: "rt", OpenID: "oid", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeTikTokAPI) RefreshToken(ctx context.Context, rt string) (*tiktok.Token, error) {
	f.refreshed = append(f.refreshed, rt)
	return &tiktok.Token{AccessToken: "fresh", RefreshToken: "rt2", ExpiresAt: time.Now().Add(24 * time.Hour)}, nil
}

func (f *fakeTikTokAPI) InitVideoPost(ctx context.Context, at, title, url string) (string, error) {
	f.usedToken = at
	f.video = append(f.video, url)
	return "v_1", nil
}

func (f *fakeTikTokAPI) InitPhotoPost(ctx context.Context, at, title, url string) (string, error) {
	f.usedToken = at
	f.photo = append(f.photo, url)
	return "p_1", nil
}

type fakeTokenStore struct {
	rows map[string]*models.TikTokToken
}

func (s *fakeTokenStore) GetByUserID(ctx context.Context, userID string) (*models.TikTokToken, error) {
	t, ok := s.rows[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (s *fakeTokenStore) Upsert(ctx context.Context, t *models.TikTokToken) error {
	if s.rows == nil {
		s.rows = map[string]*models.TikTokToken{}
	}
	s.rows[t.UserID] = t
	return nil
}

func TestTikTokService_Connect(t *testing.T) {
	store := &fakeTokenStore{}
	svc := NewTikTokService(&fakeTikTokAPI{}, store)

	row, err := svc.Connect(context.Background(), "u-1", "code", "verifier", "https://app/cb")
	require.NoError(t, err)
	assert.Equal(t, "at-code", row.AccessToken)
	assert.Same(t, row, store.rows["u-1"])
}

func TestTikTokService_Publish(t *testing.T) {
	rt := "rt"
	store := &fakeTokenStore{rows: map[string]*models.TikTokToken{
		"valid":   {UserID: "valid", AccessToken: "at", OpenID: "oid", ExpiresAt: time.Now().Add(time.Hour)},
		"expired": {UserID: "expired", AccessToken: "old", OpenID: "oid", RefreshToken: &rt, ExpiresAt: time.Now().Add(-time.Minute)},
		"stuck":   {UserID: "stuck", AccessToken: "old", ExpiresAt: time.Now().Add(-time.Minute)},
	}}

	t.Run("photo with valid token", func(t *testing.T) {
		api := &fakeTikTokAPI{}
		id, err := NewTikTokService(api, store).Publish(context.Background(), TikTokPublishRequest{UserID: "valid", ImageURL: "https://cdn/p.jpg"})
		require.NoError(t, err)
		assert.Equal(t, "p_1", id)
		assert.Equal(t, "at", api.usedToken)
		assert.Empty(t, api.refreshed)
	})

	t.Run("video preferred over image", func(t *testing.T) {
		api := &fakeTikTokAPI{}
		id, err := NewTikTokService(api, store).Publish(context.Background(), TikTokPublishRequest{UserID: "valid", ImageURL: "i", VideoURL: "v"})
		require.NoError(t, err)
		assert.Equal(t, "v_1", id)
		assert.Empty(t, api.photo)
	})

	t.Run("expired token refreshed", func(t *testing.T) {
		api := &fakeTikTokAPI{}
		_, err := NewTikTokService(api, store).Publish(context.Background(), TikTokPublishRequest{UserID: "expired", VideoURL: "v"})
		require.NoError(t, err)
		assert.Equal(t, []string{"rt"}, api.refreshed)
		assert.Equal(t, "fresh", api.usedToken)
		assert.Equal(t, "fresh", store.rows["expired"].AccessToken)
		assert.Equal(t, "oid", store.rows["expired"].OpenID, "open id kept across refresh")
	})

	t.Run("expired without refresh token", func(t *testing.T) {
		_, err := NewTikTokService(&fakeTikTokAPI{}, store).Publish(context.Background(), TikTokPublishRequest{UserID: "stuck", VideoURL: "v"})
		assert.ErrorIs(t, err, utils.ErrNoRefreshToken)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := NewTikTokService(&fakeTikTokAPI{}, store).Publish(context.Background(), TikTokPublishRequest{UserID: "nobody", VideoURL: "v"})
		assert.ErrorIs(t, err, utils.ErrTokenNotFound)
	})

	t.Run("no media", func(t *testing.T) {
		_, err := NewTikTokService(&fakeTikTokAPI{}, store).Publish(context.Background(), TikTokPublishRequest{UserID: "valid"})
		assert.ErrorIs(t, err, utils.ErrMissingMedia)
	})
}
