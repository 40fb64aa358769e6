package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "books")
	t.Setenv("DB_NAME", "books")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, DefaultFeedURL, cfg.Feed.URL)
	assert.Equal(t, 60*time.Second, cfg.Feed.Timeout)
	assert.Equal(t, 6*time.Hour, cfg.Worker.SyncInterval)
	assert.Equal(t, time.Minute, cfg.Worker.AutoPublishInterval)
	assert.Equal(t, 10*time.Minute, cfg.Worker.SyncLockTTL)
	assert.Equal(t, 10, cfg.X.PostsPerMinute)
	assert.Equal(t, "https://open.tiktokapis.com", cfg.TikTok.BaseURL)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, []string{"localhost:3000", "127.0.0.1:3000", "localhost:5173"}, cfg.CORSHosts)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("FEED_URL", "https://example.com/feed.xml")
	t.Setenv("SYNC_INTERVAL", "30m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("X_POSTS_PER_MINUTE", "not-a-number")
	t.Setenv("CORS_ALLOWED_HOSTS", " admin.books.example , ,books.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://example.com/feed.xml", cfg.Feed.URL)
	assert.Equal(t, 30*time.Minute, cfg.Worker.SyncInterval)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 10, cfg.X.PostsPerMinute)
	assert.Equal(t, []string{"admin.books.example", "books.example"}, cfg.CORSHosts)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("missing database settings", func(t *testing.T) {
		t.Setenv("DB_HOST", "")
		t.Setenv("DB_USER", "")
		t.Setenv("DB_NAME", "")
		t.Setenv("JWT_SECRET", "secret")

		_, err := Load()
		assert.ErrorContains(t, err, "database configuration incomplete")
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		setRequired(t)
		t.Setenv("JWT_SECRET", "")

		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("negative duration", func(t *testing.T) {
		setRequired(t)
		t.Setenv("FEED_TIMEOUT", "-5s")

		_, err := Load()
		assert.ErrorContains(t, err, "FEED_TIMEOUT")
	})
}
