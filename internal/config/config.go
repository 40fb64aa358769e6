package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultFeedURL is the bookstore's product feed export.
const DefaultFeedURL = "https://sklep.antyk.org.pl/eksport/HX/meta.xml"

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port          string
	Env           string
	JWTSecret     string
	JWTTTL        time.Duration
	PublicBaseURL string
	CORSHosts     []string

	DB     DatabaseConfig
	Redis  RedisConfig
	Feed   FeedConfig
	X      XConfig
	TikTok TikTokConfig
	S3     S3Config
	Worker WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// FeedConfig points the sync job at the external product feed.
type FeedConfig struct {
	URL     string
	Timeout time.Duration
}

// XConfig contains credentials for posting to X.
type XConfig struct {
	BaseURL        string
	AccessToken    string
	PostsPerMinute int
}

// TikTokConfig contains the TikTok app credentials.
type TikTokConfig struct {
	BaseURL      string
	ClientKey    string
	ClientSecret string
}

// S3Config contains object storage configuration for book images.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	SyncInterval        time.Duration
	AutoPublishInterval time.Duration
	SyncLockTTL         time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first.
func Load() (*Config, error) {
	// Missing .env is fine; production relies on real environment variables.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.PublicBaseURL = getEnv("PUBLIC_BASE_URL", "http://localhost:8080")
	cfg.CORSHosts = getEnvList("CORS_ALLOWED_HOSTS", "localhost:3000,127.0.0.1:3000,localhost:5173")

	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	cfg.X = XConfig{
		BaseURL:        getEnv("X_BASE_URL", "https://api.twitter.com"),
		AccessToken:    getEnv("X_ACCESS_TOKEN", ""),
		PostsPerMinute: getEnvInt("X_POSTS_PER_MINUTE", 10),
	}

	cfg.TikTok = TikTokConfig{
		BaseURL:      getEnv("TIKTOK_BASE_URL", "https://open.tiktokapis.com"),
		ClientKey:    getEnv("TIKTOK_CLIENT_KEY", ""),
		ClientSecret: getEnv("TIKTOK_CLIENT_SECRET", ""),
	}

	cfg.S3 = S3Config{
		Region:          getEnv("S3_REGION", "eu-central-1"),
		Bucket:          getEnv("S3_BUCKET", "book-images"),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	var err error
	cfg.Feed.URL = getEnv("FEED_URL", DefaultFeedURL)
	if cfg.Feed.Timeout, err = parseDurationEnv("FEED_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid FEED_TIMEOUT: %w", err)
	}
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", "24h"); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	if cfg.Worker.SyncInterval, err = parseDurationEnv("SYNC_INTERVAL", "6h"); err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	if cfg.Worker.AutoPublishInterval, err = parseDurationEnv("AUTO_PUBLISH_INTERVAL", "1m"); err != nil {
		return nil, fmt.Errorf("invalid AUTO_PUBLISH_INTERVAL: %w", err)
	}
	if cfg.Worker.SyncLockTTL, err = parseDurationEnv("SYNC_LOCK_TTL", "10m"); err != nil {
		return nil, fmt.Errorf("invalid SYNC_LOCK_TTL: %w", err)
	}

	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvList splits a comma-separated environment variable, dropping blanks.
func getEnvList(key, def string) []string {
	var out []string
	for _, p := range strings.Split(getEnv(key, def), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
