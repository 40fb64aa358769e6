package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	appconfig "github.com/GTDGit/book_api/internal/config"
)

// Connect establishes a PostgreSQL connection using the provided configuration.
// Opening and pinging are retried with exponential backoff so the API can start
// alongside a database container that is still booting.
func Connect(cfg *appconfig.DatabaseConfig) (*sqlx.DB, error) {
	if cfg == nil {
		return nil, errors.New("nil database config")
	}

	const (
		maxAttempts = 5
		baseDelay   = 500 * time.Millisecond
	)

	dsn := DSN(cfg)

	var db *sqlx.DB
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		db, lastErr = sqlx.Open("postgres", dsn)
		if lastErr != nil {
			sleepWithBackoff(attempt, baseDelay)
			continue
		}

		setPool(db.DB)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		lastErr = db.PingContext(ctx)
		cancel()
		if lastErr == nil {
			return db, nil
		}

		_ = db.Close()
		sleepWithBackoff(attempt, baseDelay)
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxAttempts, lastErr)
}

// DSN builds the postgres connection URL for cfg.
func DSN(cfg *appconfig.DatabaseConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password), cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)
}

// Migrate applies every pending migration found in dir (e.g. "file://migrations").
// An already up-to-date schema is not an error.
func Migrate(db *sqlx.DB, dir string) error {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}

// setPool configures the connection pool for the database.
func setPool(db *sql.DB) {
	db.SetMaxOpenConns(15)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}

// sleepWithBackoff sleeps base * 2^(attempt-1), capped to 5s.
func sleepWithBackoff(attempt int, base time.Duration) {
	d := base << (attempt - 1)
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	time.Sleep(d)
}
