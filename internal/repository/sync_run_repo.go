package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/book_api/internal/models"
)

// SyncRunRepository persists the reconciliation audit trail.
type SyncRunRepository struct {
	db *sqlx.DB
}

func NewSyncRunRepository(db *sqlx.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Start inserts a running row and returns its id.
func (r *SyncRunRepository) Start(ctx context.Context, trigger string) (int64, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO sync_runs (trigger, status, started_at)
		VALUES ($1, $2, NOW())
		RETURNING id
	`, trigger, models.SyncRunRunning).Scan(&id)
	return id, err
}

// Finish stores the final status and counters of a run.
func (r *SyncRunRepository) Finish(ctx context.Context, run *models.SyncRun) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE sync_runs
		SET status = :status, feed_records = :feed_records, catalog_records = :catalog_records,
		    updated = :updated, unmatched = :unmatched, failed = :failed,
		    error = :error, finished_at = NOW()
		WHERE id = :id
	`, run)
	return err
}

// ListRecent returns the latest runs, newest first.
func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []models.SyncRun
	err := r.db.SelectContext(ctx, &runs, `SELECT * FROM sync_runs ORDER BY started_at DESC LIMIT $1`, limit)
	return runs, err
}
