package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/book_api/internal/service"
	"github.com/GTDGit/book_api/internal/utils"
)

// CatalogSyncer runs one reconciliation.
type CatalogSyncer interface {
	Run(ctx context.Context, trigger string) (*service.SyncResult, error)
}

// SyncWorker periodically reconciles the catalog against the product feed.
type SyncWorker struct {
	syncer   CatalogSyncer
	interval time.Duration
}

// NewSyncWorker constructs a SyncWorker.
func NewSyncWorker(syncer CatalogSyncer, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		syncer:   syncer,
		interval: interval,
	}
}

// Start begins the periodic sync loop and listens for context cancellation.
// A zero interval disables the worker.
func (w *SyncWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		log.Info().Msg("Sync worker disabled")
		return
	}
	log.Info().Dur("interval", w.interval).Msg("Starting sync worker")

	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Sync worker stopped")
			return
		}
	}
}

func (w *SyncWorker) run(ctx context.Context) {
	log.Info().Msg("Syncing catalog from product feed...")

	start := time.Now()
	res, err := w.syncer.Run(ctx, "schedule")
	if errors.Is(err, utils.ErrSyncInProgress) {
		log.Info().Msg("Catalog sync already running, skipping tick")
		return
	}
	if err != nil {
		ev := log.Error().Err(err)
		if res != nil {
			ev = ev.Int("updated", res.Updated).Int("unmatched", res.Unmatched).Int("failed", res.Failed)
		}
		ev.Msg("Failed to sync catalog")
		return
	}

	log.Info().
		Int("updated", res.Updated).
		Int("unmatched", res.Unmatched).
		Int("failed", res.Failed).
		Dur("duration", time.Since(start)).
		Msg("Catalog sync completed")
}
