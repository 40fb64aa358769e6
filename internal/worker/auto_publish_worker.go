package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/book_api/internal/service"
)

// DuePublisher posts books whose schedule has passed.
type DuePublisher interface {
	PublishDue(ctx context.Context) (*service.PublishSummary, error)
}

// AutoPublishWorker publishes scheduled books.
type AutoPublishWorker struct {
	publisher DuePublisher
	interval  time.Duration
}

// NewAutoPublishWorker creates a new AutoPublishWorker.
func NewAutoPublishWorker(publisher DuePublisher, interval time.Duration) *AutoPublishWorker {
	return &AutoPublishWorker{publisher: publisher, interval: interval}
}

// Start begins the worker loop. A zero interval disables the worker.
func (w *AutoPublishWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		log.Info().Msg("Auto-publish worker disabled")
		return
	}
	log.Info().Dur("interval", w.interval).Msg("Starting auto-publish worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Auto-publish worker stopped")
			return
		}
	}
}

func (w *AutoPublishWorker) run(ctx context.Context) {
	sum, err := w.publisher.PublishDue(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Auto-publish run failed")
		return
	}
	if sum.Total == 0 {
		return
	}

	log.Info().
		Int("total", sum.Total).
		Int("successful", sum.Successful).
		Int("failed", sum.Failed).
		Msg("Auto-publish run completed")
}
