package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/book_api/internal/models"
	"github.com/GTDGit/book_api/internal/sse"
	"github.com/GTDGit/book_api/internal/utils"
	"github.com/GTDGit/book_api/pkg/bookfeed"
)

// maxSyncSamples bounds how many per-record outcomes a SyncResult keeps.
const maxSyncSamples = 20

// FeedFetcher downloads and parses the product feed.
type FeedFetcher interface {
	Fetch(ctx context.Context) ([]bookfeed.Item, error)
}

// CatalogStore is the slice of the book store reconciliation reads and writes.
type CatalogStore interface {
	ListForSync(ctx context.Context) ([]models.Book, error)
	ApplyFeedUpdate(ctx context.Context, id string, update models.BookFeedUpdate) error
}

// RunLock guarantees at most one reconciliation in flight across instances.
type RunLock interface {
	TryLock(ctx context.Context) (token string, ok bool, err error)
	Unlock(ctx context.Context, token string) error
}

// SyncRunRecorder keeps the audit trail of runs.
type SyncRunRecorder interface {
	Start(ctx context.Context, trigger string) (int64, error)
	Finish(ctx context.Context, run *models.SyncRun) error
}

// SyncSample describes what happened to one catalog record.
type SyncSample struct {
	BookID    string        `json:"bookId"`
	Title     string        `json:"title"`
	FeedID    string        `json:"feedId,omitempty"`
	FeedTitle string        `json:"feedTitle,omitempty"`
	Strategy  MatchStrategy `json:"strategy,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// SyncResult summarises a reconciliation run.
type SyncResult struct {
	FeedRecords    int           `json:"feedRecords"`
	CatalogRecords int           `json:"catalogRecords"`
	Updated        int           `json:"updated"`
	Unmatched      int           `json:"unmatched"`
	Failed         int           `json:"failed"`
	Samples        []SyncSample  `json:"samples,omitempty"`
	Duration       time.Duration `json:"-"`
}

// Stats returns the counters keyed the way dashboards display them.
func (r *SyncResult) Stats() map[string]int {
	return map[string]int{
		"feedRecords":    r.FeedRecords,
		"catalogRecords": r.CatalogRecords,
		"updated":        r.Updated,
		"unmatched":      r.Unmatched,
		"failed":         r.Failed,
	}
}

// SyncService reconciles the catalog against the product feed.
type SyncService struct {
	feed     FeedFetcher
	catalog  CatalogStore
	lock     RunLock
	runs     SyncRunRecorder
	notifier sse.ActivityNotifier
}

// NewSyncService constructs a SyncService. lock and runs may be nil.
func NewSyncService(feed FeedFetcher, catalog CatalogStore, lock RunLock, runs SyncRunRecorder) *SyncService {
	return &SyncService{
		feed:     feed,
		catalog:  catalog,
		lock:     lock,
		runs:     runs,
		notifier: sse.NopNotifier{},
	}
}

// SetNotifier sets the activity notifier for dashboard events.
func (s *SyncService) SetNotifier(n sse.ActivityNotifier) {
	if n != nil {
		s.notifier = n
	}
}

// Run performs one reconciliation. trigger labels the audit row ("manual",
// "schedule"). It returns ErrSyncInProgress when another run holds the lock.
// A feed or catalog listing failure aborts before any write; update failures
// are counted in Failed and never abort. If ctx ends mid-run the partial
// result is returned with the context error; rows already written stay.
func (s *SyncService) Run(ctx context.Context, trigger string) (*SyncResult, error) {
	if s.lock != nil {
		token, ok, err := s.lock.TryLock(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, utils.ErrSyncInProgress
		}
		defer func() {
			// Release even if ctx was cancelled mid-run.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.lock.Unlock(releaseCtx, token); err != nil {
				log.Warn().Err(err).Msg("failed to release sync lock")
			}
		}()
	}

	runID := s.startRun(ctx, trigger)
	start := time.Now()

	result, err := s.reconcile(ctx)
	if result != nil {
		result.Duration = time.Since(start)
	}
	s.finishRun(runID, result, err)

	if err != nil {
		s.notifier.NotifySyncFinished(nil, err)
		return result, err
	}
	s.notifier.NotifySyncFinished(result.Stats(), nil)
	return result, nil
}

func (s *SyncService) reconcile(ctx context.Context) (*SyncResult, error) {
	items, err := s.feed.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.catalog.ListForSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	matcher := NewTitleMatcher(items)
	result := &SyncResult{
		FeedRecords:    matcher.Len(),
		CatalogRecords: len(books),
	}

	log.Info().
		Int("feed_records", result.FeedRecords).
		Int("catalog_records", result.CatalogRecords).
		Msg("Reconciling catalog against feed")

	for _, book := range books {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		m, ok := matcher.Match(book.Title)
		if !ok {
			result.Unmatched++
			log.Debug().Str("book_id", book.ID).Str("title", book.Title).Msg("No feed match")
			result.sample(SyncSample{BookID: book.ID, Title: book.Title})
			continue
		}

		update := models.BookFeedUpdate{
			Code:        m.Item.ID,
			Title:       m.Item.Title,
			ImageURL:    m.Item.ImageLink,
			ProductURL:  m.Item.Link,
			StockStatus: m.Item.Availability,
			SalePrice:   m.Item.Price,
		}
		sample := SyncSample{
			BookID:    book.ID,
			Title:     book.Title,
			FeedID:    m.Item.ID,
			FeedTitle: m.Item.Title,
			Strategy:  m.Strategy,
		}

		if err := s.catalog.ApplyFeedUpdate(ctx, book.ID, update); err != nil {
			result.Failed++
			sample.Error = err.Error()
			result.sample(sample)
			log.Error().Err(err).Str("book_id", book.ID).Msg("Failed to apply feed update")
			continue
		}

		result.Updated++
		result.sample(sample)
		log.Debug().
			Str("book_id", book.ID).
			Str("feed_id", m.Item.ID).
			Str("strategy", string(m.Strategy)).
			Msg("Book synced")
	}

	log.Info().
		Int("updated", result.Updated).
		Int("unmatched", result.Unmatched).
		Int("failed", result.Failed).
		Msg("Catalog reconciliation completed")
	return result, nil
}

func (r *SyncResult) sample(s SyncSample) {
	if len(r.Samples) < maxSyncSamples {
		r.Samples = append(r.Samples, s)
	}
}

func (s *SyncService) startRun(ctx context.Context, trigger string) int64 {
	if s.runs == nil {
		return 0
	}
	id, err := s.runs.Start(ctx, trigger)
	if err != nil {
		log.Warn().Err(err).Msg("failed to record sync run start")
		return 0
	}
	return id
}

func (s *SyncService) finishRun(id int64, result *SyncResult, runErr error) {
	if s.runs == nil || id == 0 {
		return
	}

	run := &models.SyncRun{ID: id, Status: models.SyncRunSuccess}
	if result != nil {
		run.FeedRecords = result.FeedRecords
		run.CatalogRecords = result.CatalogRecords
		run.Updated = result.Updated
		run.Unmatched = result.Unmatched
		run.Failed = result.Failed
	}
	if runErr != nil {
		msg := runErr.Error()
		run.Status = models.SyncRunFailed
		run.Error = &msg
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.runs.Finish(ctx, run); err != nil {
		log.Warn().Err(err).Int64("run_id", id).Msg("failed to record sync run result")
	}
}
