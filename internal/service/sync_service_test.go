package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/book_api/internal/models"
	"github.com/GTDGit/book_api/internal/utils"
	"github.com/GTDGit/book_api/pkg/bookfeed"
)

type fakeFeed struct {
	items []bookfeed.Item
	err   error
	calls int
}

func (f *fakeFeed) Fetch(ctx context.Context) ([]bookfeed.Item, error) {
	f.calls++
	return f.items, f.err
}

type fakeCatalog struct {
	mu      sync.Mutex
	books   []models.Book
	listErr error
	failIDs map[string]bool
	updates map[string]models.BookFeedUpdate
	listed  bool
}

func (c *fakeCatalog) ListForSync(ctx context.Context) ([]models.Book, error) {
	c.listed = true
	return c.books, c.listErr
}

func (c *fakeCatalog) ApplyFeedUpdate(ctx context.Context, id string, u models.BookFeedUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failIDs[id] {
		return errors.New("connection reset")
	}
	if c.updates == nil {
		c.updates = map[string]models.BookFeedUpdate{}
	}
	c.updates[id] = u
	return nil
}

type fakeLock struct {
	busy     bool
	released []string
}

func (l *fakeLock) TryLock(ctx context.Context) (string, bool, error) {
	if l.busy {
		return "", false, nil
	}
	return "tok", true, nil
}

func (l *fakeLock) Unlock(ctx context.Context, token string) error {
	l.released = append(l.released, token)
	return nil
}

type fakeRuns struct {
	finished []*models.SyncRun
}

func (r *fakeRuns) Start(ctx context.Context, trigger string) (int64, error) { return 42, nil }

func (r *fakeRuns) Finish(ctx context.Context, run *models.SyncRun) error {
	r.finished = append(r.finished, run)
	return nil
}

func TestSyncService_Run(t *testing.T) {
	feed := &fakeFeed{items: []bookfeed.Item{
		{ID: "A1", Title: "Pan Tadeusz", Link: "https://shop/p/a1", ImageLink: "https://shop/i/a1.jpg", Availability: "in stock", Price: decimal.RequireFromString("39.90")},
		{ID: "B2", Title: "Lalka", Availability: "out of stock", Price: decimal.RequireFromString("25")},
	}}
	catalog := &fakeCatalog{books: []models.Book{
		{ID: "b-1", Title: "Pan Tadeusz - wydanie ilustrowane"},
		{ID: "b-2", Title: "Zbrodnia i kara"},
		{ID: "b-3", Title: "LALKA"},
	}}
	lock := &fakeLock{}
	runs := &fakeRuns{}

	res, err := NewSyncService(feed, catalog, lock, runs).Run(context.Background(), "manual")
	require.NoError(t, err)

	assert.Equal(t, 2, res.FeedRecords)
	assert.Equal(t, 3, res.CatalogRecords)
	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, 1, res.Unmatched)
	assert.Equal(t, 0, res.Failed)

	upd := catalog.updates["b-1"]
	assert.Equal(t, "A1", upd.Code)
	assert.Equal(t, "Pan Tadeusz", upd.Title)
	assert.Equal(t, "https://shop/p/a1", upd.ProductURL)
	assert.Equal(t, "in stock", upd.StockStatus)
	assert.True(t, decimal.RequireFromString("39.9").Equal(upd.SalePrice))

	_, touched := catalog.updates["b-2"]
	assert.False(t, touched, "unmatched record keeps its values")
	assert.Equal(t, "B2", catalog.updates["b-3"].Code)

	assert.Equal(t, []string{"tok"}, lock.released)
	require.Len(t, runs.finished, 1)
	assert.Equal(t, models.SyncRunSuccess, runs.finished[0].Status)
	assert.Equal(t, 2, runs.finished[0].Updated)
}

func TestSyncService_FeedFailureAbortsBeforeWrites(t *testing.T) {
	feed := &fakeFeed{err: fmt.Errorf("%w: HTTP 500", bookfeed.ErrFetchFailed)}
	catalog := &fakeCatalog{books: []models.Book{{ID: "b-1", Title: "Lalka"}}}
	runs := &fakeRuns{}

	res, err := NewSyncService(feed, catalog, nil, runs).Run(context.Background(), "manual")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, bookfeed.ErrFetchFailed)
	assert.ErrorContains(t, err, "HTTP 500")
	assert.False(t, catalog.listed)
	assert.Empty(t, catalog.updates)

	require.Len(t, runs.finished, 1)
	assert.Equal(t, models.SyncRunFailed, runs.finished[0].Status)
	require.NotNil(t, runs.finished[0].Error)
}

func TestSyncService_CatalogListFailure(t *testing.T) {
	feed := &fakeFeed{items: []bookfeed.Item{{ID: "A1", Title: "Lalka"}}}
	catalog := &fakeCatalog{listErr: errors.New("db down")}

	_, err := NewSyncService(feed, catalog, nil, nil).Run(context.Background(), "manual")
	assert.ErrorContains(t, err, "list catalog")
	assert.Empty(t, catalog.updates)
}

func TestSyncService_UpdateFailuresAreSoft(t *testing.T) {
	feed := &fakeFeed{items: []bookfeed.Item{
		{ID: "A1", Title: "Lalka"},
		{ID: "A2", Title: "Quo vadis"},
	}}
	catalog := &fakeCatalog{
		books: []models.Book{
			{ID: "b-1", Title: "Lalka"},
			{ID: "b-2", Title: "Quo vadis"},
		},
		failIDs: map[string]bool{"b-1": true},
	}

	res, err := NewSyncService(feed, catalog, nil, nil).Run(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Unmatched)
	assert.Contains(t, catalog.updates, "b-2")

	require.Len(t, res.Samples, 2)
	assert.Equal(t, "connection reset", res.Samples[0].Error)
}

type cancellingCatalog struct {
	fakeCatalog
	cancel context.CancelFunc
}

func (c *cancellingCatalog) ApplyFeedUpdate(ctx context.Context, id string, u models.BookFeedUpdate) error {
	err := c.fakeCatalog.ApplyFeedUpdate(ctx, id, u)
	c.cancel()
	return err
}

func TestSyncService_CancelledMidRunKeepsPartialResult(t *testing.T) {
	feed := &fakeFeed{items: []bookfeed.Item{
		{ID: "A1", Title: "Lalka"},
		{ID: "A2", Title: "Quo vadis"},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	catalog := &cancellingCatalog{
		fakeCatalog: fakeCatalog{books: []models.Book{
			{ID: "b-1", Title: "Lalka"},
			{ID: "b-2", Title: "Quo vadis"},
		}},
		cancel: cancel,
	}
	lock := &fakeLock{}
	runs := &fakeRuns{}

	res, err := NewSyncService(feed, catalog, lock, runs).Run(ctx, "schedule")
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 2, res.CatalogRecords)
	assert.Len(t, catalog.updates, 1)

	assert.Equal(t, []string{"tok"}, lock.released)
	require.Len(t, runs.finished, 1)
	assert.Equal(t, models.SyncRunFailed, runs.finished[0].Status)
	assert.Equal(t, 1, runs.finished[0].Updated)
}

func TestSyncService_SingleFlight(t *testing.T) {
	feed := &fakeFeed{}
	lock := &fakeLock{busy: true}

	_, err := NewSyncService(feed, &fakeCatalog{}, lock, nil).Run(context.Background(), "schedule")
	assert.ErrorIs(t, err, utils.ErrSyncInProgress)
	assert.Equal(t, 0, feed.calls)
	assert.Empty(t, lock.released)
}

func TestSyncResult_SamplesAreBounded(t *testing.T) {
	r := &SyncResult{}
	for i := 0; i < maxSyncSamples+5; i++ {
		r.sample(SyncSample{BookID: fmt.Sprint(i)})
	}
	assert.Len(t, r.Samples, maxSyncSamples)
}
