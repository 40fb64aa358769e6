package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/book_api/internal/models"
)

func newMockRepo(t *testing.T) (*BookRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewBookRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestBookRepository_ListForSync(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, code, title FROM books ORDER BY created_at`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "title"}).
			AddRow("b-1", "", "Pan Tadeusz").
			AddRow("b-2", "X9", "Lalka"))

	books, err := repo.ListForSync(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Pan Tadeusz", books[0].Title)
	assert.Equal(t, "X9", books[1].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_ApplyFeedUpdate(t *testing.T) {
	upd := models.BookFeedUpdate{
		Code:        "A1",
		Title:       "Pan Tadeusz - wydanie ilustrowane",
		ImageURL:    "https://shop/img/a1.jpg",
		ProductURL:  "https://shop/p/a1",
		StockStatus: models.StockInStock,
		SalePrice:   decimal.RequireFromString("39.90"),
	}

	t.Run("updates one row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE books")).
			WithArgs(upd.Code, upd.Title, upd.ImageURL, upd.ProductURL, upd.StockStatus, sqlmock.AnyArg(), "b-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.ApplyFeedUpdate(context.Background(), "b-1", upd))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing id", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE books")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.ApplyFeedUpdate(context.Background(), "gone", upd)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestBookRepository_UpdateScheduleClearsTimeWhenDisabled(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE books")).
		WithArgs(false, nil, "b-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateSchedule(context.Background(), "b-1", models.BookSchedule{AutoPublishEnabled: false, ScheduledAt: &at})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_GetByCodeNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM books WHERE code = $1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByCode(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBookRepository_ListDueForPublish(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("AND scheduled_publish_at <= $1")).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "auto_publish_enabled"}).
			AddRow("b-3", "Quo vadis", true))

	books, err := repo.ListDueForPublish(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.True(t, books[0].AutoPublishEnabled)
}
