package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/book_api/internal/models"
)

// BookRepository handles data access for catalog books.
type BookRepository struct {
	db *sqlx.DB
}

// NewBookRepository creates a new BookRepository.
func NewBookRepository(db *sqlx.DB) *BookRepository {
	return &BookRepository{db: db}
}

// List returns every book, newest first.
func (r *BookRepository) List(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := r.db.SelectContext(ctx, &books, `SELECT * FROM books ORDER BY created_at DESC`); err != nil {
		return nil, err
	}
	return books, nil
}

// CountUnpublished returns the number of books not yet posted.
func (r *BookRepository) CountUnpublished(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM books WHERE published = false`)
	return n, err
}

// GetByID returns a book by primary key, or sql.ErrNoRows.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	var b models.Book
	if err := r.db.GetContext(ctx, &b, `SELECT * FROM books WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByCode returns a book by its shop code, or sql.ErrNoRows.
func (r *BookRepository) GetByCode(ctx context.Context, code string) (*models.Book, error) {
	var b models.Book
	err := r.db.GetContext(ctx, &b, `SELECT * FROM books WHERE code = $1 ORDER BY created_at LIMIT 1`, code)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListForSync returns the id/code/title projection reconciliation needs.
func (r *BookRepository) ListForSync(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := r.db.SelectContext(ctx, &books, `SELECT id, code, title FROM books ORDER BY created_at`); err != nil {
		return nil, err
	}
	return books, nil
}

// ApplyFeedUpdate overwrites the feed-owned columns of one book.
// It returns sql.ErrNoRows when the id no longer exists.
func (r *BookRepository) ApplyFeedUpdate(ctx context.Context, id string, u models.BookFeedUpdate) error {
	const q = `
        UPDATE books
        SET code = $1, title = $2, image_url = $3, product_url = $4,
            stock_status = $5, sale_price = $6, updated_at = NOW()
        WHERE id = $7`

	res, err := r.db.ExecContext(ctx, q, u.Code, u.Title, u.ImageURL, u.ProductURL, u.StockStatus, u.SalePrice, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// UpdateSchedule stores the auto-publish setting. A disabled schedule clears the time.
func (r *BookRepository) UpdateSchedule(ctx context.Context, id string, s models.BookSchedule) error {
	at := s.ScheduledAt
	if !s.AutoPublishEnabled {
		at = nil
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE books
        SET auto_publish_enabled = $1, scheduled_publish_at = $2, updated_at = NOW()
        WHERE id = $3`, s.AutoPublishEnabled, at, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// MarkPublished flags a book as posted at the given time.
func (r *BookRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE books SET published = true, published_at = $1, updated_at = NOW()
        WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// ListDueForPublish returns unpublished books whose schedule has passed, earliest first.
func (r *BookRepository) ListDueForPublish(ctx context.Context, now time.Time) ([]models.Book, error) {
	const q = `
        SELECT * FROM books
        WHERE published = false
        AND auto_publish_enabled = true
        AND scheduled_publish_at <= $1
        ORDER BY scheduled_publish_at ASC`

	var books []models.Book
	if err := r.db.SelectContext(ctx, &books, q, now); err != nil {
		return nil, err
	}
	return books, nil
}

// ListMissingStorage returns books with a remote image not yet copied to object storage.
func (r *BookRepository) ListMissingStorage(ctx context.Context) ([]models.Book, error) {
	const q = `
        SELECT * FROM books
        WHERE image_url IS NOT NULL AND image_url <> ''
        AND storage_path IS NULL
        ORDER BY created_at`

	var books []models.Book
	if err := r.db.SelectContext(ctx, &books, q); err != nil {
		return nil, err
	}
	return books, nil
}

// SetStoragePath records where a book's image was stored.
func (r *BookRepository) SetStoragePath(ctx context.Context, id, path string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE books SET storage_path = $1, updated_at = NOW() WHERE id = $2`, path, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
