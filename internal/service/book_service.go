package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/GTDGit/book_api/internal/models"
	"github.com/GTDGit/book_api/internal/utils"
)

// BookCatalog is the slice of the book store the dashboard reads and edits.
type BookCatalog interface {
	List(ctx context.Context) ([]models.Book, error)
	CountUnpublished(ctx context.Context) (int, error)
	GetByCode(ctx context.Context, code string) (*models.Book, error)
	UpdateSchedule(ctx context.Context, id string, s models.BookSchedule) error
}

// BookList is the dashboard listing.
type BookList struct {
	Books            []models.Book `json:"books"`
	Total            int           `json:"total"`
	UnpublishedCount int           `json:"unpublishedCount"`
}

// BookService serves catalog reads and schedule edits.
type BookService struct {
	books BookCatalog
}

// NewBookService constructs a BookService.
func NewBookService(books BookCatalog) *BookService {
	return &BookService{books: books}
}

// List returns all books, newest first, with the unpublished count.
func (s *BookService) List(ctx context.Context) (*BookList, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	unpublished, err := s.books.CountUnpublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("count unpublished: %w", err)
	}
	if books == nil {
		books = []models.Book{}
	}
	return &BookList{Books: books, Total: len(books), UnpublishedCount: unpublished}, nil
}

// Schedule stores a book's auto-publish setting. Disabling, or enabling
// without a time, clears the scheduled time.
func (s *BookService) Schedule(ctx context.Context, id string, sch models.BookSchedule) error {
	if !sch.AutoPublishEnabled {
		sch.ScheduledAt = nil
	}
	err := s.books.UpdateSchedule(ctx, id, sch)
	if errors.Is(err, sql.ErrNoRows) {
		return utils.ErrBookNotFound
	}
	return err
}

// ResolveShortLink returns the shop URL behind a short-link code.
func (s *BookService) ResolveShortLink(ctx context.Context, code string) (string, error) {
	book, err := s.books.GetByCode(ctx, code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", utils.ErrBookNotFound
	}
	if err != nil {
		return "", err
	}
	if book.ProductURL == nil || *book.ProductURL == "" {
		return "", utils.ErrBookNotFound
	}
	return *book.ProductURL, nil
}
