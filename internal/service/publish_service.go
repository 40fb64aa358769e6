package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/book_api/internal/models"
	"github.com/GTDGit/book_api/internal/sse"
	"github.com/GTDGit/book_api/internal/utils"
	"github.com/GTDGit/book_api/pkg/xapi"
)

const channelX = "x"

// PublishStore is the slice of the book store publishing needs.
type PublishStore interface {
	GetByID(ctx context.Context, id string) (*models.Book, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
	ListDueForPublish(ctx context.Context, now time.Time) ([]models.Book, error)
}

// PostPublisher creates a social post.
type PostPublisher interface {
	CreatePost(ctx context.Context, text string) (*xapi.Post, error)
}

// PublishOutcome is the result for one book.
type PublishOutcome struct {
	BookID  string `json:"bookId"`
	Title   string `json:"title,omitempty"`
	Success bool   `json:"success"`
	PostID  string `json:"postId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PublishSummary aggregates a publishing batch.
type PublishSummary struct {
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Results    []PublishOutcome `json:"results"`
}

// PublishService announces books on X.
type PublishService struct {
	books    PublishStore
	poster   PostPublisher
	baseURL  string
	notifier sse.ActivityNotifier
	now      func() time.Time
}

// NewPublishService constructs a PublishService. baseURL is used for short links.
// A nil poster leaves publishing disabled.
func NewPublishService(books PublishStore, poster PostPublisher, baseURL string) *PublishService {
	return &PublishService{
		books:    books,
		poster:   poster,
		baseURL:  baseURL,
		notifier: sse.NopNotifier{},
		now:      time.Now,
	}
}

// SetNotifier sets the activity notifier for dashboard events.
func (s *PublishService) SetNotifier(n sse.ActivityNotifier) {
	if n != nil {
		s.notifier = n
	}
}

// Publish posts each book once, in the given order. Duplicate ids are
// ignored. Per-book failures are recorded in the summary and never abort the
// batch; only a cancelled ctx stops it early.
func (s *PublishService) Publish(ctx context.Context, ids []string) (*PublishSummary, error) {
	if s.poster == nil {
		return nil, utils.ErrNotConfigured
	}
	summary := &PublishSummary{Results: []PublishOutcome{}}
	seen := make(map[string]bool, len(ids))

	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		if err := ctx.Err(); err != nil {
			return summary, err
		}

		out := s.publishOne(ctx, id)
		summary.Total++
		if out.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, out)
	}

	log.Info().
		Int("total", summary.Total).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Msg("Publish batch completed")
	return summary, nil
}

// PublishDue posts every book whose auto-publish time has passed.
func (s *PublishService) PublishDue(ctx context.Context) (*PublishSummary, error) {
	if s.poster == nil {
		return nil, utils.ErrNotConfigured
	}
	due, err := s.books.ListDueForPublish(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list scheduled books: %w", err)
	}
	if len(due) == 0 {
		return &PublishSummary{Results: []PublishOutcome{}}, nil
	}

	ids := make([]string, len(due))
	for i, b := range due {
		ids[i] = b.ID
	}
	log.Info().Int("due", len(ids)).Msg("Auto-publishing scheduled books")
	return s.Publish(ctx, ids)
}

func (s *PublishService) publishOne(ctx context.Context, id string) PublishOutcome {
	out := PublishOutcome{BookID: id}

	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = utils.ErrBookNotFound
		}
		out.Error = err.Error()
		log.Warn().Err(err).Str("book_id", id).Msg("Cannot load book for publishing")
		return out
	}
	out.Title = book.Title

	if book.Published {
		out.Error = utils.ErrAlreadyPublished.Error()
		return out
	}

	post, err := s.poster.CreatePost(ctx, ComposePost(book, s.baseURL))
	if err != nil {
		out.Error = err.Error()
		log.Error().Err(err).Str("book_id", id).Msg("Failed to publish book")
		s.notifier.NotifyPublished(book, channelX, err)
		return out
	}
	out.PostID = post.ID

	if err := s.books.MarkPublished(ctx, id, s.now()); err != nil {
		// The post is live; report success but surface the bookkeeping error.
		out.Error = fmt.Sprintf("posted but not marked published: %v", err)
		log.Error().Err(err).Str("book_id", id).Str("post_id", post.ID).Msg("Failed to mark book published")
	}

	out.Success = true
	s.notifier.NotifyPublished(book, channelX, nil)
	log.Info().Str("book_id", id).Str("post_id", post.ID).Msg("Book published")
	return out
}
