package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/book_api/internal/config"
	"github.com/GTDGit/book_api/internal/models"
	"github.com/GTDGit/book_api/internal/utils"
)

const (
	defaultImageContentType = "image/jpeg"
	defaultImageExt         = "jpg"
	maxImageSize            = 20 << 20
)

// ObjectPutter is the subset of the S3 API used for image uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageStore is the slice of the book store image migration needs.
type ImageStore interface {
	ListMissingStorage(ctx context.Context) ([]models.Book, error)
	SetStoragePath(ctx context.Context, id, path string) error
}

// ImageMigrationResult summarises a migration batch.
type ImageMigrationResult struct {
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// ImageService copies remote book covers into object storage.
type ImageService struct {
	books      ImageStore
	s3         ObjectPutter
	bucket     string
	httpClient *http.Client
}

// NewS3Client builds an S3 client from configuration. Static credentials are
// used when present, otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg *config.S3Config) (*s3.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("S3 config is nil")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewImageService constructs an ImageService writing to bucket.
func NewImageService(books ImageStore, client ObjectPutter, bucket string) *ImageService {
	return &ImageService{
		books:      books,
		s3:         client,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// MigrateAll copies every book image that has no storage path yet.
// A failing book is counted and reported; the batch continues.
func (s *ImageService) MigrateAll(ctx context.Context) (*ImageMigrationResult, error) {
	if s.s3 == nil {
		return nil, utils.ErrNotConfigured
	}
	books, err := s.books.ListMissingStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books without stored image: %w", err)
	}

	res := &ImageMigrationResult{Total: len(books), Errors: []string{}}
	for _, b := range books {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if b.ImageURL == nil || *b.ImageURL == "" {
			continue
		}

		key, err := s.migrateOne(ctx, b.ID, *b.ImageURL)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", b.ID, err))
			log.Error().Err(err).Str("book_id", b.ID).Msg("Failed to migrate book image")
			continue
		}
		res.Succeeded++
		log.Debug().Str("book_id", b.ID).Str("key", key).Msg("Book image stored")
	}

	log.Info().
		Int("total", res.Total).
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Msg("Image migration completed")
	return res, nil
}

func (s *ImageService) migrateOne(ctx context.Context, bookID, imageURL string) (string, error) {
	data, contentType, err := s.download(ctx, imageURL)
	if err != nil {
		return "", err
	}

	key := ImageKey(bookID, imageURL)
	_, err = s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}

	if err := s.books.SetStoragePath(ctx, bookID, key); err != nil {
		return "", fmt.Errorf("save storage path: %w", err)
	}
	return key, nil
}

func (s *ImageService) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("download: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = defaultImageContentType
	}
	return data, ct, nil
}

// ImageKey returns the object key for a book image: books/{id}.{ext}, with the
// extension taken from the URL's last path segment.
func ImageKey(bookID, imageURL string) string {
	ext := defaultImageExt
	if u, err := url.Parse(imageURL); err == nil {
		seg := path.Base(u.Path)
		if i := strings.LastIndex(seg, "."); i >= 0 && i < len(seg)-1 {
			ext = strings.ToLower(seg[i+1:])
		}
	}
	return fmt.Sprintf("books/%s.%s", bookID, ext)
}
