package bookfeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrFetchFailed wraps every transport or status failure of Fetch.
var ErrFetchFailed = errors.New("feed fetch failed")

// maxFeedSize bounds the feed body; a larger feed is rejected, not truncated.
const maxFeedSize = 64 << 20

// Client downloads and parses the product feed.
type Client struct {
	httpClient *http.Client
	url        string
	maxBytes   int64
}

// NewClient constructs a feed client for url. A zero timeout means 60s.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		maxBytes:   maxFeedSize,
	}
}

// Fetch performs one GET of the feed and returns its items.
// Any failure yields no items and an error wrapping ErrFetchFailed.
func (c *Client) Fetch(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: HTTP %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetchFailed, err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrFetchFailed, c.maxBytes)
	}

	items := Parse(body)
	log.Info().
		Str("url", c.url).
		Int("bytes", len(body)).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("feed fetched")
	return items, nil
}
