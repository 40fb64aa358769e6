package xapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the X API host.
const DefaultBaseURL = "https://api.twitter.com"

// MaxPostLength is the character limit of a post.
const MaxPostLength = 280

// ErrRateLimited is returned when X answers 429.
var ErrRateLimited = errors.New("x api rate limited")

// Config holds the credentials and pacing for the client.
type Config struct {
	BaseURL        string
	AccessToken    string
	PostsPerMinute int
}

// Client posts to the X v2 API with a user-context bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	configured bool
}

// Post is a created post.
type Post struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type createPostRequest struct {
	Text string `json:"text"`
}

type createPostResponse struct {
	Data   *Post      `json:"data"`
	Title  string     `json:"title"`
	Detail string     `json:"detail"`
	Errors []apiError `json:"errors"`
}

type apiError struct {
	Message string `json:"message"`
}

// NewClient constructs a client. Posts are paced to cfg.PostsPerMinute.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PostsPerMinute <= 0 {
		cfg.PostsPerMinute = 10
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
	hc := oauth2.NewClient(context.Background(), ts)
	hc.Timeout = 30 * time.Second

	return &Client{
		httpClient: hc,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.PostsPerMinute)), 1),
		configured: cfg.AccessToken != "",
	}
}

// Configured reports whether an access token was supplied.
func (c *Client) Configured() bool {
	return c.configured
}

// CreatePost publishes text and returns the created post. It blocks until the
// pacing limiter admits the request or ctx ends.
func (c *Client) CreatePost(ctx context.Context, text string) (*Post, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for post slot: %w", err)
	}

	payload, err := json.Marshal(createPostRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.Debug().Int("status_code", resp.StatusCode).Msg("[X] create post response")

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}

	var out createPostResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("failed to decode response (HTTP %d): %w", resp.StatusCode, err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || out.Data == nil {
		return nil, fmt.Errorf("x api error (HTTP %d): %s", resp.StatusCode, out.message())
	}
	return out.Data, nil
}

func (r *createPostResponse) message() string {
	if r.Detail != "" {
		return r.Detail
	}
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	if r.Title != "" {
		return r.Title
	}
	return "unexpected response"
}
