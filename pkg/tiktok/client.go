package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the TikTok Open API host.
	DefaultBaseURL = "https://open.tiktokapis.com"

	// DefaultTokenLifetime applies when the token response omits expires_in.
	DefaultTokenLifetime = 24 * time.Hour

	maxTitleLength = 150
	privacyLevel   = "SELF_ONLY"
	sourcePullURL  = "PULL_FROM_URL"
)

var (
	// ErrInvalidTokenResponse means TikTok answered without a usable grant.
	ErrInvalidTokenResponse = errors.New("tiktok token response missing access_token or open_id")
	// ErrPublishRejected means the content-posting API returned an error code.
	ErrPublishRejected = errors.New("tiktok publish rejected")
)

// Config holds the TikTok app credentials.
type Config struct {
	BaseURL      string
	ClientKey    string
	ClientSecret string
}

// Client talks to TikTok's OAuth and content-posting endpoints.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientKey    string
	clientSecret string
	now          func() time.Time
}

// NewClient constructs a TikTok client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		clientKey:    cfg.ClientKey,
		clientSecret: cfg.ClientSecret,
		now:          time.Now,
	}
}

// Configured reports whether app credentials were supplied.
func (c *Client) Configured() bool {
	return c.clientKey != "" && c.clientSecret != ""
}

func (c *Client) tokenURL() string {
	return c.baseURL + "/v2/oauth/token/"
}

// ExchangeCode trades an authorization code and its PKCE verifier for a grant.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*Token, error) {
	cfg := &oauth2.Config{
		ClientID:     c.clientKey,
		ClientSecret: c.clientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.tokenURL(),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := cfg.Exchange(ctx, code,
		oauth2.SetAuthURLParam("client_key", c.clientKey),
		oauth2.VerifierOption(codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	out := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		OpenID:       extraString(tok, "open_id"),
		Scope:        extraString(tok, "scope"),
		ExpiresAt:    tok.Expiry,
	}
	if out.ExpiresAt.IsZero() {
		out.ExpiresAt = c.now().Add(DefaultTokenLifetime)
	}
	if out.AccessToken == "" || out.OpenID == "" {
		return nil, ErrInvalidTokenResponse
	}
	return out, nil
}

// RefreshToken renews an expired grant. TikTok may rotate the refresh token;
// when it does not, the old one is kept.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{
		"client_key":    {c.clientKey},
		"client_secret": {c.clientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tr tokenResponse
	status, err := c.do(req, &tr)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if tr.Error != "" {
		return nil, fmt.Errorf("refresh token: %s: %s", tr.Error, tr.ErrorDescription)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("refresh token: HTTP %d", status)
	}
	if tr.AccessToken == "" {
		return nil, ErrInvalidTokenResponse
	}

	out := &Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		OpenID:       tr.OpenID,
		Scope:        tr.Scope,
		ExpiresAt:    c.expiry(tr.ExpiresIn),
	}
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return out, nil
}

// InitVideoPost asks TikTok to pull a video from videoURL and returns the publish id.
func (c *Client) InitVideoPost(ctx context.Context, accessToken, title, videoURL string) (string, error) {
	enabled := false
	body := videoInitRequest{
		PostInfo: postInfo{
			Title:          truncateTitle(title),
			PrivacyLevel:   privacyLevel,
			DisableDuet:    &enabled,
			DisableComment: &enabled,
			DisableStitch:  &enabled,
		},
		SourceInfo: sourceInfo{
			Source:   sourcePullURL,
			VideoURL: videoURL,
		},
	}
	return c.initPost(ctx, "/v2/post/publish/video/init/", accessToken, body)
}

// InitPhotoPost publishes a single-photo post pulled from photoURL.
func (c *Client) InitPhotoPost(ctx context.Context, accessToken, title, photoURL string) (string, error) {
	cover := 0
	body := photoInitRequest{
		PostInfo: postInfo{
			Title:        truncateTitle(title),
			PrivacyLevel: privacyLevel,
		},
		SourceInfo: sourceInfo{
			Source:          sourcePullURL,
			PhotoCoverIndex: &cover,
			PhotoImages:     []string{photoURL},
		},
		PostMode:  "DIRECT_POST",
		MediaType: "PHOTO",
	}
	return c.initPost(ctx, "/v2/post/publish/content/init/", accessToken, body)
}

func (c *Client) initPost(ctx context.Context, path, accessToken string, body any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	var ir initResponse
	status, err := c.do(req, &ir)
	if err != nil {
		return "", err
	}
	if code := ir.Error.Code; code != "" && code != "ok" {
		return "", fmt.Errorf("%w: %s: %s (log_id %s)", ErrPublishRejected, code, ir.Error.Message, ir.Error.LogID)
	}
	if status < 200 || status > 299 || ir.Data.PublishID == "" {
		return "", fmt.Errorf("%w: HTTP %d without publish id", ErrPublishRejected, status)
	}
	return ir.Data.PublishID, nil
}

// do executes req and decodes a JSON body into result regardless of status,
// since TikTok reports most failures inside the body.
func (c *Client) do(req *http.Request, result any) (int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	log.Debug().
		Str("path", req.URL.Path).
		Int("status_code", resp.StatusCode).
		Msg("[TIKTOK] response")

	if err := json.Unmarshal(body, result); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}

func (c *Client) expiry(expiresIn int64) time.Time {
	if expiresIn <= 0 {
		return c.now().Add(DefaultTokenLifetime)
	}
	return c.now().Add(time.Duration(expiresIn) * time.Second)
}

func extraString(tok *oauth2.Token, key string) string {
	s, _ := tok.Extra(key).(string)
	return s
}

func truncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= maxTitleLength {
		return s
	}
	return string([]rune(s)[:maxTitleLength])
}
