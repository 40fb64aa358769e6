package xapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req createPostRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Text)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"123","text":"hello"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, AccessToken: "tok", PostsPerMinute: 600})
	assert.True(t, c.Configured())

	post, err := c.CreatePost(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "123", post.ID)
}

func TestCreatePost_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, "rate limited"},
		{"forbidden with detail", http.StatusForbidden, `{"title":"Forbidden","detail":"duplicate content"}`, "duplicate content"},
		{"errors array", http.StatusBadRequest, `{"errors":[{"message":"text too long"}]}`, "text too long"},
		{"ok without data", http.StatusOK, `{}`, "unexpected response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL, AccessToken: "tok", PostsPerMinute: 600})
			_, err := c.CreatePost(context.Background(), "hello")
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCreatePost_ContextCancelledWhileWaiting(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:0", AccessToken: "tok", PostsPerMinute: 1})
	c.limiter.Allow() // consume the only token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CreatePost(ctx, "hello")
	assert.Error(t, err)
}
