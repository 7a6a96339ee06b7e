package akismet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UkralStul/weblog-service/internal/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_IsSpam(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		got = r.Header
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "http://example.com", r.PostForm.Get("blog"))
		assert.Equal(t, "comment", r.PostForm.Get("comment_type"))
		if r.PostForm.Get("comment_content") == "buy pills" {
			_, _ = w.Write([]byte("true"))
			return
		}
		_, _ = w.Write([]byte("false"))
	}))
	defer srv.Close()

	c := NewClient("key", "http://example.com", WithEndpoint(srv.URL))

	spam, err := c.IsSpam(context.Background(), moderation.Comment{Body: "buy pills", IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.True(t, spam)
	assert.Equal(t, "application/x-www-form-urlencoded", got.Get("Content-Type"))

	spam, err = c.IsSpam(context.Background(), moderation.Comment{Body: "nice post"})
	require.NoError(t, err)
	assert.False(t, spam)
}

func TestClient_InvalidAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-akismet-debug-help", "Empty \"blog\" value")
		_, _ = w.Write([]byte("invalid"))
	}))
	defer srv.Close()

	_, err := NewClient("key", "", WithEndpoint(srv.URL)).IsSpam(context.Background(), moderation.Comment{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("false"))
	}))
	defer srv.Close()

	c := NewClient("key", "http://example.com", WithEndpoint(srv.URL), WithTimeout(20*time.Millisecond))
	_, err := c.IsSpam(context.Background(), moderation.Comment{})
	assert.Error(t, err)
}
