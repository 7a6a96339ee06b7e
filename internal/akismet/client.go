// Package akismet - клиент сервиса проверки комментариев на спам.
package akismet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/UkralStul/weblog-service/internal/moderation"
)

// Client вызывает метод comment-check Akismet API.
type Client struct {
	apiKey     string
	blogURL    string
	endpoint   string
	httpClient *http.Client
}

type Option func(*Client)

// WithEndpoint переопределяет адрес comment-check (для тестов).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient создает клиент Akismet для блога blogURL.
func NewClient(apiKey, blogURL string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		blogURL:  blogURL,
		endpoint: fmt.Sprintf("https://%s.rest.akismet.com/1.1/comment-check", apiKey),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsSpam реализует moderation.SpamChecker.
func (c *Client) IsSpam(ctx context.Context, comment moderation.Comment) (bool, error) {
	form := url.Values{
		"blog":                 {c.blogURL},
		"user_ip":              {comment.IPAddress},
		"user_agent":           {comment.UserAgent},
		"referrer":             {comment.Referrer},
		"permalink":            {comment.Permalink},
		"comment_type":         {"comment"},
		"comment_author":       {comment.AuthorName},
		"comment_author_email": {comment.AuthorEmail},
		"comment_author_url":   {comment.AuthorURL},
		"comment_content":      {comment.Body},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("comment-check: unexpected status %d", resp.StatusCode)
	}

	switch strings.TrimSpace(string(body)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		// Akismet отвечает "invalid" и подсказкой в заголовке при неверном ключе
		return false, fmt.Errorf("comment-check: unexpected answer %q (%s)",
			strings.TrimSpace(string(body)), resp.Header.Get("X-akismet-debug-help"))
	}
}

var _ moderation.SpamChecker = (*Client)(nil)
