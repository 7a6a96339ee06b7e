// Package delicious публикует ссылки во внешний сервис закладок
// (del.icio.us v1 API).
package delicious

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.del.icio.us"

// ErrRejected - сервис ответил, но не подтвердил добавление закладки.
var ErrRejected = errors.New("bookmark rejected")

// Bookmark - закладка для публикации.
type Bookmark struct {
	URL   string
	Title string
	Tags  []string
}

// Client - клиент API del.icio.us.
type Client struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
}

// NewClient creates a new client. Пустой baseURL означает DefaultBaseURL.
func NewClient(baseURL, user, password string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		user:     user,
		password: password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Add добавляет закладку. Успех - это HTTP 200 и <result code="done"/> в ответе.
func (c *Client) Add(ctx context.Context, b Bookmark) error {
	q := url.Values{
		"url":         {b.URL},
		"description": {b.Title},
		"tags":        {strings.Join(b.Tags, " ")},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/posts/add?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.user, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("posts/add: unexpected status %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `<result code="done"`) {
		return fmt.Errorf("posts/add: %w: %s", ErrRejected, strings.TrimSpace(string(body)))
	}
	return nil
}
