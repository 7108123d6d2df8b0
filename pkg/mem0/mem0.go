package mem0

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
)

const (
	defaultBaseURL       = "https://api.mem0.ai"
	addMemoriesPath      = "/v1/memories/"
	searchMemoriesPath   = "/v1/memories/search/"
	maxResponseSizeBytes = 2 << 20
)

var ErrEmptyUserID = errors.New("user id is empty")

// Config configures the Mem0 REST client.
type Config struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.mem0.ai"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// ClientOption customizes Client.
type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Record is one role/text fragment persisted to the memory service.
type Record struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SearchResult is one semantically related memory returned by Search, in
// service order.
type SearchResult struct {
	Memory string `json:"memory"`
}

// Client talks to the Mem0 REST API. Memories are scoped per user id; the
// service owns storage and semantic retrieval.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid mem0 base url: %w", err)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("mem0 api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Add persists one or more records for userID. Fire-and-forget semantics at
// the call site; the client itself still reports transport failures.
func (c *Client) Add(ctx context.Context, records []Record, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrEmptyUserID
	}
	if len(records) == 0 {
		return nil
	}

	payload := struct {
		Messages []Record `json:"messages"`
		UserID   string   `json:"user_id"`
	}{
		Messages: records,
		UserID:   userID,
	}

	_, err := c.post(ctx, addMemoriesPath, payload)
	return err
}

// Search returns memories semantically related to query, scoped to userID,
// in the order the service ranks them.
func (c *Client) Search(ctx context.Context, query, userID string) ([]SearchResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}

	payload := struct {
		Query  string `json:"query"`
		UserID string `json:"user_id"`
	}{
		Query:  query,
		UserID: userID,
	}

	raw, err := c.post(ctx, searchMemoriesPath, payload)
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return results, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal mem0 request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build mem0 request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute mem0 request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read mem0 response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("mem0 http status=%d body=%s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
