package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"MentionsScanner/internal/domain"
	"MentionsScanner/internal/ports"
)

var errModelUnavailable = errors.New("model unavailable")

// Client talks to an external named-entity recognition service.
//
// Models are tried in order; a model the service reports as missing (404 or
// 422) is skipped for the rest of the client's lifetime.
type Client struct {
	endpoint string
	apiKey   string
	models   []string
	http     *http.Client

	mu     sync.Mutex
	active int
}

var _ ports.Recognizer = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string, models []string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		models:   append([]string(nil), models...),
		http:     &http.Client{Timeout: timeout},
	}
}

// Recognize sends text to the service and returns every entity it labels.
func (c *Client) Recognize(ctx context.Context, text string) ([]domain.Entity, error) {
	if len(c.models) == 0 {
		return c.recognizeWith(ctx, text, "")
	}

	for i := c.activeModel(); i < len(c.models); i++ {
		entities, err := c.recognizeWith(ctx, text, c.models[i])
		if errors.Is(err, errModelUnavailable) && i+1 < len(c.models) {
			c.skipModel(i)
			continue
		}
		return entities, err
	}

	return nil, fmt.Errorf("no recognizer model available: %w", errModelUnavailable)
}

// Model returns the model currently used for requests.
func (c *Client) Model() string {
	if len(c.models) == 0 {
		return ""
	}
	return c.models[c.activeModel()]
}

func (c *Client) recognizeWith(ctx context.Context, text, model string) ([]domain.Entity, error) {
	payload := map[string]any{"text": text}
	if model != "" {
		payload["model"] = model
	}

	var resp struct {
		Entities []domain.Entity `json:"entities"`
	}
	if err := c.post(ctx, "/ner", payload, &resp); err != nil {
		if model != "" {
			return nil, fmt.Errorf("model %s: %w", model, err)
		}
		return nil, err
	}

	return resp.Entities, nil
}

func (c *Client) activeModel() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Client) skipModel(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active <= i && i+1 < len(c.models) {
		c.active = i + 1
	}
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", errModelUnavailable, resp.Status)
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
