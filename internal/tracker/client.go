// Package tracker provides a client for the issue-tracking service desk.
// It implements a deep module interface - simple methods hiding the REST
// plumbing the wizard's submission pipeline depends on.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a service-desk REST API client.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// APIError wraps non-2xx responses with the raw body so the TUI can surface
// the underlying message.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tracker: status=%d body=%s", e.StatusCode, e.Body)
}

// New creates a tracker client for the given base URL and API token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// idempotencyHeader carries the per-run key so a retried submission does not
// duplicate issues on the tracker side.
const idempotencyHeader = "X-Idempotency-Key"

func (c *Client) do(ctx context.Context, method, endpoint, idempotencyKey string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(endpoint, "/"), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
