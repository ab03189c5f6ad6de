// Package webhook posts board events to chat webhooks such as Discord.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/taskmaster/kanban/internal/ports"
)

const maxErrorBody = 512

// Client posts JSON messages to webhook URLs.
type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Post sends msg to url. Any non-2xx answer is an error carrying the status
// and the start of the response body.
func (c *Client) Post(ctx context.Context, url string, msg ports.WebhookMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("webhook answered %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}
