// Package fetch talks HTTP to the tile and thumbnail endpoints.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Client fetches tiles and thumbnails. The zero value works with the default
// HTTP client, no auth and no retries.
type Client struct {
	HTTPClient *http.Client
	Token      string // sent as a Bearer Authorization header when set
	Origin     string // optional Origin header to mimic browser requests
	Retries    int    // extra attempts after a failed request
	Delay      time.Duration
	Log        *logrus.Logger
}

// StatusError reports a non-2xx response. A short body preview is kept to
// help diagnose 401/403 issues.
type StatusError struct {
	Code        int
	URL         string
	BodyPreview string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s: %s", e.Code, e.URL, e.BodyPreview)
}

// FetchTile requests an MVT tile and returns the raw response body.
func (c *Client) FetchTile(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if attempt > 0 {
			c.logger().Warnf("retrying %s (attempt %d of %d): %v", rawURL, attempt+1, c.Retries+1, lastErr)
			if err := c.wait(ctx); err != nil {
				return nil, err
			}
		}
		body, _, err := c.get(ctx, rawURL, "application/x-protobuf")
		if err == nil {
			return body, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) wait(ctx context.Context) error {
	if c.Delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.Delay):
		return nil
	}
}

func (c *Client) get(ctx context.Context, rawURL, accept string) (body []byte, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if c.Origin != "" {
		req.Header.Set("Origin", c.Origin)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	c.logger().Debugf("HTTP %s for %s, headers: %v", resp.Status, rawURL, resp.Header)

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, "", &StatusError{Code: resp.StatusCode, URL: rawURL, BodyPreview: preview(body)}
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) logger() *logrus.Logger {
	if c.Log != nil {
		return c.Log
	}
	return logrus.StandardLogger()
}

func preview(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 500 {
		s = s[:500]
	}
	return s
}
