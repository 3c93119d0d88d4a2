// Package client fetches chart data from the upstream source.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// maxPayloadBytes bounds how much of an upstream response is read.
const maxPayloadBytes = 8 << 20

// ErrInvalidPayload is returned when the upstream body is not valid JSON.
var ErrInvalidPayload = errors.New("upstream returned invalid JSON")

// ChartClient fetches the chart data payload from the upstream URL.
type ChartClient struct {
	url        string
	httpClient *http.Client
}

// NewChartClient creates a client for url. A non-positive timeout falls back
// to 15 seconds.
func NewChartClient(url string, timeout time.Duration) *ChartClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ChartClient{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// URL returns the upstream URL.
func (c *ChartClient) URL() string {
	return c.url
}

// Fetch GETs the upstream URL and returns the raw JSON body.
func (c *ChartClient) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach upstream: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream returned %d: %s", resp.StatusCode, truncate(body, 200))
	}
	if !json.Valid(body) {
		return nil, ErrInvalidPayload
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
