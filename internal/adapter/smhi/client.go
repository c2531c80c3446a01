// Package smhi fetches the SMHI impact-based weather warning (IBWW) feed.
package smhi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/sensor-warning-map/internal/adapter/retryhttp"
	"github.com/couchcryptid/sensor-warning-map/internal/domain"
)

// maxFeedBytes caps the response size read from the feed.
const maxFeedBytes = 32 << 20

// Client downloads and decodes the warning feed.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed client for url. Each attempt is bounded by timeout
// and transient failures are retried.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: retryhttp.NewClient(timeout, 3, logger),
		logger:     logger,
	}
}

// FetchWarnings returns the current warning list.
func (c *Client) FetchWarnings(ctx context.Context) ([]domain.Warning, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch warnings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("smhi API error: status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read warnings: %w", err)
	}
	warnings, err := domain.DecodeWarnings(data)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetched warnings", "count", len(warnings), "areas", domain.CountAreas(warnings))
	return warnings, nil
}
