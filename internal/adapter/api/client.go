// Package api is the HTTP DataSource the query controller reads from.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/sensor-warning-map/internal/adapter/retryhttp"
	"github.com/couchcryptid/sensor-warning-map/internal/domain"
	"github.com/couchcryptid/sensor-warning-map/internal/query"
)

const (
	warningsPath = "/api/weather-warnings"
	sensorsPath  = "/api/sensors"
)

// ErrUnauthorized is returned when the API rejects the session token.
var ErrUnauthorized = errors.New("unauthorized")

// TokenSource holds the bearer token sent with sensor requests. It is safe
// for concurrent use; an empty token sends no Authorization header.
type TokenSource struct {
	mu    sync.RWMutex
	token string
}

// NewTokenSource returns a TokenSource holding token.
func NewTokenSource(token string) *TokenSource {
	return &TokenSource{token: token}
}

// Token returns the current token.
func (s *TokenSource) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set replaces the token.
func (s *TokenSource) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Client implements query.DataSource against the warning map HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenSource
	logger     *slog.Logger
}

var _ query.DataSource = (*Client)(nil)

// NewClient creates an API client rooted at baseURL.
func NewClient(baseURL string, tokens *TokenSource, timeout time.Duration, logger *slog.Logger) *Client {
	if tokens == nil {
		tokens = NewTokenSource("")
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: retryhttp.NewClient(timeout, 2, logger),
		tokens:     tokens,
		logger:     logger,
	}
}

type warningsResponse struct {
	Warnings []domain.Warning `json:"warnings"`
}

// Warnings fetches one page of warnings for the query state.
func (c *Client) Warnings(ctx context.Context, s query.State) ([]domain.Warning, error) {
	params := url.Values{
		"page":     {strconv.Itoa(s.Page)},
		"pageSize": {strconv.Itoa(s.PageSize)},
	}
	if s.EventType != "" {
		params.Set("eventType", s.EventType)
	}
	if s.SearchTerm != "" {
		params.Set("areaName", s.SearchTerm)
	}

	var resp warningsResponse
	if err := c.get(ctx, warningsPath+"?"+params.Encode(), false, &resp); err != nil {
		return nil, fmt.Errorf("fetch warnings: %w", err)
	}
	return resp.Warnings, nil
}

// Sensors fetches the sensor list.
func (c *Client) Sensors(ctx context.Context) ([]domain.Sensor, error) {
	var sensors []domain.Sensor
	if err := c.get(ctx, sensorsPath, true, &sensors); err != nil {
		return nil, fmt.Errorf("fetch sensors: %w", err)
	}
	return sensors, nil
}

func (c *Client) get(ctx context.Context, path string, auth bool, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.tokens.Token(); auth && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("api error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
