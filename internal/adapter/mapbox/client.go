// Package mapbox resolves sensor coordinates to nearby place names.
package mapbox

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
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/sensor-warning-map/internal/adapter/retryhttp"
	"github.com/couchcryptid/sensor-warning-map/internal/domain"
	"github.com/couchcryptid/sensor-warning-map/internal/observability"
)

const (
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"
	// Sensors are in Sweden; restricting the country keeps border sensors
	// from resolving to Norwegian or Finnish towns.
	defaultCountry = "se"
	maxErrorBody   = 512
)

// ErrUnauthorized is returned when Mapbox rejects the access token.
var ErrUnauthorized = errors.New("mapbox: token rejected")

// Client implements domain.Geocoder using the Mapbox reverse geocoding API.
type Client struct {
	baseURL    string
	token      string
	language   string
	country    string
	httpClient *http.Client
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

var _ domain.Geocoder = (*Client)(nil)

// NewClient creates a Mapbox geocoding client. Place names come back in
// Swedish, matching the affected-area names on the map.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		language:   domain.LocaleSwedish,
		country:    defaultCountry,
		httpClient: retryhttp.NewClient(timeout, 1, logger),
		clock:      clockwork.NewRealClock(),
		metrics:    metrics,
		logger:     logger,
	}
}

// ReverseGeocode returns the town or locality containing the coordinates.
// An empty result with a nil error means Mapbox knows no place there.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	start := c.clock.Now()
	result, err := c.lookup(ctx, lat, lon)
	c.metrics.GeocodeAPIDuration.Observe(c.clock.Since(start).Seconds())

	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case result.PlaceName == "":
		outcome = "empty"
	}
	c.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
	return result, err
}

func (c *Client) endpoint(lat, lon float64) string {
	// Mapbox takes lon,lat.
	query := strconv.FormatFloat(lon, 'f', 6, 64) + "," + strconv.FormatFloat(lat, 'f', 6, 64) + ".json"
	params := url.Values{
		"access_token": {c.token},
		"country":      {c.country},
		"language":     {c.language},
		"limit":        {"1"},
		"types":        {"place,locality"},
	}
	return c.baseURL + "/" + query + "?" + params.Encode()
}

func (c *Client) lookup(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(lat, lon), nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The URL carries the token; keep it out of logs.
		return domain.GeocodingResult{}, fmt.Errorf("reverse geocode request failed: %w", redact(err, c.token))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.GeocodingResult{}, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.GeocodingResult{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var body placesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}
	if len(body.Features) == 0 {
		return domain.GeocodingResult{}, nil
	}

	best := body.Features[0]
	return domain.GeocodingResult{
		FormattedAddress: best.FullName,
		PlaceName:        best.Text,
		Confidence:       best.Relevance,
	}, nil
}

func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "REDACTED"))
}

type placesResponse struct {
	Features []place `json:"features"`
}

type place struct {
	FullName  string  `json:"place_name"`
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
}
