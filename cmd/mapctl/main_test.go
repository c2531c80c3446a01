package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/sensor-warning-map/internal/adapter/http"
	"github.com/couchcryptid/sensor-warning-map/internal/adapter/sensorcsv"
	"github.com/couchcryptid/sensor-warning-map/internal/catalog"
	"github.com/couchcryptid/sensor-warning-map/internal/domain"
)

type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

// requestLog records the query string of every warnings request.
type requestLog struct {
	mu      sync.Mutex
	queries []url.Values
}

func (l *requestLog) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/weather-warnings" {
			l.mu.Lock()
			l.queries = append(l.queries, r.URL.Query())
			l.mu.Unlock()
		}
		next.ServeHTTP(w, r)
	})
}

func (l *requestLog) warnings() []url.Values {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]url.Values(nil), l.queries...)
}

func newAPI(t *testing.T, token string) (*httptest.Server, *requestLog) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "internal", "domain", "testdata", "warnings.json"))
	require.NoError(t, err)
	warnings, err := domain.DecodeWarnings(data)
	require.NoError(t, err)

	c := catalog.New(nil)
	c.Replace(warnings)
	sensors := sensorcsv.NewRegistry([]domain.Sensor{
		{ID: 1, Name: "stockholm", Latitude: 59.33, Longitude: 18.07, Status: "ORANGE"},
	})

	reqs := &requestLog{}
	srv := httptest.NewServer(reqs.wrap(httpadapter.NewServer(":0", alwaysReady{}, c, sensors, token, slog.Default())))
	t.Cleanup(srv.Close)
	return srv, reqs
}

func TestRun_WritesFeaturesAndSummaries(t *testing.T) {
	srv, reqs := newAPI(t, "secret")
	out := filepath.Join(t.TempDir(), "warnings.geojson")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-api", srv.URL,
		"-token", "secret",
		"-event-type", "WIND",
		"-search", "stockholm",
		"-out", out,
	}, &stdout)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 1)

	assert.Contains(t, stdout.String(), "Type: Strong wind\nLevel: ORANGE")
	assert.Contains(t, stdout.String(), "Affected: Stockholms län\n")
	assert.Contains(t, stdout.String(), "page 1: 1 warnings, 1 features, 0 skipped areas, 1 sensors")
	assert.Len(t, reqs.warnings(), 1)
}

func TestRun_FetchesRequestedPageOnce(t *testing.T) {
	srv, reqs := newAPI(t, "secret")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-api", srv.URL,
		"-token", "secret",
		"-page", "3",
		"-event-type", "WIND",
	}, &stdout)
	require.NoError(t, err)

	queries := reqs.warnings()
	require.Len(t, queries, 1)
	assert.Equal(t, "3", queries[0].Get("page"))
	assert.Equal(t, "10", queries[0].Get("pageSize"))
	assert.Equal(t, "WIND", queries[0].Get("eventType"))
	assert.Contains(t, stdout.String(), "page 3: 0 warnings, 0 features")
}

func TestRun_Unauthorized(t *testing.T) {
	srv, _ := newAPI(t, "secret")

	err := run(context.Background(), []string{"-api", srv.URL, "-token", "wrong"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, "failed to fetch data", err.Error())
}

func TestRun_InvalidPage(t *testing.T) {
	err := run(context.Background(), []string{"-page", "0"}, &bytes.Buffer{})
	require.Error(t, err)
}
