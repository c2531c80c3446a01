package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sensor-warning-map/internal/catalog"
	"github.com/couchcryptid/sensor-warning-map/internal/domain"
	"github.com/couchcryptid/sensor-warning-map/internal/observability"
	"github.com/couchcryptid/sensor-warning-map/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	warnings []domain.Warning
	errs     []error
	calls    atomic.Int64
	onCall   func(n int)
}

func (m *mockExtractor) FetchWarnings(_ context.Context) ([]domain.Warning, error) {
	n := int(m.calls.Add(1))
	if m.onCall != nil {
		m.onCall(n)
	}
	if n <= len(m.errs) && m.errs[n-1] != nil {
		return nil, m.errs[n-1]
	}
	return m.warnings, nil
}

type mockRegistry struct {
	mu       sync.Mutex
	sensors  []domain.Sensor
	statuses map[int]domain.LevelCode
}

func (m *mockRegistry) Sensors(_ context.Context) ([]domain.Sensor, error) {
	return m.sensors, nil
}

func (m *mockRegistry) SetStatuses(statuses map[int]domain.LevelCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = statuses
}

type mockLoader struct {
	mu      sync.Mutex
	batches [][]domain.Exposure
	err     error
}

func (m *mockLoader) LoadBatch(_ context.Context, exposures []domain.Exposure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, exposures)
	return m.err
}

func (m *mockLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func loadWarnings(t *testing.T) []domain.Warning {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "warnings.json"))
	require.NoError(t, err)
	warnings, err := domain.DecodeWarnings(data)
	require.NoError(t, err)
	return warnings
}

func testSensors() []domain.Sensor {
	return []domain.Sensor{
		{ID: 1, Name: "stockholm", Latitude: 59.33, Longitude: 18.07, Status: "OK"},
		{ID: 2, Name: "gavle", Latitude: 60.67, Longitude: 16.5, Status: "OK"},
		{ID: 3, Name: "malmo", Latitude: 55.6, Longitude: 13.0, Status: "OK"},
	}
}

// --- tests ---

func TestPipeline_PollOnce(t *testing.T) {
	ext := &mockExtractor{warnings: loadWarnings(t)}
	store := catalog.New(nil)
	reg := &mockRegistry{sensors: testSensors()}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, store, reg, pipeline.NewTransformer(), ldr, slog.Default(), metrics)
	assert.Error(t, p.CheckReadiness(context.Background()))

	require.NoError(t, p.PollOnce(context.Background()))

	assert.True(t, p.Ready())
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 3, store.Len())
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.WarningsCurrent), 0)
	assert.Equal(t, map[int]domain.LevelCode{1: domain.LevelOrange, 2: domain.LevelRed}, reg.statuses)

	require.Equal(t, 1, ldr.count())
	require.Len(t, ldr.batches[0], 2)
	assert.Equal(t, 1, ldr.batches[0][0].SensorID)
	assert.Equal(t, 2, ldr.batches[0][1].SensorID)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.ExposuresFound), 0)
}

func TestPipeline_PollOnce_NotifiesOnce(t *testing.T) {
	ext := &mockExtractor{warnings: loadWarnings(t)}
	reg := &mockRegistry{sensors: testSensors()}
	ldr := &mockLoader{}

	p := pipeline.New(ext, catalog.New(nil), reg, pipeline.NewTransformer(), ldr, slog.Default(), observability.NewMetricsForTesting())

	require.NoError(t, p.PollOnce(context.Background()))
	require.NoError(t, p.PollOnce(context.Background()))
	assert.Equal(t, 1, ldr.count())

	// The warnings clear, then return: the exposures are announced again.
	ext.warnings = nil
	require.NoError(t, p.PollOnce(context.Background()))
	assert.Empty(t, reg.statuses)
	ext.warnings = loadWarnings(t)
	require.NoError(t, p.PollOnce(context.Background()))
	assert.Equal(t, 2, ldr.count())
}

func TestPipeline_PollOnce_LoadFailureRetriesNotifications(t *testing.T) {
	ext := &mockExtractor{warnings: loadWarnings(t)}
	reg := &mockRegistry{sensors: testSensors()}
	ldr := &mockLoader{err: errors.New("broker down")}

	p := pipeline.New(ext, catalog.New(nil), reg, pipeline.NewTransformer(), ldr, slog.Default(), observability.NewMetricsForTesting())

	err := p.PollOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	// The catalog was still refreshed.
	assert.True(t, p.Ready())

	ldr.err = nil
	require.NoError(t, p.PollOnce(context.Background()))
	require.Equal(t, 2, ldr.count())
	assert.Len(t, ldr.batches[1], 2)
}

func TestPipeline_PollOnce_ExtractError(t *testing.T) {
	ext := &mockExtractor{errs: []error{errors.New("smhi unavailable")}}
	store := catalog.New(nil)
	ldr := &mockLoader{}

	p := pipeline.New(ext, store, &mockRegistry{}, pipeline.NewTransformer(), ldr, slog.Default(), observability.NewMetricsForTesting())

	err := p.PollOnce(context.Background())
	require.Error(t, err)
	assert.False(t, p.Ready())
	assert.Zero(t, store.Len())
	assert.Zero(t, ldr.count())
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	ctx, cancel := context.WithCancel(context.Background())
	ext := &mockExtractor{onCall: func(int) { cancel() }}

	p := pipeline.New(ext, catalog.New(nil), &mockRegistry{}, pipeline.NewTransformer(), &mockLoader{}, slog.Default(), metrics)

	require.NoError(t, p.Run(ctx))
	assert.EqualValues(t, 1, ext.calls.Load())
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PollerRunning), 0)
}

func TestPipeline_Run_PollsOnInterval(t *testing.T) {
	fc := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	metrics := observability.NewMetricsForTesting()

	ext := &mockExtractor{onCall: func(n int) {
		if n == 3 {
			cancel()
		}
	}}
	p := pipeline.New(ext, catalog.New(nil), &mockRegistry{}, pipeline.NewTransformer(), &mockLoader{}, slog.Default(), metrics,
		pipeline.WithClock(fc), pipeline.WithInterval(time.Minute))

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	for i := 1; i < 3; i++ {
		require.NoError(t, fc.BlockUntilContext(ctx, 1))
		assert.EqualValues(t, i, ext.calls.Load())
		fc.Advance(time.Minute)
	}

	require.NoError(t, <-done)
	assert.EqualValues(t, 3, ext.calls.Load())
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.PollsTotal.WithLabelValues("success")), 0)
}

func TestPipeline_Run_BacksOffAfterFailure(t *testing.T) {
	fc := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	metrics := observability.NewMetricsForTesting()

	boom := errors.New("boom")
	ext := &mockExtractor{
		errs: []error{boom, boom},
		onCall: func(n int) {
			if n == 3 {
				cancel()
			}
		},
	}
	p := pipeline.New(ext, catalog.New(nil), &mockRegistry{}, pipeline.NewTransformer(), &mockLoader{}, slog.Default(), metrics,
		pipeline.WithClock(fc), pipeline.WithInterval(time.Hour))

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	// First retry after 200ms, then 400ms, well short of the interval.
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(200 * time.Millisecond)
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	assert.EqualValues(t, 2, ext.calls.Load())
	fc.Advance(400 * time.Millisecond)

	require.NoError(t, <-done)
	assert.EqualValues(t, 3, ext.calls.Load())
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.PollsTotal.WithLabelValues("error")), 0)
}
