package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/sensor-warning-map/internal/domain"
	"github.com/couchcryptid/sensor-warning-map/internal/observability"
)

const (
	// DefaultInterval matches the SMHI feed refresh cadence.
	DefaultInterval = 15 * time.Minute

	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Extractor fetches the current upstream warning feed.
type Extractor interface {
	FetchWarnings(ctx context.Context) ([]domain.Warning, error)
}

// WarningStore receives every successfully fetched feed.
type WarningStore interface {
	Replace(warnings []domain.Warning)
}

// SensorRegistry lists the sensors to check and records their new status.
type SensorRegistry interface {
	Sensors(ctx context.Context) ([]domain.Sensor, error)
	SetStatuses(statuses map[int]domain.LevelCode)
}

// Transformer turns a feed and the sensor list into an assessment, and is
// told once the assessment's notifications were delivered.
type Transformer interface {
	Assess(warnings []domain.Warning, sensors []domain.Sensor) Assessment
	Commit(a Assessment)
}

// BatchLoader delivers exposure notifications.
type BatchLoader interface {
	LoadBatch(ctx context.Context, exposures []domain.Exposure) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithInterval sets the delay between successful polls.
func WithInterval(d time.Duration) Option {
	return func(p *Pipeline) { p.interval = d }
}

// WithClock sets the clock used for poll intervals and backoff.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// Pipeline polls the warning feed, refreshes the catalog, re-evaluates sensor
// exposure and delivers notifications for new severe exposures.
type Pipeline struct {
	extractor   Extractor
	store       WarningStore
	sensors     SensorRegistry
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	interval    time.Duration
	clock       clockwork.Clock
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, store WarningStore, sensors SensorRegistry, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		store:       store,
		sensors:     sensors,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		interval:    DefaultInterval,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once the warning feed has been fetched at least
// once, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("warning feed has not been fetched yet")
	}
	return nil
}

// Ready reports whether the warning feed has been fetched at least once.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Run polls immediately, then every interval, until the context is cancelled.
// Failed polls are retried with exponential backoff instead of waiting a full
// interval.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("poller started", "interval", p.interval)
	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	backoff := initialBackoff
	for {
		err := p.PollOnce(ctx)
		if ctx.Err() != nil {
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		}

		wait := p.interval
		if err != nil {
			p.metrics.PollsTotal.WithLabelValues("error").Inc()
			p.logger.Error("poll failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, maxBackoff)
		} else {
			p.metrics.PollsTotal.WithLabelValues("success").Inc()
			backoff = initialBackoff
		}

		if !p.sleep(ctx, wait) {
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// PollOnce runs a single fetch, assess and notify cycle.
func (p *Pipeline) PollOnce(ctx context.Context) error {
	start := p.clock.Now()

	warnings, err := p.extractor.FetchWarnings(ctx)
	if err != nil {
		return fmt.Errorf("extract warnings: %w", err)
	}
	p.store.Replace(warnings)
	p.metrics.WarningsCurrent.Set(float64(len(warnings)))
	p.ready.Store(true)

	sensors, err := p.sensors.Sensors(ctx)
	if err != nil {
		return fmt.Errorf("list sensors: %w", err)
	}

	a := p.transformer.Assess(warnings, sensors)
	p.sensors.SetStatuses(a.Statuses)

	if len(a.Fresh) > 0 {
		p.metrics.ExposuresFound.Add(float64(len(a.Fresh)))
		if err := p.loader.LoadBatch(ctx, a.Fresh); err != nil {
			return fmt.Errorf("load exposures: %w", err)
		}
	}
	p.transformer.Commit(a)

	p.metrics.PollDuration.Observe(p.clock.Since(start).Seconds())
	p.logger.Info("poll complete",
		"warnings", len(warnings),
		"sensors", len(sensors),
		"exposures", len(a.Exposures),
		"notified", len(a.Fresh),
	)
	return nil
}

func (p *Pipeline) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := p.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
