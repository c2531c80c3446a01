package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/sensor-warning-map/internal/domain"
	"github.com/couchcryptid/sensor-warning-map/internal/observability"
)

// Sink is a named notification destination.
type Sink struct {
	Name   string
	Loader BatchLoader
}

// FanOutLoader delivers every batch to each sink in turn. A batch counts as
// delivered when at least one sink accepted it, so a single broken sink
// cannot cause the others to receive duplicates on retry.
type FanOutLoader struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewFanOutLoader creates a loader over sinks.
func NewFanOutLoader(logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *FanOutLoader {
	return &FanOutLoader{sinks: sinks, logger: logger, metrics: metrics}
}

// Len returns the number of sinks.
func (f *FanOutLoader) Len() int {
	return len(f.sinks)
}

func (f *FanOutLoader) LoadBatch(ctx context.Context, exposures []domain.Exposure) error {
	if len(f.sinks) == 0 || len(exposures) == 0 {
		return nil
	}

	var errs []error
	for _, s := range f.sinks {
		if err := s.Loader.LoadBatch(ctx, exposures); err != nil {
			f.metrics.Notifications.WithLabelValues(s.Name, "error").Add(float64(len(exposures)))
			f.logger.Error("notification sink failed", "sink", s.Name, "batch_size", len(exposures), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		f.metrics.Notifications.WithLabelValues(s.Name, "success").Add(float64(len(exposures)))
	}

	if len(errs) == len(f.sinks) {
		return errors.Join(errs...)
	}
	return nil
}
