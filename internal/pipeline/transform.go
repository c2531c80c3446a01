package pipeline

import (
	"sync"

	"github.com/couchcryptid/sensor-warning-map/internal/domain"
)

// Assessment is the result of matching one feed against the sensor list.
type Assessment struct {
	// Exposures lists every sensor/warning-area overlap in the feed.
	Exposures []domain.Exposure
	// Statuses holds the highest level covering each exposed sensor.
	Statuses map[int]domain.LevelCode
	// Fresh are the notifiable exposures not yet delivered.
	Fresh []domain.Exposure
}

// ExposureTransformer implements Transformer. It remembers which notifiable
// exposures were already delivered so each is announced once for as long as
// it stays in the feed; one that drops out and later returns is announced
// again.
type ExposureTransformer struct {
	mu       sync.Mutex
	notified map[string]struct{}
}

// NewTransformer creates an ExposureTransformer with nothing delivered yet.
func NewTransformer() *ExposureTransformer {
	return &ExposureTransformer{notified: make(map[string]struct{})}
}

func (t *ExposureTransformer) Assess(warnings []domain.Warning, sensors []domain.Sensor) Assessment {
	exposures := domain.FindExposures(warnings, sensors)

	t.mu.Lock()
	defer t.mu.Unlock()

	var fresh []domain.Exposure
	seen := make(map[string]struct{})
	for _, e := range exposures {
		if !e.Notifiable() {
			continue
		}
		key := e.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, done := t.notified[key]; !done {
			fresh = append(fresh, e)
		}
	}

	return Assessment{
		Exposures: exposures,
		Statuses:  domain.SensorStatuses(exposures),
		Fresh:     fresh,
	}
}

// Commit records the assessment's notifiable exposures as delivered and
// forgets any that are no longer present.
func (t *ExposureTransformer) Commit(a Assessment) {
	current := make(map[string]struct{})
	for _, e := range a.Exposures {
		if e.Notifiable() {
			current[e.Key()] = struct{}{}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.notified = current
}
