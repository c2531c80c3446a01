// Package sensorcsv loads the sensor registry from a CSV file and tracks the
// status each sensor was last assigned.
package sensorcsv

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/jszwec/csvutil"

	"github.com/couchcryptid/sensor-warning-map/internal/domain"
)

// row is one CSV record. Coordinates stay text so that a bad value only
// makes the sensor unpositionable instead of failing the whole file.
type row struct {
	ID          int    `csv:"id"`
	Name        string `csv:"name"`
	Latitude    string `csv:"latitude"`
	Longitude   string `csv:"longitude"`
	Status      string `csv:"status,omitempty"`
	Description string `csv:"description,omitempty"`
	PlaceName   string `csv:"place_name,omitempty"`
}

// Parse decodes sensors from CSV with a header line naming the columns.
// Unknown columns are ignored. An empty input yields no sensors.
func Parse(r io.Reader) ([]domain.Sensor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read sensors csv: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var rows []row
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode sensors csv: %w", err)
	}

	sensors := make([]domain.Sensor, 0, len(rows))
	for _, r := range rows {
		status := strings.TrimSpace(r.Status)
		if status == "" {
			status = domain.SensorStatusOK
		}
		sensors = append(sensors, domain.Sensor{
			ID:          r.ID,
			Name:        r.Name,
			Latitude:    domain.ParseCoordinate(r.Latitude),
			Longitude:   domain.ParseCoordinate(r.Longitude),
			Status:      status,
			Description: r.Description,
			PlaceName:   r.PlaceName,
		})
	}
	return sensors, nil
}

// Load reads the sensor registry file at path.
func Load(path string) ([]domain.Sensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sensors file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Registry serves the sensor list and records status updates from the poller.
type Registry struct {
	mu      sync.RWMutex
	sensors []domain.Sensor
}

// NewRegistry wraps a sensor list. The registry keeps its own copy.
func NewRegistry(sensors []domain.Sensor) *Registry {
	return &Registry{sensors: append([]domain.Sensor(nil), sensors...)}
}

// Sensors returns a copy of the registered sensors with their current status.
func (r *Registry) Sensors(_ context.Context) ([]domain.Sensor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Sensor(nil), r.sensors...), nil
}

// SetStatuses assigns each sensor its level from statuses, or OK when absent.
func (r *Registry) SetStatuses(statuses map[int]domain.LevelCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sensors {
		if level, ok := statuses[r.sensors[i].ID]; ok {
			r.sensors[i].Status = string(level)
		} else {
			r.sensors[i].Status = domain.SensorStatusOK
		}
	}
}

// Enrich resolves missing place names through geocoder. A nil geocoder is a no-op.
func (r *Registry) Enrich(ctx context.Context, geocoder domain.Geocoder, logger *slog.Logger) {
	if geocoder == nil {
		return
	}
	current, _ := r.Sensors(ctx)
	enriched := domain.EnrichSensorPlaces(ctx, current, geocoder, logger)

	places := make(map[int]string, len(enriched))
	for _, s := range enriched {
		places[s.ID] = s.PlaceName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sensors {
		if r.sensors[i].PlaceName == "" {
			r.sensors[i].PlaceName = places[r.sensors[i].ID]
		}
	}
}
