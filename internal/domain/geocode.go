package domain

import (
	"context"
	"log/slog"
)

// EnrichSensorPlaces fills in PlaceName for positionable sensors that lack
// one. A nil geocoder returns the input unchanged; lookup failures are logged
// and leave the sensor as it was. The input slice is not modified.
func EnrichSensorPlaces(ctx context.Context, sensors []Sensor, geocoder Geocoder, logger *slog.Logger) []Sensor {
	if geocoder == nil {
		return sensors
	}

	out := make([]Sensor, len(sensors))
	copy(out, sensors)
	for i := range out {
		s := &out[i]
		if s.PlaceName != "" || !s.Positionable() {
			continue
		}
		result, err := geocoder.ReverseGeocode(ctx, s.Latitude, s.Longitude)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"sensor_id", s.ID,
				"lat", s.Latitude,
				"lon", s.Longitude,
				"error", err,
			)
			continue
		}
		s.PlaceName = result.PlaceName
	}
	return out
}
