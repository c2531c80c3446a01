package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mmcloughlin/geohash"
)

// SensorStatusOK is the status of a sensor not covered by any warning.
const SensorStatusOK = "OK"

// markerGeohashChars gives ~150 m cells, enough to cluster co-located sensors.
const markerGeohashChars = 7

// Sensor is an operator-owned IoT device with a fixed position. Coordinates
// that could not be read as numbers are NaN.
type Sensor struct {
	ID          int
	Name        string
	Latitude    float64
	Longitude   float64
	Status      string
	Description string
	PlaceName   string
}

// Positionable reports whether both coordinates are finite numbers.
func (s Sensor) Positionable() bool {
	return finite(s.Latitude) && finite(s.Longitude)
}

type sensorJSON struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Latitude    json.RawMessage `json:"latitude"`
	Longitude   json.RawMessage `json:"longitude"`
	Status      string          `json:"status"`
	Description string          `json:"description,omitempty"`
	PlaceName   string          `json:"placeName,omitempty"`
}

func (s *Sensor) UnmarshalJSON(data []byte) error {
	var aux sensorJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decode sensor: %w", err)
	}
	*s = Sensor{
		ID:          aux.ID,
		Name:        aux.Name,
		Latitude:    decodeCoordinate(aux.Latitude),
		Longitude:   decodeCoordinate(aux.Longitude),
		Status:      aux.Status,
		Description: aux.Description,
		PlaceName:   aux.PlaceName,
	}
	return nil
}

func (s Sensor) MarshalJSON() ([]byte, error) {
	return json.Marshal(sensorJSON{
		ID:          s.ID,
		Name:        s.Name,
		Latitude:    encodeCoordinate(s.Latitude),
		Longitude:   encodeCoordinate(s.Longitude),
		Status:      s.Status,
		Description: s.Description,
		PlaceName:   s.PlaceName,
	})
}

// decodeCoordinate accepts only JSON numbers; strings, null and garbage become NaN.
func decodeCoordinate(raw json.RawMessage) float64 {
	var f float64
	if len(raw) == 0 || json.Unmarshal(raw, &f) != nil {
		return math.NaN()
	}
	return f
}

func encodeCoordinate(f float64) json.RawMessage {
	if !finite(f) {
		return json.RawMessage("null")
	}
	return json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64))
}

// ParseCoordinate reads a coordinate from text, returning NaN when it is not a number.
func ParseCoordinate(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// SensorMarker is a positionable sensor ready to be drawn.
type SensorMarker struct {
	Sensor      Sensor `json:"sensor"`
	Color       string `json:"color"`
	Description string `json:"description"`
	Geohash     string `json:"geohash"`
}

// PositionableSensors keeps the sensors with finite coordinates, in input
// order, and pairs each with its marker color and tooltip text.
func PositionableSensors(sensors []Sensor) []SensorMarker {
	markers := make([]SensorMarker, 0, len(sensors))
	for _, s := range sensors {
		if !s.Positionable() {
			continue
		}
		markers = append(markers, SensorMarker{
			Sensor:      s,
			Color:       ResolveSensorColor(s.Status),
			Description: DescribeSensor(s),
			Geohash:     geohash.EncodeWithPrecision(s.Latitude, s.Longitude, markerGeohashChars),
		})
	}
	return markers
}

// DescribeSensor renders the marker tooltip: name, status, optional
// description and place, and the position.
func DescribeSensor(s Sensor) string {
	status := s.Status
	if status == "" {
		status = "Unknown"
	}

	lines := []string{s.Name, "Status: " + status}
	if s.Description != "" {
		lines = append(lines, s.Description)
	}
	if s.PlaceName != "" {
		lines = append(lines, "Near: "+s.PlaceName)
	}
	lines = append(lines, fmt.Sprintf("Lat: %s, Lon: %s",
		strconv.FormatFloat(s.Latitude, 'f', -1, 64),
		strconv.FormatFloat(s.Longitude, 'f', -1, 64)))
	return strings.Join(lines, "\n")
}
