package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometry_Contains(t *testing.T) {
	tests := []struct {
		name     string
		geometry *Geometry
		lat, lon float64
		expected bool
	}{
		{"inside polygon", NewPolygon(square(17.5, 59.0, 1)), 59.3, 18.0, true},
		{"outside polygon", NewPolygon(square(17.5, 59.0, 1)), 61.0, 18.0, false},
		{"clockwise ring", NewPolygon(Ring{{17.5, 59.0}, {17.5, 60.0}, {18.5, 60.0}, {18.5, 59.0}, {17.5, 59.0}}), 59.3, 18.0, true},
		{"in hole", NewPolygon(square(17.0, 59.0, 2), square(17.5, 59.5, 1)), 60.0, 18.0, false},
		{"beside hole", NewPolygon(square(17.0, 59.0, 2), square(17.5, 59.5, 1)), 59.2, 17.2, true},
		{"second multipolygon part", NewMultiPolygon(Polygon{square(10, 50, 1)}, Polygon{square(17.5, 59.0, 1)}), 59.3, 18.0, true},
		{"nil geometry", nil, 59.3, 18.0, false},
		{"invalid geometry", &Geometry{Type: "Point"}, 59.3, 18.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.geometry.Contains(tt.lat, tt.lon))
		})
	}
}

func TestFindExposures(t *testing.T) {
	fixed := time.Date(2026, 10, 15, 7, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	warnings := loadWarnings(t)
	var sensors []Sensor
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":1,"name":"stockholm","latitude":59.33,"longitude":18.07,"status":"OK"},
		{"id":2,"name":"gavle","latitude":60.67,"longitude":16.5,"status":"OK"},
		{"id":3,"name":"malmo","latitude":55.6,"longitude":13.0,"status":"OK"},
		{"id":4,"name":"lost","latitude":"n/a","longitude":18.07,"status":"OK"}
	]`), &sensors))

	exposures := FindExposures(warnings, sensors)

	require.Len(t, exposures, 2)
	assert.Equal(t, Exposure{
		SensorID:      1,
		SensorName:    "stockholm",
		Status:        LevelOrange,
		Warning:       "Strong wind",
		WarningID:     1,
		WarningAreaID: 11,
		Timestamp:     fixed,
	}, exposures[0])
	assert.Equal(t, 2, exposures[1].SensorID)
	assert.Equal(t, LevelRed, exposures[1].Status)
	assert.Equal(t, "High flows", exposures[1].Warning)
}

func TestExposure_KeyAndNotifiable(t *testing.T) {
	a := Exposure{SensorID: 1, WarningID: 2, WarningAreaID: 3, Status: LevelOrange, Timestamp: time.Unix(1, 0)}
	b := a
	b.Timestamp = time.Unix(2, 0)

	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, a.Notifiable())

	b.Status = LevelRed
	assert.NotEqual(t, a.Key(), b.Key())
	assert.True(t, b.Notifiable())

	for _, level := range []LevelCode{LevelYellow, LevelMessage, LevelUnknown} {
		assert.False(t, Exposure{Status: level}.Notifiable(), level)
	}
}

func TestSensorStatuses(t *testing.T) {
	statuses := SensorStatuses([]Exposure{
		{SensorID: 1, Status: LevelYellow},
		{SensorID: 1, Status: LevelRed},
		{SensorID: 1, Status: LevelOrange},
		{SensorID: 2, Status: LevelMessage},
		{SensorID: 3, Status: LevelUnknown},
	})

	assert.Equal(t, map[int]LevelCode{1: LevelRed, 2: LevelMessage}, statuses)
}
