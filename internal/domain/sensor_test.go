package domain

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensor_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		positionable bool
	}{
		{"numbers", `{"id":1,"name":"a","latitude":59.3,"longitude":18.1,"status":"OK"}`, true},
		{"string latitude", `{"id":2,"name":"b","latitude":"n/a","longitude":18.1,"status":"OK"}`, false},
		{"numeric string", `{"id":3,"name":"c","latitude":"59.3","longitude":18.1,"status":"OK"}`, false},
		{"null longitude", `{"id":4,"name":"d","latitude":59.3,"longitude":null,"status":"OK"}`, false},
		{"missing coordinates", `{"id":5,"name":"e","status":"OK"}`, false},
		{"zero is a position", `{"id":6,"name":"f","latitude":0,"longitude":0,"status":"OK"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Sensor
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &s))
			assert.Equal(t, tt.positionable, s.Positionable())
		})
	}
}

func TestSensor_MarshalJSON_NonFinite(t *testing.T) {
	s := Sensor{ID: 1, Name: "x", Latitude: math.NaN(), Longitude: 18.25, Status: "OK"}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"x","latitude":null,"longitude":18.25,"status":"OK"}`, string(data))
}

func TestParseCoordinate(t *testing.T) {
	assert.InDelta(t, 59.33, ParseCoordinate(" 59.33 "), 1e-9)
	assert.InDelta(t, -12.5, ParseCoordinate("-12.5"), 1e-9)
	assert.True(t, math.IsNaN(ParseCoordinate("n/a")))
	assert.True(t, math.IsNaN(ParseCoordinate("")))
}

func TestPositionableSensors(t *testing.T) {
	sensors := []Sensor{
		{ID: 1, Name: "kept", Latitude: 59.3293, Longitude: 18.0686, Status: "red"},
		{ID: 2, Name: "dropped", Latitude: math.NaN(), Longitude: 18.0, Status: "OK"},
		{ID: 3, Name: "also kept", Latitude: 57.7, Longitude: 11.97, Status: "OK"},
	}

	markers := PositionableSensors(sensors)

	require.Len(t, markers, 2)
	assert.Equal(t, 1, markers[0].Sensor.ID)
	assert.Equal(t, "red", markers[0].Color)
	assert.Len(t, markers[0].Geohash, 7)
	assert.Equal(t, 3, markers[1].Sensor.ID)
	assert.Equal(t, "green", markers[1].Color)
}

func TestPositionableSensors_Empty(t *testing.T) {
	assert.Empty(t, PositionableSensors(nil))
}

func TestDescribeSensor(t *testing.T) {
	s := Sensor{
		Name:        "Roof station",
		Latitude:    59.5,
		Longitude:   18.25,
		Status:      "YELLOW",
		Description: "Rain gauge",
		PlaceName:   "Solna",
	}
	assert.Equal(t, "Roof station\nStatus: YELLOW\nRain gauge\nNear: Solna\nLat: 59.5, Lon: 18.25", DescribeSensor(s))

	s.Status, s.Description, s.PlaceName = "", "", ""
	assert.Equal(t, "Roof station\nStatus: Unknown\nLat: 59.5, Lon: 18.25", DescribeSensor(s))
}
