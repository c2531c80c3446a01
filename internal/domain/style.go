package domain

import "strings"

const (
	polygonStrokeColor  = "#000000"
	polygonStrokeWeight = 2
	defaultFillColor    = "lightblue"
	defaultFillOpacity  = 0.6
	levelFillOpacity    = 0.8
	defaultSensorColor  = "green"
)

// StyleDescriptor tells the rendering surface how to paint a warning polygon.
type StyleDescriptor struct {
	StrokeColor  string  `json:"color"`
	StrokeWeight int     `json:"weight"`
	FillColor    string  `json:"fillColor"`
	FillOpacity  float64 `json:"fillOpacity"`
}

var levelFillColors = map[LevelCode]string{
	LevelRed:     "#D61720",
	LevelOrange:  "#EB7500",
	LevelYellow:  "#FDEB1B",
	LevelMessage: "#1EA8A1",
}

// ResolvePolygonStyle maps a level code to its polygon style. Codes are
// matched exactly; anything unrecognized gets the light-blue fallback.
func ResolvePolygonStyle(level LevelCode) StyleDescriptor {
	style := StyleDescriptor{
		StrokeColor:  polygonStrokeColor,
		StrokeWeight: polygonStrokeWeight,
		FillColor:    defaultFillColor,
		FillOpacity:  defaultFillOpacity,
	}
	if fill, ok := levelFillColors[level]; ok {
		style.FillColor = fill
		style.FillOpacity = levelFillOpacity
	}
	return style
}

// StyleTable returns the style of every known level plus UNKNOWN, keyed by code.
func StyleTable() map[LevelCode]StyleDescriptor {
	table := make(map[LevelCode]StyleDescriptor, len(levelFillColors)+1)
	for _, level := range []LevelCode{LevelRed, LevelOrange, LevelYellow, LevelMessage, LevelUnknown} {
		table[level] = ResolvePolygonStyle(level)
	}
	return table
}

// ResolveSensorColor maps a sensor status to a marker color, case-insensitively.
func ResolveSensorColor(status string) string {
	switch strings.ToUpper(status) {
	case "RED":
		return "red"
	case "ORANGE":
		return "orange"
	case "YELLOW":
		return "yellow"
	default:
		return defaultSensorColor
	}
}
