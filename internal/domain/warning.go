package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// LevelCode is the severity of a warning area.
type LevelCode string

const (
	LevelRed     LevelCode = "RED"
	LevelOrange  LevelCode = "ORANGE"
	LevelYellow  LevelCode = "YELLOW"
	LevelMessage LevelCode = "MESSAGE"
	LevelUnknown LevelCode = "UNKNOWN"
)

// ParseLevelCode normalizes a raw level code. Unrecognized values map to LevelUnknown.
func ParseLevelCode(s string) LevelCode {
	switch c := LevelCode(strings.ToUpper(strings.TrimSpace(s))); c {
	case LevelRed, LevelOrange, LevelYellow, LevelMessage:
		return c
	default:
		return LevelUnknown
	}
}

// Rank orders levels by severity: RED > ORANGE > YELLOW > MESSAGE > anything else.
func (c LevelCode) Rank() int {
	switch c {
	case LevelRed:
		return 4
	case LevelOrange:
		return 3
	case LevelYellow:
		return 2
	case LevelMessage:
		return 1
	default:
		return 0
	}
}

// Event names the hazard a warning is about, e.g. "WIND" / "Strong wind".
type Event struct {
	Code  string
	Names Localized
}

func (e *Event) UnmarshalJSON(data []byte) error {
	code, names, err := decodeLabeled(data)
	if err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	e.Code, e.Names = code, names
	return nil
}

func (e Event) MarshalJSON() ([]byte, error) {
	return encodeLabeled(e.Code, e.Names)
}

// WarningLevel is the severity label of a warning area.
type WarningLevel struct {
	Code  LevelCode
	Names Localized
}

func (l *WarningLevel) UnmarshalJSON(data []byte) error {
	code, names, err := decodeLabeled(data)
	if err != nil {
		return fmt.Errorf("decode warning level: %w", err)
	}
	l.Code, l.Names = ParseLevelCode(code), names
	return nil
}

func (l WarningLevel) MarshalJSON() ([]byte, error) {
	return encodeLabeled(string(l.Code), l.Names)
}

// AffectedArea is a named administrative area (county, municipality) covered by a warning area.
type AffectedArea struct {
	ID    int
	Names Localized
}

func (a *AffectedArea) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decode affected area: %w", err)
	}
	_, names, err := decodeLabeled(data)
	if err != nil {
		return fmt.Errorf("decode affected area: %w", err)
	}
	a.ID, a.Names = aux.ID, names
	return nil
}

func (a AffectedArea) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Names)+1)
	for k, v := range a.Names {
		out[k] = v
	}
	out["id"] = a.ID
	return json.Marshal(out)
}

// WarningArea is one polygon of a warning with its own level, timing and affected areas.
// A nil or invalid Geometry makes the area unrenderable.
type WarningArea struct {
	ID               int
	AreaName         Localized
	ApproximateStart string
	ApproximateEnd   string
	Published        string
	Geometry         *Geometry
	AffectedAreas    []AffectedArea
	WarningLevel     WarningLevel
	EventDescription *Event
}

type warningAreaJSON struct {
	ID               int             `json:"id"`
	Area             json.RawMessage `json:"area,omitempty"`
	AreaName         Localized       `json:"areaName,omitempty"`
	ApproximateStart string          `json:"approximateStart,omitempty"`
	ApproximateEnd   string          `json:"approximateEnd,omitempty"`
	Published        string          `json:"published,omitempty"`
	WarningLevel     WarningLevel    `json:"warningLevel"`
	EventDescription *Event          `json:"eventDescription,omitempty"`
	AffectedAreas    []AffectedArea  `json:"affectedAreas"`
}

// areaFeature is the GeoJSON Feature wrapper SMHI puts around each geometry.
type areaFeature struct {
	Type       string         `json:"type"`
	Geometry   *Geometry      `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

func (w *WarningArea) UnmarshalJSON(data []byte) error {
	var aux warningAreaJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decode warning area: %w", err)
	}

	*w = WarningArea{
		ID:               aux.ID,
		AreaName:         aux.AreaName,
		ApproximateStart: aux.ApproximateStart,
		ApproximateEnd:   aux.ApproximateEnd,
		Published:        aux.Published,
		AffectedAreas:    aux.AffectedAreas,
		WarningLevel:     aux.WarningLevel,
		EventDescription: aux.EventDescription,
	}
	if w.WarningLevel.Code == "" {
		w.WarningLevel.Code = LevelUnknown
	}

	// A malformed area wrapper only costs the geometry, never the record.
	if len(aux.Area) > 0 {
		var f areaFeature
		if err := json.Unmarshal(aux.Area, &f); err == nil {
			w.Geometry = f.Geometry
		}
	}
	return nil
}

func (w WarningArea) MarshalJSON() ([]byte, error) {
	aux := warningAreaJSON{
		ID:               w.ID,
		AreaName:         w.AreaName,
		ApproximateStart: w.ApproximateStart,
		ApproximateEnd:   w.ApproximateEnd,
		Published:        w.Published,
		WarningLevel:     w.WarningLevel,
		EventDescription: w.EventDescription,
		AffectedAreas:    w.AffectedAreas,
	}
	if aux.AffectedAreas == nil {
		aux.AffectedAreas = []AffectedArea{}
	}
	if w.Geometry != nil {
		area, err := json.Marshal(areaFeature{Type: "Feature", Geometry: w.Geometry, Properties: map[string]any{}})
		if err != nil {
			return nil, fmt.Errorf("encode warning area %d: %w", w.ID, err)
		}
		aux.Area = area
	}
	return json.Marshal(aux)
}

// Warning is an official hazard advisory covering one or more warning areas.
type Warning struct {
	ID           int           `json:"id"`
	Event        Event         `json:"event"`
	AreaName     Localized     `json:"areaName,omitempty"`
	WarningAreas []WarningArea `json:"warningAreas"`
}

// DecodeWarnings parses an IBWW warning list.
func DecodeWarnings(data []byte) ([]Warning, error) {
	var warnings []Warning
	if err := json.Unmarshal(data, &warnings); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}
	return warnings, nil
}
