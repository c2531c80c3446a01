package domain

import (
	"encoding/json"
	"math"
)

// GeometryType is the GeoJSON type of a warning-area geometry.
type GeometryType string

const (
	GeometryPolygon      GeometryType = "Polygon"
	GeometryMultiPolygon GeometryType = "MultiPolygon"
)

// minRingPositions is the GeoJSON minimum for a closed linear ring.
const minRingPositions = 4

// Position is a [lon, lat] pair.
type Position [2]float64

// Lon returns the longitude.
func (p Position) Lon() float64 { return p[0] }

// Lat returns the latitude.
func (p Position) Lat() float64 { return p[1] }

// Ring is a closed linear ring of positions.
type Ring []Position

// Polygon is an exterior ring followed by zero or more holes.
type Polygon []Ring

// Geometry is a closed variant over Polygon and MultiPolygon. A Polygon
// geometry always holds exactly one entry in Polygons.
//
// Decoding never fails on shape problems: anything that is not a well-formed
// Polygon or MultiPolygon decodes to a Geometry whose Valid method reports
// false.
type Geometry struct {
	Type     GeometryType
	Polygons []Polygon
}

// NewPolygon builds a Polygon geometry from an exterior ring and optional holes.
func NewPolygon(rings ...Ring) *Geometry {
	return &Geometry{Type: GeometryPolygon, Polygons: []Polygon{rings}}
}

// NewMultiPolygon builds a MultiPolygon geometry.
func NewMultiPolygon(polygons ...Polygon) *Geometry {
	return &Geometry{Type: GeometryMultiPolygon, Polygons: polygons}
}

// Valid reports whether g is a recognized, well-formed polygonal geometry.
func (g *Geometry) Valid() bool {
	if g == nil || len(g.Polygons) == 0 {
		return false
	}
	switch g.Type {
	case GeometryPolygon:
		if len(g.Polygons) != 1 {
			return false
		}
	case GeometryMultiPolygon:
	default:
		return false
	}
	for _, poly := range g.Polygons {
		if len(poly) == 0 {
			return false
		}
		for _, ring := range poly {
			if !validRing(ring) {
				return false
			}
		}
	}
	return true
}

func validRing(r Ring) bool {
	if len(r) < minRingPositions {
		return false
	}
	for _, p := range r {
		if !finite(p[0]) || !finite(p[1]) {
			return false
		}
	}
	return true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

type geometryJSON struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func (g *Geometry) UnmarshalJSON(data []byte) error {
	*g = Geometry{}

	var aux geometryJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return nil //nolint:nilerr // malformed geometry is unrenderable, not fatal
	}
	g.Type = GeometryType(aux.Type)

	switch g.Type {
	case GeometryPolygon:
		var coords [][][]float64
		if err := json.Unmarshal(aux.Coordinates, &coords); err != nil {
			return nil //nolint:nilerr // see above
		}
		if poly, ok := toPolygon(coords); ok {
			g.Polygons = []Polygon{poly}
		}
	case GeometryMultiPolygon:
		var coords [][][][]float64
		if err := json.Unmarshal(aux.Coordinates, &coords); err != nil {
			return nil //nolint:nilerr // see above
		}
		polys := make([]Polygon, 0, len(coords))
		for _, c := range coords {
			poly, ok := toPolygon(c)
			if !ok {
				return nil
			}
			polys = append(polys, poly)
		}
		g.Polygons = polys
	}
	return nil
}

func toPolygon(coords [][][]float64) (Polygon, bool) {
	poly := make(Polygon, 0, len(coords))
	for _, rc := range coords {
		ring := make(Ring, 0, len(rc))
		for _, pc := range rc {
			if len(pc) < 2 {
				return nil, false
			}
			ring = append(ring, Position{pc[0], pc[1]})
		}
		poly = append(poly, ring)
	}
	return poly, true
}

func (g Geometry) MarshalJSON() ([]byte, error) {
	if !g.Valid() {
		return []byte("null"), nil
	}
	if g.Type == GeometryPolygon {
		return json.Marshal(struct {
			Type        GeometryType `json:"type"`
			Coordinates Polygon      `json:"coordinates"`
		}{g.Type, g.Polygons[0]})
	}
	return json.Marshal(struct {
		Type        GeometryType `json:"type"`
		Coordinates []Polygon    `json:"coordinates"`
	}{g.Type, g.Polygons})
}
