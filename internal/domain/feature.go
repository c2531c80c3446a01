package domain

import "encoding/json"

// Locales selects which translation feeds each derived label.
type Locales struct {
	Label string // warning type label
	Area  string // affected area names
}

// DefaultLocales labels warnings in English and names places in Swedish.
var DefaultLocales = Locales{Label: LocaleEnglish, Area: LocaleSwedish}

// FeatureProperties are the derived display properties of a map feature.
type FeatureProperties struct {
	WarningTypeLabel string    `json:"warningType"`
	ApproximateStart string    `json:"approximateStart,omitempty"`
	ApproximateEnd   string    `json:"approximateEnd,omitempty"`
	LevelCode        LevelCode `json:"level"`
	AffectedNames    []string  `json:"affectedNames"`
}

// RenderFeature is one renderable warning polygon. It owns a private copy of
// its geometry and is never modified after BuildFeature returns it.
type RenderFeature struct {
	Geometry   *Geometry
	Properties FeatureProperties
}

func (f RenderFeature) MarshalJSON() ([]byte, error) {
	props := f.Properties
	if props.AffectedNames == nil {
		props.AffectedNames = []string{}
	}
	return json.Marshal(struct {
		Type       string            `json:"type"`
		Geometry   *Geometry         `json:"geometry"`
		Properties FeatureProperties `json:"properties"`
	}{"Feature", f.Geometry, props})
}

// BuildFeature converts a warning area into a map feature. It reports false
// when the area has no geometry or the geometry is not a valid Polygon or
// MultiPolygon; such areas are simply left off the map.
func BuildFeature(area WarningArea, loc Locales) (RenderFeature, bool) {
	if !area.Geometry.Valid() {
		return RenderFeature{}, false
	}

	var label string
	if area.EventDescription != nil {
		label = area.EventDescription.Names.Get(loc.Label)
	}

	names := make([]string, 0, len(area.AffectedAreas))
	for _, a := range area.AffectedAreas {
		names = append(names, a.Names.Get(loc.Area))
	}

	return RenderFeature{
		Geometry: cloneGeometry(area.Geometry),
		Properties: FeatureProperties{
			WarningTypeLabel: label,
			ApproximateStart: area.ApproximateStart,
			ApproximateEnd:   area.ApproximateEnd,
			LevelCode:        area.WarningLevel.Code,
			AffectedNames:    names,
		},
	}, true
}

func cloneGeometry(g *Geometry) *Geometry {
	polys := make([]Polygon, len(g.Polygons))
	for i, poly := range g.Polygons {
		rings := make(Polygon, len(poly))
		for j, ring := range poly {
			rings[j] = append(Ring(nil), ring...)
		}
		polys[i] = rings
	}
	return &Geometry{Type: g.Type, Polygons: polys}
}
