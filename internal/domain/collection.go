package domain

import "encoding/json"

// FeatureCollection is the GeoJSON FeatureCollection handed to the map.
type FeatureCollection struct {
	Features []RenderFeature
}

func (c FeatureCollection) MarshalJSON() ([]byte, error) {
	features := c.Features
	if features == nil {
		features = []RenderFeature{}
	}
	return json.Marshal(struct {
		Type     string          `json:"type"`
		Features []RenderFeature `json:"features"`
	}{"FeatureCollection", features})
}

// BuildFeatureCollection flattens the warning areas of all warnings into map
// features, warnings first then areas, in input order. Unrenderable areas are
// dropped. The same input always yields the same order, so overlapping
// polygons stack identically on every render.
func BuildFeatureCollection(warnings []Warning, loc Locales) FeatureCollection {
	var features []RenderFeature
	for _, w := range warnings {
		for _, area := range w.WarningAreas {
			if f, ok := BuildFeature(area, loc); ok {
				features = append(features, f)
			}
		}
	}
	return FeatureCollection{Features: features}
}

// CountAreas returns the total number of warning areas across warnings.
func CountAreas(warnings []Warning) int {
	n := 0
	for _, w := range warnings {
		n += len(w.WarningAreas)
	}
	return n
}
