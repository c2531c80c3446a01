package domain

// MapModel is everything the rendering surface needs for one query result.
type MapModel struct {
	Features     FeatureCollection              `json:"features"`
	Styles       map[LevelCode]StyleDescriptor `json:"styles"`
	Sensors      []SensorMarker                `json:"sensors"`
	SkippedAreas int                           `json:"skippedAreas"`
}

// BuildMapModel aggregates a page of warnings and the sensor list into a map model.
func BuildMapModel(warnings []Warning, sensors []Sensor, loc Locales) MapModel {
	features := BuildFeatureCollection(warnings, loc)
	return MapModel{
		Features:     features,
		Styles:       StyleTable(),
		Sensors:      PositionableSensors(sensors),
		SkippedAreas: CountAreas(warnings) - len(features.Features),
	}
}

// Style is the style lookup handed to the renderer.
func (m MapModel) Style(level LevelCode) StyleDescriptor {
	return ResolvePolygonStyle(level)
}

// FeatureStyles returns the style of each feature, index-aligned with Features.
func (m MapModel) FeatureStyles() []StyleDescriptor {
	styles := make([]StyleDescriptor, len(m.Features.Features))
	for i, f := range m.Features.Features {
		styles[i] = m.Style(f.Properties.LevelCode)
	}
	return styles
}

// Summaries returns DescribeFeature for each feature, index-aligned with Features.
func (m MapModel) Summaries() []FeatureSummary {
	out := make([]FeatureSummary, len(m.Features.Features))
	for i, f := range m.Features.Features {
		out[i] = DescribeFeature(f)
	}
	return out
}
