package domain

import (
	"fmt"
	"strings"
)

// affectedSeparator joins affected-area names in feature summaries.
const affectedSeparator = ", "

// FeatureSummary is the renderer-agnostic popup content for a feature.
type FeatureSummary struct {
	Type     string `json:"type"`
	Level    string `json:"level"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Affected string `json:"affected"`
}

// DescribeFeature summarizes a feature for on-demand display. Missing fields
// come out as empty strings.
func DescribeFeature(f RenderFeature) FeatureSummary {
	p := f.Properties
	return FeatureSummary{
		Type:     p.WarningTypeLabel,
		Level:    string(p.LevelCode),
		Start:    p.ApproximateStart,
		End:      p.ApproximateEnd,
		Affected: strings.Join(p.AffectedNames, affectedSeparator),
	}
}

func (s FeatureSummary) String() string {
	return fmt.Sprintf("Warning\nType: %s\nLevel: %s\nStart: %s\nEnd: %s\nAffected: %s",
		s.Type, s.Level, s.Start, s.End, s.Affected)
}
