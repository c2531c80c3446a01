package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeFeature(t *testing.T) {
	f, ok := BuildFeature(orangeArea(), DefaultLocales)
	require.True(t, ok)

	summary := DescribeFeature(f)

	assert.Equal(t, FeatureSummary{
		Type:     "Strong wind",
		Level:    "ORANGE",
		Start:    testStart,
		End:      testEnd,
		Affected: "Stockholms län, Uppsala län, Stockholms län",
	}, summary)
	assert.Equal(t,
		"Warning\nType: Strong wind\nLevel: ORANGE\nStart: "+testStart+"\nEnd: "+testEnd+"\nAffected: Stockholms län, Uppsala län, Stockholms län",
		summary.String())
}

func TestDescribeFeature_MissingFields(t *testing.T) {
	summary := DescribeFeature(RenderFeature{Properties: FeatureProperties{LevelCode: LevelUnknown}})

	assert.Equal(t, FeatureSummary{Level: "UNKNOWN"}, summary)
	assert.Equal(t, "Warning\nType: \nLevel: UNKNOWN\nStart: \nEnd: \nAffected: ", summary.String())
}
