package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/registry"
)

func TestSourceStatus(t *testing.T) {
	tests := []struct {
		score   float64
		success bool
		want    string
	}{
		{1.0, false, StatusError},
		{1.0, true, StatusOK},
		{0.8, true, StatusOK},
		{0.7, true, StatusPartial},
		{0.5, true, StatusPartial},
		{0.3, true, StatusDegraded},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SourceStatus(tt.score, tt.success), "score=%v success=%v", tt.score, tt.success)
	}
}

func TestDashboard(t *testing.T) {
	latest := []contracts.FetchRecord{
		{SourceID: "entsoe", FetchedAt: now, Success: true, ValidationPassed: true, DataQualityScore: 1.0, ResponseTimeMS: 321.7},
		{SourceID: "eafo", FetchedAt: now, Success: true, DataQualityScore: 0.7, ValidationErrors: []contracts.ValidationError{
			{Field: "total_bev", Severity: contracts.SeverityError},
		}},
		{SourceID: "eurostat", FetchedAt: now.Add(-time.Hour), Success: false, DataQualityScore: 0},
	}

	d := Dashboard(registry.NewDefault(), latest)

	assert.Equal(t, 3, d.SourcesTotal)
	assert.Equal(t, 2, d.SourcesActive)
	assert.Equal(t, 56, d.OverallQualityPercent)
	require.Len(t, d.Sources, 3)

	assert.Equal(t, "ENTSO-E Transparency Platform", d.Sources[0].SourceName)
	assert.Equal(t, 100, d.Sources[0].QualityPercent)
	assert.Equal(t, "Excellent", d.Sources[0].QualityDescription)
	assert.Equal(t, StatusOK, d.Sources[0].Status)
	assert.Equal(t, 321, d.Sources[0].ResponseTimeMS)
	assert.True(t, d.Sources[0].IsValid)

	assert.Equal(t, 70, d.Sources[1].QualityPercent)
	assert.Equal(t, "Good", d.Sources[1].QualityDescription)
	assert.Equal(t, StatusPartial, d.Sources[1].Status)
	assert.Equal(t, 1, d.Sources[1].ErrorCount)
	assert.False(t, d.Sources[1].IsValid)

	assert.Equal(t, StatusError, d.Sources[2].Status)
	assert.Equal(t, "Very Poor", d.Sources[2].QualityDescription)
	assert.Equal(t, 1, d.Sources[2].ErrorCount)
}

func TestDashboard_Empty(t *testing.T) {
	d := Dashboard(registry.NewDefault(), nil)
	assert.Equal(t, 0, d.SourcesTotal)
	assert.Equal(t, 0, d.OverallQualityPercent)
	assert.NotNil(t, d.Sources)
}

func TestDashboard_UnknownSourceKeepsID(t *testing.T) {
	d := Dashboard(registry.New(), []contracts.FetchRecord{{SourceID: "custom", Success: true, DataQualityScore: 0.9}})
	require.Len(t, d.Sources, 1)
	assert.Equal(t, "custom", d.Sources[0].SourceName)
	assert.Equal(t, 90, d.OverallQualityPercent)
}
