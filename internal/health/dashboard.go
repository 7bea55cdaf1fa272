package health

import (
	"math"
	"time"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/registry"
	"github.com/wonny/evlq/internal/validation"
)

// Dashboard source statuses
const (
	StatusError    = "error"
	StatusOK       = "ok"
	StatusPartial  = "partial"
	StatusDegraded = "degraded"
)

// SourceQuality is one dashboard row
type SourceQuality struct {
	SourceID           string    `json:"source_id"`
	SourceName         string    `json:"source_name"`
	QualityPercent     int       `json:"quality_percent"`
	QualityDescription string    `json:"quality_description"`
	Status             string    `json:"status"`
	ResponseTimeMS     int       `json:"response_time_ms"`
	ErrorCount         int       `json:"error_count"`
	IsValid            bool      `json:"is_valid"`
	LastUpdated        time.Time `json:"last_updated"`
}

// DashboardData is the quality dashboard payload
type DashboardData struct {
	OverallQualityPercent int             `json:"overall_quality_percent"`
	SourcesActive         int             `json:"sources_active"`
	SourcesTotal          int             `json:"sources_total"`
	Sources               []SourceQuality `json:"sources"`
}

// SourceStatus maps the latest fetch of a source to a dashboard status
func SourceStatus(score float64, success bool) string {
	switch {
	case !success:
		return StatusError
	case score >= 0.8:
		return StatusOK
	case score >= 0.5:
		return StatusPartial
	default:
		return StatusDegraded
	}
}

// Dashboard summarises the latest record of each source.
// Sources with a zero score do not count as active.
func Dashboard(reg *registry.Registry, latest []contracts.FetchRecord) DashboardData {
	d := DashboardData{Sources: make([]SourceQuality, 0, len(latest))}

	var total float64
	for _, r := range latest {
		name := r.SourceID
		if c, ok := reg.Get(r.SourceID); ok && c.SourceName != "" {
			name = c.SourceName
		}

		errCount := contracts.CountSeverity(r.ValidationErrors, contracts.SeverityError)
		if !r.Success {
			errCount++
		}

		d.Sources = append(d.Sources, SourceQuality{
			SourceID:           r.SourceID,
			SourceName:         name,
			QualityPercent:     percent(r.DataQualityScore),
			QualityDescription: validation.QualityDescription(r.DataQualityScore),
			Status:             SourceStatus(r.DataQualityScore, r.Success),
			ResponseTimeMS:     int(r.ResponseTimeMS),
			ErrorCount:         errCount,
			IsValid:            r.Success && r.ValidationPassed,
			LastUpdated:        r.FetchedAt,
		})

		if r.DataQualityScore > 0 {
			d.SourcesActive++
			total += r.DataQualityScore
		}
	}

	d.SourcesTotal = len(d.Sources)
	if d.SourcesTotal > 0 {
		d.OverallQualityPercent = percent(total / float64(d.SourcesTotal))
	}
	return d
}

// percent truncates to a whole percent; the epsilon absorbs float error (0.7*100)
func percent(score float64) int {
	return int(math.Floor(score*100 + 1e-9))
}
