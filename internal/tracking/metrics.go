package tracking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wonny/evlq/internal/contracts"
)

// Fetch metrics
var (
	// fetchTotal counts tracked fetch attempts by outcome
	fetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evlq_fetch_total",
			Help: "Tracked external fetch attempts",
		},
		[]string{"source_id", "outcome"},
	)

	// fetchDuration observes wrapped call latency
	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evlq_fetch_duration_seconds",
			Help:    "Latency of tracked external fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source_id"},
	)

	// qualityScore is the score of the latest successful fetch
	qualityScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "evlq_fetch_quality_score",
			Help: "Data quality score of the latest successful fetch",
		},
		[]string{"source_id"},
	)

	// validationErrors counts error-severity findings
	validationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evlq_validation_errors_total",
			Help: "Validation errors found in fetched payloads",
		},
		[]string{"source_id"},
	)
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// observe updates the fetch metrics from one finished record
func observe(rec *contracts.FetchRecord) {
	fetchDuration.WithLabelValues(rec.SourceID).Observe(rec.ResponseTimeMS / 1000)

	if !rec.Success {
		fetchTotal.WithLabelValues(rec.SourceID, outcomeFailure).Inc()
		return
	}

	fetchTotal.WithLabelValues(rec.SourceID, outcomeSuccess).Inc()
	qualityScore.WithLabelValues(rec.SourceID).Set(rec.DataQualityScore)
	if n := contracts.CountSeverity(rec.ValidationErrors, contracts.SeverityError); n > 0 {
		validationErrors.WithLabelValues(rec.SourceID).Add(float64(n))
	}
}
