package contracts

import "time"

// HealthStatus classifies a source over its recent window
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthDown     HealthStatus = "down"
)

// SourceHealth is a derived, time-windowed snapshot of one source.
// It is computed from FetchRecord history and is not a system of record.
type SourceHealth struct {
	ID                  int64        `json:"id,omitempty"`
	SourceID            string       `json:"source_id"`
	CheckedAt           time.Time    `json:"checked_at"`
	Status              HealthStatus `json:"status"`
	SuccessRate24h      float64      `json:"success_rate_24h"`
	AvgResponseTimeMS   float64      `json:"avg_response_time_ms"`
	DataFreshnessHours  float64      `json:"data_freshness_hours"`
	QualityScore        float64      `json:"quality_score"`
	LastSuccess         *time.Time   `json:"last_success,omitempty"`
	LastFailure         *time.Time   `json:"last_failure,omitempty"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
}
