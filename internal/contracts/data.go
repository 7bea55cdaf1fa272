package contracts

import (
	"time"

	"github.com/wonny/evlq/internal/payload"
)

// FetchRecord is the durable audit row for one external call attempt
// ⭐ SSOT: 외부 호출 1회 = FetchRecord 1건 (append-only)
type FetchRecord struct {
	ID             int64     `json:"id"`
	SourceID       string    `json:"source_id"`
	SourceURL      string    `json:"source_url"`
	FetchedAt      time.Time `json:"fetched_at"`
	ResponseTimeMS float64   `json:"response_time_ms"`

	// StatusCode 0 means the call failed before a status was obtained
	StatusCode   int    `json:"status_code"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`

	ContentHash   string `json:"content_hash"`
	DataSizeBytes int    `json:"data_size_bytes"`
	RowCount      int    `json:"row_count"`

	ValidationPassed bool              `json:"validation_passed"`
	ValidationErrors []ValidationError `json:"validation_errors"`
	DataQualityScore float64           `json:"data_quality_score"`
}

// Severity of a validation finding
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError describes one data-shape problem found in a payload.
// It is a finding, not a Go error.
type ValidationError struct {
	Field       string        `json:"field"`
	Message     string        `json:"message"`
	Severity    Severity      `json:"severity"`
	ActualValue payload.Value `json:"actual_value"`
}

// CountSeverity returns the number of findings with severity s
func CountSeverity(errs []ValidationError, s Severity) int {
	n := 0
	for _, e := range errs {
		if e.Severity == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether any finding has error severity
func HasErrors(errs []ValidationError) bool {
	return CountSeverity(errs, SeverityError) > 0
}
