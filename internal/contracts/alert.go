package contracts

import "time"

// AlertSeverity grades an alert
type AlertSeverity string

const (
	AlertInfo     AlertSeverity = "info"
	AlertWarning  AlertSeverity = "warning"
	AlertError    AlertSeverity = "error"
	AlertCritical AlertSeverity = "critical"
)

// AlertStatus is the lifecycle state of an alert
type AlertStatus string

const (
	AlertOpen         AlertStatus = "open"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// Alert types raised by the health monitor
const (
	AlertTypeSourceDown        = "source_down"
	AlertTypeValidationFailure = "validation_failure"
	AlertTypeStaleness         = "staleness"
)

// Alert records a data quality incident
type Alert struct {
	ID         int64          `json:"id"`
	AlertType  string         `json:"alert_type"`
	SourceID   string         `json:"source_id"`
	Severity   AlertSeverity  `json:"severity"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	Status     AlertStatus    `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
}
