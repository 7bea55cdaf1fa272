package contracts

import "time"

// ReconciliationCheck is the result of comparing one metric across sources
type ReconciliationCheck struct {
	ID             int64              `json:"id"`
	CheckType      string             `json:"check_type"`
	Sources        []string           `json:"sources"`
	CheckedAt      time.Time          `json:"checked_at"`
	AgreementScore float64            `json:"agreement_score"`
	Discrepancies  map[string]float64 `json:"discrepancies"`
	Passed         bool               `json:"passed"`
	Notes          string             `json:"notes,omitempty"`
}
