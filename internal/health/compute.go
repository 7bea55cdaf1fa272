// Package health derives source health snapshots from fetch history and
// raises the alerts that go with them.
package health

import (
	"sort"
	"time"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/freshness"
)

// Thresholds decide when a source is degraded or down
type Thresholds struct {
	// ConsecutiveFailures at or above this marks the source down
	ConsecutiveFailures int
	// MinSuccessRate below this marks the source degraded
	MinSuccessRate float64
	// MinQuality below this marks the source degraded
	MinQuality float64
}

// DefaultThresholds matches the alert policy defaults
var DefaultThresholds = Thresholds{
	ConsecutiveFailures: 3,
	MinSuccessRate:      0.9,
	MinQuality:          0.7,
}

// Report is one computed snapshot plus the freshness verdict behind it
type Report struct {
	Health    contracts.SourceHealth `json:"health"`
	Freshness freshness.Verdict      `json:"freshness"`
	Stale     bool                   `json:"stale"`
}

// Compute derives the health of sourceID from records of one window.
// records may be in any order. An empty window is down with zero metrics.
func Compute(sourceID string, records []contracts.FetchRecord, contract contracts.DataContract, now time.Time, th Thresholds) Report {
	h := contracts.SourceHealth{
		SourceID:  sourceID,
		CheckedAt: now.UTC(),
		Status:    contracts.HealthDown,
	}
	if len(records) == 0 {
		return Report{Health: h}
	}

	ordered := make([]contracts.FetchRecord, len(records))
	copy(ordered, records)
	// newest first; equal timestamps fall back to id descending like the stores
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].FetchedAt.Equal(ordered[j].FetchedAt) {
			return ordered[i].FetchedAt.After(ordered[j].FetchedAt)
		}
		return ordered[i].ID > ordered[j].ID
	})

	var (
		successes    int
		totalLatency float64
		totalQuality float64
	)
	for i := range ordered {
		r := &ordered[i]
		totalLatency += r.ResponseTimeMS

		if r.Success {
			successes++
			totalQuality += r.DataQualityScore
			if h.LastSuccess == nil {
				at := r.FetchedAt.UTC()
				h.LastSuccess = &at
			}
		} else if h.LastFailure == nil {
			at := r.FetchedAt.UTC()
			h.LastFailure = &at
		}
	}

	// 최신 기록부터 연속 실패 수
	for _, r := range ordered {
		if r.Success {
			break
		}
		h.ConsecutiveFailures++
	}

	h.SuccessRate24h = float64(successes) / float64(len(ordered))
	h.AvgResponseTimeMS = totalLatency / float64(len(ordered))
	if successes > 0 {
		h.QualityScore = totalQuality / float64(successes)
	}

	rep := Report{Health: h}
	if h.LastSuccess != nil {
		age := now.Sub(*h.LastSuccess)
		rep.Health.DataFreshnessHours = age.Hours()
		rep.Freshness = freshness.Evaluate(contract.FreshnessSLA, age)
		rep.Stale = !rep.Freshness.Fresh
	}

	rep.Health.Status = classify(rep, th)
	return rep
}

func classify(rep Report, th Thresholds) contracts.HealthStatus {
	h := rep.Health
	switch {
	case h.LastSuccess == nil:
		return contracts.HealthDown
	case th.ConsecutiveFailures > 0 && h.ConsecutiveFailures >= th.ConsecutiveFailures:
		return contracts.HealthDown
	case h.SuccessRate24h < th.MinSuccessRate, h.QualityScore < th.MinQuality, rep.Stale:
		return contracts.HealthDegraded
	default:
		return contracts.HealthHealthy
	}
}
