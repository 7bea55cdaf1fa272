// Package reconcile compares one metric as reported by several sources.
package reconcile

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/recorder"
)

// DefaultTolerance is the spread accepted when a caller passes none
const DefaultTolerance = 0.1

// Compare scores the agreement of values keyed by source id.
//
// AgreementScore is 1 - (max-min)/|max|, or 1.0 when max is 0 or fewer than
// two sources report. Discrepancies are each source's deviation from the
// median, relative to it when the median is non-zero. The check passes when
// AgreementScore >= 1 - tolerance.
func Compare(checkType string, values map[string]float64, tolerance float64, at time.Time) contracts.ReconciliationCheck {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	sources := make([]string, 0, len(values))
	for id := range values {
		sources = append(sources, id)
	}
	sort.Strings(sources)

	check := contracts.ReconciliationCheck{
		CheckType:      checkType,
		Sources:        sources,
		CheckedAt:      at.UTC(),
		AgreementScore: 1.0,
		Discrepancies:  make(map[string]float64, len(sources)),
		Passed:         true,
	}
	if len(sources) < 2 {
		check.Notes = "fewer than two sources, nothing to reconcile"
		return check
	}

	nums := make([]float64, len(sources))
	for i, id := range sources {
		nums[i] = values[id]
	}
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if hi != 0 {
		check.AgreementScore = math.Max(0, 1-(hi-lo)/math.Abs(hi))
	}

	med := median(sorted)
	for i, id := range sources {
		d := nums[i] - med
		if med != 0 {
			d /= math.Abs(med)
		}
		check.Discrepancies[id] = d
	}

	check.Passed = check.AgreementScore >= 1-tolerance
	check.Notes = fmt.Sprintf("spread %s..%s across %d sources", format(lo), format(hi), len(sources))
	return check
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func format(f float64) string {
	return fmt.Sprintf("%g", f)
}

// Reconciler runs comparisons and records them
type Reconciler struct {
	recorder *recorder.Recorder
	now      func() time.Time
}

// New creates a Reconciler
func New(rec *recorder.Recorder) *Reconciler {
	return &Reconciler{recorder: rec, now: time.Now}
}

// Run compares values and stores the result best-effort
func (r *Reconciler) Run(ctx context.Context, checkType string, values map[string]float64, tolerance float64) contracts.ReconciliationCheck {
	check := Compare(checkType, values, tolerance, r.now())
	r.recorder.StoreReconciliation(ctx, &check)
	return check
}
