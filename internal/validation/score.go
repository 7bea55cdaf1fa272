package validation

import "github.com/wonny/evlq/internal/contracts"

// CalculateQualityScore maps validation findings to a score in [0, 1].
// It steps on the number of error-severity findings; warnings alone cost 0.1.
//
//	none → 1.0, warnings only → 0.9, 1-2 → 0.7, 3-5 → 0.5, 6-10 → 0.3, 11+ → 0.1
func CalculateQualityScore(errs []contracts.ValidationError) float64 {
	if len(errs) == 0 {
		return 1.0
	}

	n := contracts.CountSeverity(errs, contracts.SeverityError)

	switch {
	case n == 0 && contracts.CountSeverity(errs, contracts.SeverityWarning) > 0:
		return 0.9
	case n <= 2:
		return 0.7
	case n <= 5:
		return 0.5
	case n <= 10:
		return 0.3
	default:
		return 0.1
	}
}

// QualityDescription is the human label shown on the dashboard for a score
func QualityDescription(score float64) string {
	switch {
	case score >= 0.9:
		return "Excellent"
	case score >= 0.7:
		return "Good"
	case score >= 0.5:
		return "Fair"
	case score >= 0.3:
		return "Poor"
	default:
		return "Very Poor"
	}
}
