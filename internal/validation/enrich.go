package validation

import (
	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/payload"
)

// ValidationKey is the payload key Enrich attaches the summary under
const ValidationKey = "_validation"

// Summary returns the compact validation summary attached to responses
func Summary(res Result) payload.Value {
	errs := make([]payload.Value, 0, len(res.Errors))
	for _, e := range res.Errors {
		errs = append(errs, payload.Map(map[string]payload.Value{
			"field":        payload.String(e.Field),
			"message":      payload.String(e.Message),
			"severity":     payload.String(string(e.Severity)),
			"actual_value": e.ActualValue,
		}))
	}

	return payload.Map(map[string]payload.Value{
		"is_valid":      payload.Bool(res.IsValid),
		"quality_score": payload.Float(res.QualityScore),
		"error_count":   payload.Int(int64(contracts.CountSeverity(res.Errors, contracts.SeverityError))),
		"warning_count": payload.Int(int64(contracts.CountSeverity(res.Errors, contracts.SeverityWarning))),
		"errors":        payload.List(errs...),
	})
}

// Enrich returns a copy of data with the validation summary attached.
// Non-map payloads are returned unchanged.
func Enrich(data payload.Value, res Result) payload.Value {
	if data.Kind() != payload.KindMap {
		return data
	}
	return data.With(ValidationKey, Summary(res))
}
