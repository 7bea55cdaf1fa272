package tracking

import (
	"context"

	"github.com/wonny/evlq/internal/payload"
	"github.com/wonny/evlq/internal/validation"
)

// Validate is a stage that validates a successful payload against the
// contract of sourceID and attaches the summary under validation.ValidationKey.
// Errors pass through untouched. It needs no Tracker.
func Validate(v *validation.Validator, sourceID string) Middleware {
	return func(op Operation) Operation {
		return func(ctx context.Context) (payload.Value, error) {
			result, err := op(ctx)
			if err != nil {
				return result, err
			}
			return validation.Enrich(result, v.ValidateData(sourceID, result)), nil
		}
	}
}
