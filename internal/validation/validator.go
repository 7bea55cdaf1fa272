// Package validation checks fetched payloads against their data contracts
// and turns the findings into a quality score.
package validation

import (
	"fmt"
	"sort"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/payload"
	"github.com/wonny/evlq/internal/registry"
)

// Result is the verdict for one payload
type Result struct {
	IsValid      bool                        `json:"is_valid"`
	Errors       []contracts.ValidationError `json:"errors"`
	QualityScore float64                     `json:"quality_score"`
}

// Validator validates payloads using the contracts of a registry
// ⭐ SSOT: 계약 기반 검증은 이 Validator에서만
type Validator struct {
	registry *registry.Registry
	checks   *CheckEvaluator
}

// Option configures a Validator
type Option func(*Validator)

// WithCheckEvaluator enables evaluation of contract quality checks.
// Without it the checks are documentary only.
func WithCheckEvaluator(e *CheckEvaluator) Option {
	return func(v *Validator) { v.checks = e }
}

// NewValidator creates a Validator bound to reg
func NewValidator(reg *registry.Registry, opts ...Option) *Validator {
	v := &Validator{registry: reg}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Registry returns the registry the validator reads contracts from
func (v *Validator) Registry() *registry.Registry {
	return v.registry
}

// ValidateSourceData is the entry point used by the API layer
func (v *Validator) ValidateSourceData(sourceID string, data payload.Value) Result {
	return v.ValidateData(sourceID, data)
}

// ValidateData validates data against the contract of sourceID.
// Sources without a contract are trivially valid with score 1.0.
func (v *Validator) ValidateData(sourceID string, data payload.Value) Result {
	contract, ok := v.registry.Get(sourceID)
	if !ok {
		return Result{IsValid: true, Errors: []contracts.ValidationError{}, QualityScore: 1.0}
	}

	errs := []contracts.ValidationError{}

	for _, spec := range contract.RequiredFields {
		if value, found := data.Get(spec.Name); found {
			errs = append(errs, ValidateField(spec, value, spec.Name)...)
			continue
		}

		if value, found := lookupNested(data, spec.Name); found {
			errs = append(errs, ValidateField(spec, value, spec.Name)...)
			continue
		}

		if !spec.Optional {
			errs = append(errs, contracts.ValidationError{
				Field:    spec.Name,
				Message:  fmt.Sprintf("Required field %s is missing", spec.Name),
				Severity: contracts.SeverityError,
			})
		}
	}

	for _, spec := range contract.OptionalFields {
		if value, found := data.Get(spec.Name); found {
			errs = append(errs, ValidateField(spec, value, spec.Name)...)
		}
	}

	if v.checks != nil {
		errs = append(errs, v.checks.Evaluate(contract.QualityChecks, data)...)
	}

	return Result{
		IsValid:      !contracts.HasErrors(errs),
		Errors:       errs,
		QualityScore: CalculateQualityScore(errs),
	}
}

// lookupNested searches exactly one level below the top of data:
// the first map-valued top-level field (in key order) holding name wins.
// It never recurses further.
func lookupNested(data payload.Value, name string) (payload.Value, bool) {
	m, ok := data.AsMap()
	if !ok {
		return payload.Value{}, false
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if child, ok := m[k].Get(name); ok {
			return child, true
		}
	}
	return payload.Value{}, false
}
