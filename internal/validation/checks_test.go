package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/payload"
	"github.com/wonny/evlq/internal/registry"
)

func TestCheckEvaluator_BuiltinsCompile(t *testing.T) {
	ev, err := NewCheckEvaluator()
	require.NoError(t, err)

	for _, c := range registry.Builtin() {
		for _, expr := range c.QualityChecks {
			assert.NoError(t, ev.Compile(expr), "%s: %s", c.SourceID, expr)
		}
	}
}

func TestCheckEvaluator_Evaluate(t *testing.T) {
	ev, err := NewCheckEvaluator()
	require.NoError(t, err)

	data := payload.Map(map[string]payload.Value{
		"bevs":  payload.Int(1000000),
		"phevs": payload.Int(300000),
		"ratio": payload.Float(0.5),
	})

	warnings := ev.Evaluate([]string{
		"data.bevs > 500000",
		"data.bevs + data.phevs > 0",
		"data.ratio > 1",
		"data.missing > 0",
		"data.bevs +",
		"data.bevs",
	}, data)

	require.Len(t, warnings, 4)
	for _, w := range warnings {
		assert.Equal(t, contracts.SeverityWarning, w.Severity)
		assert.Equal(t, "quality_check", w.Field)
	}
	assert.Equal(t, "quality check failed: data.ratio > 1", warnings[0].Message)
}

func TestCheckEvaluator_NonMapData(t *testing.T) {
	ev, err := NewCheckEvaluator()
	require.NoError(t, err)

	warnings := ev.Evaluate([]string{"size(data) == 0"}, payload.List())
	assert.Empty(t, warnings)
}

func TestEnrich(t *testing.T) {
	res := Result{
		IsValid:      false,
		QualityScore: 0.9,
		Errors: []contracts.ValidationError{
			{Field: "a", Message: "a cannot be null", Severity: contracts.SeverityError},
			{Field: "quality_check", Message: "quality check failed: x", Severity: contracts.SeverityWarning},
		},
	}

	out := Enrich(payload.Map(map[string]payload.Value{"a": payload.Null()}), res)
	summary, ok := out.Get(ValidationKey)
	require.True(t, ok)

	isValid, _ := summary.Get("is_valid")
	assert.True(t, isValid.Equal(payload.Bool(false)))
	errCount, _ := summary.Get("error_count")
	assert.True(t, errCount.Equal(payload.Int(1)))
	warnCount, _ := summary.Get("warning_count")
	assert.True(t, warnCount.Equal(payload.Int(1)))
	errs, _ := summary.Get("errors")
	assert.Equal(t, 2, errs.Len())

	list := payload.List(payload.Int(1))
	assert.True(t, Enrich(list, res).Equal(list))
}
