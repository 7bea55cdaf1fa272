package validation

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/payload"
)

// checkField is the field name carried by quality check findings
const checkField = "quality_check"

// CheckEvaluator runs contract quality checks as CEL expressions over `data`.
// Failed or broken checks become warnings and never change is_valid.
type CheckEvaluator struct {
	env *cel.Env

	mu       sync.Mutex
	programs map[string]cel.Program
}

// NewCheckEvaluator builds the CEL environment
func NewCheckEvaluator() (*CheckEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("data", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	return &CheckEvaluator{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Compile checks that expr is a valid boolean expression
func (e *CheckEvaluator) Compile(expr string) error {
	_, err := e.program(expr)
	return err
}

// Evaluate runs every check against data and returns one warning per
// check that failed or could not be evaluated
func (e *CheckEvaluator) Evaluate(checks []string, data payload.Value) []contracts.ValidationError {
	warnings := []contracts.ValidationError{}
	if len(checks) == 0 {
		return warnings
	}

	vars := map[string]any{"data": map[string]any{}}
	if native, ok := data.Native().(map[string]any); ok {
		vars["data"] = native
	}

	for _, expr := range checks {
		prg, err := e.program(expr)
		if err != nil {
			warnings = append(warnings, warning(fmt.Sprintf("quality check %q invalid: %v", expr, err)))
			continue
		}

		out, _, err := prg.Eval(vars)
		if err != nil {
			warnings = append(warnings, warning(fmt.Sprintf("quality check %q error: %v", expr, err)))
			continue
		}

		passed, ok := out.Value().(bool)
		if !ok {
			warnings = append(warnings, warning(fmt.Sprintf("quality check %q returned %v, expected bool", expr, out.Type())))
			continue
		}
		if !passed {
			warnings = append(warnings, warning(fmt.Sprintf("quality check failed: %s", expr)))
		}
	}

	return warnings
}

// program compiles and caches expr
func (e *CheckEvaluator) program(expr string) (cel.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if prg, ok := e.programs[expr]; ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, err
	}

	e.programs[expr] = prg
	return prg, nil
}

func warning(msg string) contracts.ValidationError {
	return contracts.ValidationError{
		Field:    checkField,
		Message:  msg,
		Severity: contracts.SeverityWarning,
	}
}
