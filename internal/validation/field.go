package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wonny/evlq/internal/contracts"
	"github.com/wonny/evlq/internal/payload"
)

// typeLabels are the names used in type mismatch messages
var typeLabels = map[contracts.FieldType]string{
	contracts.FieldFloat: "float",
	contracts.FieldInt:   "int",
	contracts.FieldStr:   "string",
	contracts.FieldBool:  "boolean",
	contracts.FieldList:  "list",
	contracts.FieldDict:  "dict",
}

// ValidateField checks one value against its FieldSpec.
// An absent field is passed as payload.Null().
//
// Rules run in order: optional short-circuit, not-null, type, range, enum.
// Range and enum are skipped once the type check has failed.
func ValidateField(spec contracts.FieldSpec, value payload.Value, fieldName string) []contracts.ValidationError {
	errs := []contracts.ValidationError{}

	if spec.Optional && value.IsNull() {
		return errs
	}

	if spec.NotNull && value.IsNull() {
		return append(errs, newError(fieldName, fmt.Sprintf("%s cannot be null", fieldName), value))
	}

	if spec.Type != "" && !matchesType(spec.Type, value) {
		msg := fmt.Sprintf("Expected %s, got %s", typeLabels[spec.Type], value.Kind())
		return append(errs, newError(fieldName, msg, value))
	}

	// bool is never numeric here, so ranges never apply to it
	if n, ok := value.Number(); ok {
		if spec.Min != nil && n < *spec.Min {
			msg := fmt.Sprintf("%s = %s below minimum %s", fieldName, value.Display(), formatBound(*spec.Min))
			errs = append(errs, newError(fieldName, msg, value))
		}
		if spec.Max != nil && n > *spec.Max {
			msg := fmt.Sprintf("%s = %s above maximum %s", fieldName, value.Display(), formatBound(*spec.Max))
			errs = append(errs, newError(fieldName, msg, value))
		}
	}

	if len(spec.Enum) > 0 && !inEnum(spec.Enum, value) {
		msg := fmt.Sprintf("%s must be one of %s, got %s", fieldName, formatEnum(spec.Enum), value.Display())
		errs = append(errs, newError(fieldName, msg, value))
	}

	return errs
}

// matchesType reports whether value belongs to the runtime category of t.
// A float field accepts ints; an int field rejects bools and floats.
func matchesType(t contracts.FieldType, value payload.Value) bool {
	switch t {
	case contracts.FieldFloat:
		return value.IsNumber()
	case contracts.FieldInt:
		return value.Kind() == payload.KindInt
	case contracts.FieldStr:
		return value.Kind() == payload.KindString
	case contracts.FieldBool:
		return value.Kind() == payload.KindBool
	case contracts.FieldList:
		return value.Kind() == payload.KindList
	case contracts.FieldDict:
		return value.Kind() == payload.KindMap
	default:
		return true
	}
}

// inEnum compares numbers by value so 1 and 1.0 are the same member
func inEnum(enum []any, value payload.Value) bool {
	n, isNum := value.Number()
	for _, member := range enum {
		m := payload.FromGo(member)
		if isNum {
			if mn, ok := m.Number(); ok && mn == n {
				return true
			}
			continue
		}
		if m.Equal(value) {
			return true
		}
	}
	return false
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatEnum(enum []any) string {
	parts := make([]string, len(enum))
	for i, member := range enum {
		parts[i] = payload.FromGo(member).Display()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func newError(field, msg string, value payload.Value) contracts.ValidationError {
	return contracts.ValidationError{
		Field:       field,
		Message:     msg,
		Severity:    contracts.SeverityError,
		ActualValue: value,
	}
}
