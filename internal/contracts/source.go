package contracts

// FieldType is the expected runtime category of a payload field
type FieldType string

const (
	FieldFloat FieldType = "float"
	FieldInt   FieldType = "int"
	FieldStr   FieldType = "str"
	FieldBool  FieldType = "bool"
	FieldList  FieldType = "list"
	FieldDict  FieldType = "dict"
)

// Valid reports whether t is one of the known field types
func (t FieldType) Valid() bool {
	switch t {
	case FieldFloat, FieldInt, FieldStr, FieldBool, FieldList, FieldDict:
		return true
	}
	return false
}

// FieldSpec is the declarative rule for one payload field
type FieldSpec struct {
	Name     string    `json:"name" yaml:"name"`
	Type     FieldType `json:"type" yaml:"type"`
	Min      *float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64  `json:"max,omitempty" yaml:"max,omitempty"`
	NotNull  bool      `json:"not_null,omitempty" yaml:"not_null,omitempty"`
	Optional bool      `json:"optional,omitempty" yaml:"optional,omitempty"`
	Enum     []any     `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// FreshnessSLA bounds the age of fetched data.
// Exactly one of MaxLagHours and MaxLagDays is expected to be set (> 0).
type FreshnessSLA struct {
	MaxLagHours float64 `json:"max_lag_hours,omitempty" yaml:"max_lag_hours,omitempty"`
	MaxLagDays  float64 `json:"max_lag_days,omitempty" yaml:"max_lag_days,omitempty"`
}

// IsZero reports whether no bound is defined
func (s FreshnessSLA) IsZero() bool {
	return s.MaxLagHours <= 0 && s.MaxLagDays <= 0
}

// DataContract is the schema and freshness SLA of one data source
// ⭐ SSOT: source_id 당 활성 계약은 하나
type DataContract struct {
	SourceID        string       `json:"source_id" yaml:"source_id"`
	SourceName      string       `json:"source_name" yaml:"source_name"`
	FreshnessSLA    FreshnessSLA `json:"freshness_sla" yaml:"freshness_sla"`
	UpdateFrequency string       `json:"update_frequency,omitempty" yaml:"update_frequency,omitempty"`
	RequiredFields  []FieldSpec  `json:"required_fields" yaml:"required_fields"`
	OptionalFields  []FieldSpec  `json:"optional_fields,omitempty" yaml:"optional_fields,omitempty"`

	// QualityChecks are boolean expressions over the payload.
	// They are documentary unless an evaluator is enabled.
	QualityChecks []string `json:"quality_checks" yaml:"quality_checks"`
}

// Bound is a helper for building FieldSpec ranges
func Bound(v float64) *float64 {
	return &v
}
