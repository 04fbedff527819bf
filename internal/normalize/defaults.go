package normalize

import "taxbridge/internal/flat"

// Default ages and year.
const (
	DefaultAdultAge          = 40
	DefaultChildAge          = 10
	DefaultAdultDependentAge = 19
	DefaultYear              = 2021
	DefaultStateCode         = 44
)

// Year bounds accepted after defaulting.
const (
	MinYear = 1960
	MaxYear = 2100
)

// Policy decides whether a stored zero counts as missing.
type Policy int

const (
	// ZeroIsMissing replaces absent and zero values.
	ZeroIsMissing Policy = iota
	// ZeroIsValue replaces absent values only.
	ZeroIsValue
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case ZeroIsMissing:
		return "zero-is-missing"
	case ZeroIsValue:
		return "zero-is-value"
	default:
		return "unknown"
	}
}

// Default is the documented fallback of one field.
type Default struct {
	Field  flat.Field
	Value  float64
	Policy Policy
}

// Applies reports whether the default replaces the stored value.
func (d Default) Applies(rec *flat.Record) bool {
	v, ok := rec.Lookup(d.Field)
	if !ok {
		return true
	}

	return d.Policy == ZeroIsMissing && v == 0
}

// Defaults returns the default table using year as the fallback tax year.
func Defaults(year int) []Default {
	return []Default{
		{Field: flat.FieldTaxsimID, Value: 0, Policy: ZeroIsValue},
		{Field: flat.FieldYear, Value: float64(year), Policy: ZeroIsMissing},
		{Field: flat.FieldState, Value: DefaultStateCode, Policy: ZeroIsMissing},
		{Field: flat.FieldMstat, Value: float64(flat.MaritalSingle), Policy: ZeroIsMissing},
		{Field: flat.FieldPage, Value: DefaultAdultAge, Policy: ZeroIsMissing},
		{Field: flat.FieldSage, Value: DefaultAdultAge, Policy: ZeroIsMissing},
		{Field: flat.FieldDepx, Value: 0, Policy: ZeroIsValue},
		{Field: flat.FieldIdtl, Value: float64(flat.LevelStandard), Policy: ZeroIsValue},
	}
}

// integralFields are truncated to whole numbers after defaulting.
var integralFields = []flat.Field{
	flat.FieldTaxsimID,
	flat.FieldYear,
	flat.FieldState,
	flat.FieldMstat,
	flat.FieldPage,
	flat.FieldSage,
	flat.FieldDepx,
	flat.FieldIdtl,
}
