package flat

import "math"

// MaritalStatus is the filing status carried by the mstat column.
type MaritalStatus int

// Marital status codes understood by the flat schema. Every other code
// (separate, dependent taxpayer, head of household) behaves as Other.
const (
	MaritalOther  MaritalStatus = 0
	MaritalSingle MaritalStatus = 1
	MaritalJoint  MaritalStatus = 2
)

// String returns the lower-case status name.
func (m MaritalStatus) String() string {
	switch m {
	case MaritalSingle:
		return "single"
	case MaritalJoint:
		return "joint"
	default:
		return "other"
	}
}

// HasSpouse reports whether a secondary taxpayer is part of the household.
func (m MaritalStatus) HasSpouse() bool {
	return m == MaritalJoint
}

// Level is the output-detail level carried by the idtl column.
type Level int

// Output-detail levels.
const (
	LevelStandard Level = 0
	LevelFull     Level = 2
	LevelText     Level = 5
)

// IsKnown reports whether l is one of the declared levels.
func (l Level) IsKnown() bool {
	return l == LevelStandard || l == LevelFull || l == LevelText
}

// Record is one tax-filing unit in the flat schema.
//
// Every field keeps a presence bit next to its value, so an absent column
// can be told apart from a column that holds zero. Record is a value type:
// copies are independent.
type Record struct {
	values  [NumFields]float64
	present [NumFields]bool
}

// Get returns the value of f, or 0 when f is absent.
func (r *Record) Get(f Field) float64 {
	return r.values[f]
}

// Lookup returns the value of f and whether it is present.
func (r *Record) Lookup(f Field) (float64, bool) {
	return r.values[f], r.present[f]
}

// Has reports whether f is present.
func (r *Record) Has(f Field) bool {
	return r.present[f]
}

// Set stores v for f and marks it present.
func (r *Record) Set(f Field, v float64) {
	r.values[f] = v
	r.present[f] = true
}

// Unset removes f from the record.
func (r *Record) Unset(f Field) {
	r.values[f] = 0
	r.present[f] = false
}

// Int returns the value of f truncated toward zero.
// Non-finite values yield 0.
func (r *Record) Int(f Field) int {
	v := r.values[f]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return int(v)
}

// ID returns the record identifier.
func (r *Record) ID() int64 {
	return int64(r.Int(FieldTaxsimID))
}

// Year returns the tax year.
func (r *Record) Year() int {
	return r.Int(FieldYear)
}

// StateCode returns the compact numeric state code.
func (r *Record) StateCode() int {
	return r.Int(FieldState)
}

// Marital returns the filing status.
func (r *Record) Marital() MaritalStatus {
	switch code := r.Int(FieldMstat); code {
	case int(MaritalSingle), int(MaritalJoint):
		return MaritalStatus(code)
	default:
		return MaritalOther
	}
}

// Dependents returns the dependent count; negative counts yield 0. It may
// exceed MaxDependents, in which case the extra dependents have no age column.
func (r *Record) Dependents() int {
	return max(r.Int(FieldDepx), 0)
}

// Level returns the output-detail level.
func (r *Record) Level() Level {
	return Level(r.Int(FieldIdtl))
}

// DependentAge returns the age of the i-th dependent (1-based) and whether
// it is set to a usable value.
func (r *Record) DependentAge(i int) (int, bool) {
	f, ok := AgeField(i)
	if !ok {
		return 0, false
	}

	v, ok := r.Lookup(f)
	if !ok || math.IsNaN(v) {
		return 0, false
	}

	return int(v), true
}

// Fields returns the present fields in column order.
func (r *Record) Fields() []Field {
	var fields []Field

	for f := range Field(NumFields) {
		if r.present[f] {
			fields = append(fields, f)
		}
	}

	return fields
}

// Map returns the present fields keyed by column name.
func (r *Record) Map() map[string]float64 {
	m := make(map[string]float64)
	for _, f := range r.Fields() {
		m[f.String()] = r.values[f]
	}

	return m
}

// NewRecord builds a record from column values.
func NewRecord(values map[Field]float64) Record {
	var r Record
	for f, v := range values {
		r.Set(f, v)
	}

	return r
}
