package flat

import (
	"fmt"
	"strings"
)

//go:generate go tool stringer -type=Field -linecomment -output=field_string.go

// Field identifies one column of the flat schema.
// Constants are declared in the column order the reference calculator reads.
type Field int

const (
	FieldTaxsimID Field = iota // taxsimid
	FieldYear                  // year
	FieldState                 // state
	FieldMstat                 // mstat
	FieldPage                  // page
	FieldSage                  // sage
	FieldDepx                  // depx

	// Legacy cumulative dependent counts (under 13, under 17, under 18).
	FieldDep13 // dep13
	FieldDep17 // dep17
	FieldDep18 // dep18

	FieldAge1  // age1
	FieldAge2  // age2
	FieldAge3  // age3
	FieldAge4  // age4
	FieldAge5  // age5
	FieldAge6  // age6
	FieldAge7  // age7
	FieldAge8  // age8
	FieldAge9  // age9
	FieldAge10 // age10
	FieldAge11 // age11

	FieldPwages    // pwages
	FieldSwages    // swages
	FieldPsemp     // psemp
	FieldSsemp     // ssemp
	FieldDividends // dividends
	FieldIntrec    // intrec
	FieldStcg      // stcg
	FieldLtcg      // ltcg
	FieldOtherprop // otherprop
	FieldNonprop   // nonprop
	FieldPensions  // pensions
	FieldGssi      // gssi
	FieldPui       // pui
	FieldSui       // sui
	FieldTransfers // transfers
	FieldRentpaid  // rentpaid
	FieldProptax   // proptax
	FieldOtheritem // otheritem
	FieldChildcare // childcare
	FieldMortgage  // mortgage
	FieldScorp     // scorp
	FieldPbusinc   // pbusinc
	FieldSbusinc   // sbusinc
	FieldPprofinc  // pprofinc
	FieldSprofinc  // sprofinc

	FieldIdtl // idtl

	// NumFields is the number of flat-schema columns.
	NumFields = int(iota)
)

// MaxDependents is the number of individual dependent age columns.
const MaxDependents = 11

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, NumFields)
	for f := range Field(NumFields) {
		m[f.String()] = f
	}

	return m
}()

// ParseField returns the field for a column name, ignoring case and surrounding spaces.
func ParseField(name string) (Field, error) {
	f, ok := fieldsByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown flat field %q", name)
	}

	return f, nil
}

// FieldNames returns all column names in column order.
func FieldNames() []string {
	names := make([]string, NumFields)
	for f := range Field(NumFields) {
		names[f] = f.String()
	}

	return names
}

// IsValid reports whether f is a declared field.
func (f Field) IsValid() bool {
	return f >= 0 && int(f) < NumFields
}

// IsAge reports whether f is one of the individual dependent age columns.
func (f Field) IsAge() bool {
	return f >= FieldAge1 && f <= FieldAge11
}

// IsLegacyCount reports whether f is one of the cumulative dependent count columns.
func (f Field) IsLegacyCount() bool {
	return f >= FieldDep13 && f <= FieldDep18
}

// AgeField returns the age column of the i-th dependent (1-based).
func AgeField(i int) (Field, bool) {
	if i < 1 || i > MaxDependents {
		return 0, false
	}

	return FieldAge1 + Field(i-1), true
}

// IncomeFields returns the income and deduction columns in column order.
func IncomeFields() []Field {
	fields := make([]Field, 0, FieldSprofinc-FieldPwages+1)
	for f := FieldPwages; f <= FieldSprofinc; f++ {
		fields = append(fields, f)
	}

	return fields
}
