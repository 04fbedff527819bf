package normalize

import (
	"errors"
	"math"

	"taxbridge/internal/flat"
)

// Ages assigned to the legacy brackets.
const (
	under13Age = 10
	under17Age = 15
	under18Age = 17
)

var errNotCumulative = errors.New("legacy dependent counts must satisfy dep13 <= dep17 <= dep18")

// HasLegacyCounts reports whether any cumulative dependent count is present.
func HasLegacyCounts(rec *flat.Record) bool {
	return rec.Has(flat.FieldDep13) || rec.Has(flat.FieldDep17) || rec.Has(flat.FieldDep18)
}

// HasDependentAges reports whether any individual dependent age is present.
// An age of 0 counts: it is a newborn.
func HasDependentAges(rec *flat.Record) bool {
	for i := 1; i <= flat.MaxDependents; i++ {
		if _, ok := rec.DependentAge(i); ok {
			return true
		}
	}

	return false
}

// ConvertLegacyDependents expands cumulative counts into individual ages.
// It is a no-op when no counts are present or individual ages are already set.
// Missing counts inherit the next lower bracket (dep17 defaults to dep13,
// dep18 to dep17).
func ConvertLegacyDependents(rec flat.Record, adultAge int) (flat.Record, bool, error) {
	if !HasLegacyCounts(&rec) || HasDependentAges(&rec) {
		return rec, false, nil
	}

	c13 := countOf(&rec, flat.FieldDep13, 0)
	c17 := countOf(&rec, flat.FieldDep17, c13)
	c18 := countOf(&rec, flat.FieldDep18, c17)

	if c13 < 0 || c17 < c13 || c18 < c17 {
		return rec, false, &flat.MalformedInputError{
			ID:    rec.ID(),
			Field: flat.FieldDep17.String(),
			Value: formatCounts(c13, c17, c18),
			Err:   errNotCumulative,
		}
	}

	depx := max(rec.Int(flat.FieldDepx), c18)

	ages := make([]int, 0, depx)
	ages = appendN(ages, under13Age, c13)
	ages = appendN(ages, under17Age, c17-c13)
	ages = appendN(ages, under18Age, c18-c17)
	ages = appendN(ages, adultAge, depx-c18)

	for i, age := range ages {
		f, ok := flat.AgeField(i + 1)
		if !ok {
			break
		}

		rec.Set(f, float64(age))
	}

	rec.Set(flat.FieldDepx, float64(depx))
	rec.Unset(flat.FieldDep13)
	rec.Unset(flat.FieldDep17)
	rec.Unset(flat.FieldDep18)

	return rec, true, nil
}

// NormalizeAges replaces present dependent ages that are 0 or NaN with
// DefaultChildAge.
func NormalizeAges(rec flat.Record) flat.Record {
	for i := 1; i <= flat.MaxDependents; i++ {
		f, _ := flat.AgeField(i)

		v, ok := rec.Lookup(f)
		if !ok {
			continue
		}

		if v == 0 || math.IsNaN(v) {
			rec.Set(f, DefaultChildAge)
		}
	}

	return rec
}

func countOf(rec *flat.Record, f flat.Field, fallback int) int {
	v, ok := rec.Lookup(f)
	if !ok || math.IsNaN(v) {
		return fallback
	}

	return int(v)
}

func appendN(ages []int, age, n int) []int {
	for range n {
		ages = append(ages, age)
	}

	return ages
}
