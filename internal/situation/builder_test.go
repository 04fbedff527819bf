package situation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxbridge/internal/catalog"
	"taxbridge/internal/flat"
	"taxbridge/internal/state"
)

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.LoadDefault(state.NewRegistry())
	require.NoError(t, err)

	return cat
}

func record(values map[flat.Field]float64) flat.Record {
	return flat.NewRecord(values)
}

func TestOrdinal(t *testing.T) {
	assert.Equal(t, "first", Ordinal(1))
	assert.Equal(t, "tenth", Ordinal(10))
	assert.Equal(t, "eleventh", Ordinal(11))
	assert.Equal(t, "12th", Ordinal(12))
	assert.Equal(t, "your third dependent", DependentName(3))
	assert.Equal(t, "your first dependent's marital unit", DependentMaritalUnitName(1))
}

func TestBuild_SingleFiler(t *testing.T) {
	b := NewBuilder(defaultCatalog(t))

	sit, err := b.Build(2023, "CA", record(map[flat.Field]float64{
		flat.FieldTaxsimID: 1,
		flat.FieldYear:     2023,
		flat.FieldState:    5,
		flat.FieldMstat:    1,
		flat.FieldPage:     35,
		flat.FieldPwages:   50000,
	}))
	require.NoError(t, err)

	assert.Equal(t, 1, sit.PersonCount())
	assert.Equal(t, []string{PrimaryName}, sit.Members())
	assert.Len(t, sit.MaritalUnits, 1)
	assert.Equal(t, []string{PrimaryName}, sit.MaritalUnits[MaritalUnitName].Members)

	age, ok := sit.PersonValue(PrimaryName, VarAge)
	require.True(t, ok)
	assert.Equal(t, 35, age)

	wages, ok := sit.PersonValue(PrimaryName, VarEmploymentIncome)
	require.True(t, ok)
	assert.Equal(t, 50000.0, wages)

	head, _ := sit.PersonValue(PrimaryName, VarIsTaxUnitHead)
	assert.Equal(t, true, head)

	st, ok := sit.Household().Values.Get(VarStateName, "2023")
	require.True(t, ok)
	assert.Equal(t, "CA", st)
}

func TestBuild_JointWithDependents(t *testing.T) {
	b := NewBuilder(defaultCatalog(t))

	sit, err := b.Build(2023, "NY", record(map[flat.Field]float64{
		flat.FieldTaxsimID: 2,
		flat.FieldYear:     2023,
		flat.FieldState:    33,
		flat.FieldMstat:    2,
		flat.FieldPage:     40,
		flat.FieldSage:     38,
		flat.FieldPwages:   60000,
		flat.FieldSwages:   40000,
		flat.FieldDepx:     2,
		flat.FieldAge1:     5,
		flat.FieldAge2:     12,
	}))
	require.NoError(t, err)

	want := []string{PrimaryName, SpouseName, DependentName(1), DependentName(2)}
	assert.Equal(t, want, sit.Members())
	assert.Equal(t, 4, sit.PersonCount())
	assert.Equal(t, want, sit.Families[FamilyName].Members)
	assert.Equal(t, want, sit.SPMUnit().Members)

	require.Len(t, sit.MaritalUnits, 3)
	assert.Equal(t, []string{PrimaryName, SpouseName}, sit.MaritalUnits[MaritalUnitName].Members)
	assert.Equal(t, []string{DependentName(2)}, sit.MaritalUnits[DependentMaritalUnitName(2)].Members)

	id, ok := sit.MaritalUnits[DependentMaritalUnitName(2)].Values.Get(VarMaritalUnitID, "2023")
	require.True(t, ok)
	assert.Equal(t, 2, id)

	assert.Equal(t,
		[]string{MaritalUnitName, DependentMaritalUnitName(1), DependentMaritalUnitName(2)},
		sit.MaritalUnitNames())

	age, _ := sit.PersonValue(DependentName(2), VarAge)
	assert.Equal(t, 12, age)

	spouseWages, _ := sit.PersonValue(SpouseName, VarEmploymentIncome)
	assert.Equal(t, 40000.0, spouseWages)

	dep, _ := sit.PersonValue(DependentName(1), VarIsTaxUnitDependent)
	assert.Equal(t, true, dep)
}

func TestBuild_PersonCount(t *testing.T) {
	b := NewBuilder(defaultCatalog(t))

	for _, mstat := range []float64{1, 2, 6} {
		for _, depx := range []int{0, 1, 2, 5, flat.MaxDependents, 13} {
			sit, err := b.Build(2022, "TX", record(map[flat.Field]float64{
				flat.FieldMstat: mstat,
				flat.FieldDepx:  float64(depx),
			}))
			require.NoError(t, err)

			want := 1 + depx
			if mstat == 2 {
				want++
			}

			assert.Equal(t, want, sit.PersonCount(), "mstat=%v depx=%d", mstat, depx)
			assert.Len(t, sit.TaxUnit().Members, want)

			units := 1
			if depx > 0 {
				units += depx
			}

			assert.Len(t, sit.MaritalUnits, units)
		}
	}
}

func TestBuild_DependentsBeyondAgeColumns(t *testing.T) {
	sit, err := NewBuilder(defaultCatalog(t)).Build(2023, "TX", record(map[flat.Field]float64{
		flat.FieldMstat: 1,
		flat.FieldDepx:  13,
		flat.FieldAge1:  3,
	}))
	require.NoError(t, err)
	require.Equal(t, 14, sit.PersonCount())

	first, _ := sit.PersonValue(DependentName(1), VarAge)
	assert.Equal(t, 3, first)

	for _, i := range []int{12, 13} {
		age, ok := sit.PersonValue(DependentName(i), VarAge)
		require.True(t, ok, "dependent %d", i)
		assert.Equal(t, 10, age)
	}
}

func TestBuild_DefaultAges(t *testing.T) {
	b := NewBuilder(defaultCatalog(t))

	sit, err := b.Build(2023, "TX", record(map[flat.Field]float64{
		flat.FieldMstat: 2,
		flat.FieldDepx:  1,
	}))
	require.NoError(t, err)

	age, _ := sit.PersonValue(PrimaryName, VarAge)
	assert.Equal(t, 40, age)

	age, _ = sit.PersonValue(SpouseName, VarAge)
	assert.Equal(t, 40, age)

	age, _ = sit.PersonValue(DependentName(1), VarAge)
	assert.Equal(t, 10, age)
}

func TestBuild_Inputs(t *testing.T) {
	b := NewBuilder(defaultCatalog(t))

	tests := []struct {
		name      string
		mstat     float64
		youWant   float64
		spouseHas bool
	}{
		{name: "joint splits", mstat: 2, youWant: 500, spouseHas: true},
		{name: "single keeps all", mstat: 1, youWant: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sit, err := b.Build(2023, "TX", record(map[flat.Field]float64{
				flat.FieldMstat:     tt.mstat,
				flat.FieldIntrec:    1000,
				flat.FieldPsemp:     300,
				flat.FieldSsemp:     200,
				flat.FieldOtherprop: 10,
				flat.FieldNonprop:   5,
				flat.FieldRentpaid:  1200,
			}))
			require.NoError(t, err)

			v, ok := sit.PersonValue(PrimaryName, "taxable_interest_income")
			require.True(t, ok)
			assert.Equal(t, tt.youWant, v)

			v, ok = sit.PersonValue(PrimaryName, "self_employment_income")
			require.True(t, ok)
			assert.Equal(t, 300.0, v)

			v, ok = sit.PersonValue(PrimaryName, "miscellaneous_income")
			require.True(t, ok)
			assert.Equal(t, 15.0, v)

			rent, ok := sit.TaxUnit().Values.Get("rent", "2023")
			require.True(t, ok)
			assert.Equal(t, 1200.0, rent)

			_, ok = sit.TaxUnit().Values.Get("real_estate_taxes", "2023")
			assert.False(t, ok, "absent source fields leave the variable unset")

			if !tt.spouseHas {
				_, ok = sit.Person(SpouseName)
				assert.False(t, ok)

				return
			}

			v, ok = sit.PersonValue(SpouseName, "taxable_interest_income")
			require.True(t, ok)
			assert.Equal(t, 500.0, v)

			v, ok = sit.PersonValue(SpouseName, "self_employment_income")
			require.True(t, ok)
			assert.Equal(t, 200.0, v)
		})
	}
}

func TestBuild_StateScopedConstant(t *testing.T) {
	b := NewBuilder(defaultCatalog(t))

	pa, err := b.Build(2023, "PA", record(nil))
	require.NoError(t, err)

	v, ok := pa.TaxUnit().Values.Get("pa_use_tax", "2023")
	require.True(t, ok)
	assert.Equal(t, 0.0, v)

	tx, err := b.Build(2023, "TX", record(nil))
	require.NoError(t, err)

	_, ok = tx.TaxUnit().Values.Get("tx_use_tax", "2023")
	assert.False(t, ok)
}

func TestBuild_ZeroOverrides(t *testing.T) {
	b := NewBuilder(defaultCatalog(t))

	sit, err := b.Build(2023, "TX", record(map[flat.Field]float64{
		flat.FieldMstat: 2,
		flat.FieldDepx:  1,
	}))
	require.NoError(t, err)

	for _, name := range sit.Members() {
		v, ok := sit.PersonValue(name, "ssi")
		require.True(t, ok, name)
		assert.Equal(t, 0.0, v)
	}

	v, ok := sit.SPMUnit().Values.Get("snap", "2023")
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestBuild_Adjustments(t *testing.T) {
	b := NewBuilder(defaultCatalog(t), WithAdjustments(Adjustments{DisableSALT: true, AssumeW2Wages: true}))

	sit, err := b.Build(2023, "TX", record(nil))
	require.NoError(t, err)

	v, ok := sit.TaxUnit().Values.Get(VarSALT, "2023")
	require.True(t, ok)
	assert.Equal(t, 0.0, v)

	v, ok = sit.PersonValue(PrimaryName, VarW2WagesFromBusiness)
	require.True(t, ok)
	assert.Equal(t, AssumedW2Wages, v)
}

func TestBuild_Errors(t *testing.T) {
	_, err := NewBuilder(nil).Build(2023, "TX", record(nil))
	require.ErrorIs(t, err, ErrNilCatalog)
}

func TestSituation_JSON(t *testing.T) {
	b := NewBuilder(defaultCatalog(t))

	sit, err := b.Build(2023, "CA", record(map[flat.Field]float64{flat.FieldMstat: 2, flat.FieldDepx: 1}))
	require.NoError(t, err)

	data, err := json.Marshal(sit)
	require.NoError(t, err)

	var raw map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{"people", "families", "households", "tax_units", "spm_units", "marital_units"} {
		assert.Contains(t, raw, key)
	}

	var household map[string]any
	require.NoError(t, json.Unmarshal(raw["households"][HouseholdName], &household))
	assert.Equal(t, map[string]any{"2023": "CA"}, household[VarStateName])
	assert.Len(t, household["members"], 3)

	var back Situation
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, sit.TaxUnit().Members, back.TaxUnits[TaxUnitName].Members)
	assert.Len(t, back.MaritalUnits, 2)
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{name: "float", in: 1.5, want: 1.5, ok: true},
		{name: "int", in: 3, want: 3, ok: true},
		{name: "true", in: true, want: 1, ok: true},
		{name: "false", in: false, want: 0, ok: true},
		{name: "string", in: "CA", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Number(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
