package batch

import (
	"math"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxbridge/internal/catalog"
	"taxbridge/internal/flat"
	"taxbridge/internal/situation"
	"taxbridge/internal/state"
)

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.LoadDefault(state.NewRegistry())
	require.NoError(t, err)

	return cat
}

func sampleRecords() []flat.Record {
	return []flat.Record{
		flat.NewRecord(map[flat.Field]float64{
			flat.FieldTaxsimID: 11, flat.FieldYear: 2023, flat.FieldState: 5,
			flat.FieldMstat: 1, flat.FieldPage: 35, flat.FieldPwages: 50000,
			flat.FieldIntrec: 300,
		}),
		flat.NewRecord(map[flat.Field]float64{
			flat.FieldTaxsimID: 12, flat.FieldYear: 2023, flat.FieldState: 39,
			flat.FieldMstat: 2, flat.FieldPage: 45, flat.FieldSage: 43,
			flat.FieldPwages: 70000, flat.FieldSwages: 30000,
			flat.FieldDepx: 2, flat.FieldAge1: 4, flat.FieldAge2: 9,
			flat.FieldIntrec: 1000, flat.FieldPsemp: 500, flat.FieldSsemp: 250,
			flat.FieldRentpaid: 9000,
		}),
		flat.NewRecord(map[flat.Field]float64{
			flat.FieldTaxsimID: 13, flat.FieldYear: 2023, flat.FieldState: 44,
			flat.FieldMstat: 6, flat.FieldDepx: 1,
			flat.FieldOtherprop: 20, flat.FieldNonprop: 5,
		}),
		flat.NewRecord(map[flat.Field]float64{
			flat.FieldTaxsimID: 14, flat.FieldYear: 2023, flat.FieldState: 5,
			flat.FieldMstat: 2, flat.FieldDepx: 1, flat.FieldAge1: 16,
			flat.FieldGssi: 12000, flat.FieldProptax: 4000,
		}),
	}
}

func newBuilder(t *testing.T, opts ...Option) *Builder {
	t.Helper()

	return NewBuilder(defaultCatalog(t), state.NewRegistry(), opts...)
}

func column(t *testing.T, d *Dataset, name string) []float64 {
	t.Helper()

	c, ok := d.Column(name)
	require.True(t, ok, "column %s", name)

	return c.Values
}

func TestBuild_Layout(t *testing.T) {
	d, err := newBuilder(t).Build(sampleRecords(), 2023)
	require.NoError(t, err)

	assert.Equal(t, 4, d.Len())
	assert.Equal(t, []int64{11, 12, 13, 14}, d.IDs)
	assert.Equal(t, []string{"CA", "PA", "TX", "CA"}, d.States)

	// 1 + 4 + 2 + 3 people; marital units 1 + 3 + 2 + 2.
	assert.Equal(t, 10, d.Count(EntityPerson))
	assert.Equal(t, 8, d.Count(EntityMaritalUnit))
	assert.Equal(t, 4, d.Count(EntityHousehold))

	assert.Equal(t,
		[]float64{11, 12, 12, 12, 12, 13, 13, 14, 14, 14},
		column(t, d, EntityTaxUnit.MembershipColumn()))
	assert.Equal(t,
		[]float64{1, 1, 0, 0, 0, 1, 0, 1, 0, 0},
		column(t, d, situation.VarIsTaxUnitHead))
	assert.Equal(t,
		[]float64{0, 0, 1, 0, 0, 0, 0, 0, 1, 0},
		column(t, d, situation.VarIsTaxUnitSpouse))
	assert.Equal(t,
		[]float64{0, 0, 0, 1, 1, 0, 1, 0, 0, 1},
		column(t, d, situation.VarIsTaxUnitDependent))
	assert.Equal(t,
		[]float64{0, 1, 1, 2, 3, 4, 5, 6, 6, 7},
		column(t, d, EntityMaritalUnit.MembershipColumn()))
	assert.Equal(t,
		[]float64{35, 45, 43, 4, 9, 40, 10, 40, 40, 16},
		column(t, d, situation.VarAge))
	assert.Equal(t,
		[]float64{50000, 70000, 30000, 0, 0, 0, 0, 0, 0, 0},
		column(t, d, situation.VarEmploymentIncome))
	assert.Equal(t, []float64{6, 42, 48, 6}, column(t, d, VarStateFIPS))

	assert.Equal(t, []int{0, 1, 1, 1, 1, 2, 2, 3, 3, 3}, d.PersonTaxUnits())
}

func TestBuild_Inputs(t *testing.T) {
	d, err := newBuilder(t).Build(sampleRecords(), 2023)
	require.NoError(t, err)

	// Split between spouses on joint returns only.
	assert.Equal(t,
		[]float64{300, 500, 500, 0, 0, 0, 0, 0, 0, 0},
		column(t, d, "taxable_interest_income"))
	assert.Equal(t,
		[]float64{0, 500, 250, 0, 0, 0, 0, 0, 0, 0},
		column(t, d, "self_employment_income"))
	assert.Equal(t,
		[]float64{0, 0, 0, 0, 0, 25, 0, 0, 0, 0},
		column(t, d, "miscellaneous_income"))
	assert.Equal(t, []float64{0, 9000, 0, 0}, column(t, d, "rent"))

	// State-scoped inputs become one column per state.
	useTax, ok := d.Column("ca_use_tax")
	require.True(t, ok)
	assert.Equal(t, EntityTaxUnit, useTax.Entity)
	assert.Equal(t, []float64{0, 0, 0, 0}, useTax.Values)

	_, ok = d.Column("pa_use_tax")
	assert.True(t, ok)

	_, ok = d.Column("tx_use_tax")
	assert.False(t, ok)

	for _, name := range []string{"ssi", "head_start"} {
		assert.Equal(t, full(10, 0), column(t, d, name))
	}

	snap, ok := d.Column("snap")
	require.True(t, ok)
	assert.Equal(t, EntitySPMUnit, snap.Entity)
	assert.Len(t, snap.Values, 4)
}

func TestBuild_MatchesSituations(t *testing.T) {
	tests := []struct {
		name    string
		records []flat.Record
	}{
		{name: "sample", records: sampleRecords()},
		{
			name: "dependents beyond age columns",
			records: append(sampleRecords(), flat.NewRecord(map[flat.Field]float64{
				flat.FieldTaxsimID: 15, flat.FieldYear: 2023, flat.FieldState: 5,
				flat.FieldMstat: 2, flat.FieldDepx: 13, flat.FieldAge1: 2,
				flat.FieldPwages: 90000,
			})),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertMatchesSituations(t, tt.records)
		})
	}
}

func assertMatchesSituations(t *testing.T, records []flat.Record) {
	t.Helper()

	adjust := situation.Adjustments{DisableSALT: true, AssumeW2Wages: true}
	cat := defaultCatalog(t)
	registry := state.NewRegistry()

	d, err := NewBuilder(cat, registry, WithAdjustments(adjust)).Build(records, 2023)
	require.NoError(t, err)

	single := situation.NewBuilder(cat, situation.WithAdjustments(adjust))

	var sits []*situation.Situation

	for _, rec := range records {
		sit, err := single.Build(2023, registry.Abbreviation(rec.StateCode()), rec)
		require.NoError(t, err)

		sits = append(sits, sit)
	}

	for _, col := range d.Columns() {
		if strings.HasSuffix(col.Name, "_id") || col.Name == VarStateFIPS {
			continue
		}

		var want []float64

		for _, sit := range sits {
			switch col.Entity {
			case EntityPerson:
				for _, name := range sit.Members() {
					want = append(want, valueOrZero(sit.PersonValue(name, col.Name)))
				}
			case EntityTaxUnit:
				want = append(want, valueOrZero(sit.TaxUnit().Values.Get(col.Name, sit.Period())))
			case EntitySPMUnit:
				want = append(want, valueOrZero(sit.SPMUnit().Values.Get(col.Name, sit.Period())))
			default:
				t.Fatalf("unexpected %s column %s", col.Entity, col.Name)
			}
		}

		if !assert.Equal(t, want, col.Values, "column %s", col.Name) {
			t.Log(spew.Sdump(sits))
		}
	}

	people := 0

	for i, sit := range sits {
		assert.Len(t, sit.MaritalUnits, records[i].Dependents()+1)

		people += sit.PersonCount()
	}

	assert.Equal(t, people, d.Count(EntityPerson))
}

func valueOrZero(v any, ok bool) float64 {
	if !ok {
		return 0
	}

	n, _ := situation.Number(v)

	return n
}

func TestBuild_Errors(t *testing.T) {
	records := sampleRecords()

	_, err := newBuilder(t).Build(records, 2022)
	require.ErrorIs(t, err, ErrYearMismatch)

	bad := sampleRecords()
	bad[1].Set(flat.FieldDividends, math.NaN())

	_, err = newBuilder(t).Build(bad, 2023)

	var malformed *flat.MalformedInputError

	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, int64(12), malformed.ID)
	assert.Equal(t, "dividends", malformed.Field)

	_, err = NewBuilder(nil, state.NewRegistry()).Build(records, 2023)
	require.ErrorIs(t, err, ErrNilCatalog)
}

func TestBuild_UnknownStateFallsBack(t *testing.T) {
	rec := flat.NewRecord(map[flat.Field]float64{
		flat.FieldTaxsimID: 1, flat.FieldYear: 2023, flat.FieldState: 99, flat.FieldMstat: 1,
	})

	d, err := newBuilder(t).Build([]flat.Record{rec}, 2023)
	require.NoError(t, err)

	assert.Equal(t, []string{state.FallbackAbbrev}, d.States)
	assert.Equal(t, []float64{state.FallbackFederal}, column(t, d, VarStateFIPS))
}

func TestBuild_Empty(t *testing.T) {
	d, err := newBuilder(t).Build(nil, 2023)
	require.NoError(t, err)

	assert.Equal(t, 0, d.Len())
	assert.Equal(t, 0, d.Count(EntityPerson))
	assert.Empty(t, d.Partitions())
}

func TestDataset_Partitions(t *testing.T) {
	records := sampleRecords()
	records[3].Set(flat.FieldIdtl, 2)

	d, err := newBuilder(t).Build(records, 2023)
	require.NoError(t, err)

	assert.Equal(t, []Partition{
		{State: "CA", Level: flat.LevelStandard, Rows: []int{0}},
		{State: "PA", Level: flat.LevelStandard, Rows: []int{1}},
		{State: "TX", Level: flat.LevelStandard, Rows: []int{2}},
		{State: "CA", Level: flat.LevelFull, Rows: []int{3}},
	}, d.Partitions())
}

func TestDataset_SumToTaxUnits(t *testing.T) {
	d, err := newBuilder(t).Build(sampleRecords(), 2023)
	require.NoError(t, err)

	got, err := d.SumToTaxUnits([]float64{1, 2, 3, 0, 0, 4, 0, 5, 5, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 5, 4, 10}, got)

	_, err = d.SumToTaxUnits([]float64{1})
	require.Error(t, err)
}

func TestDataset_Export(t *testing.T) {
	d, err := newBuilder(t).Build(sampleRecords()[:1], 2023)
	require.NoError(t, err)

	out := d.Export()
	assert.Equal(t, map[string][]float64{"2023": {35}}, out[situation.VarAge])
	assert.Equal(t, map[string][]float64{"2023": {11}}, out[EntityHousehold.IDColumn()])
	assert.Len(t, out, len(d.Columns()))
}

func TestEntityKindNames(t *testing.T) {
	assert.Equal(t, "spm_unit", EntitySPMUnit.String())
	assert.Equal(t, "person_marital_unit_id", EntityMaritalUnit.MembershipColumn())
	assert.Equal(t, "tax_unit_id", EntityTaxUnit.IDColumn())
	assert.Equal(t, "EntityKind(9)", EntityKind(9).String())
}
