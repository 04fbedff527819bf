package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxbridge/internal/flat"
	"taxbridge/internal/state"
)

const resolveDoc = `
input:
  - variable: rent
    fields: rentpaid
  - variable: state_use_tax
    value: 0
    states: [pa]
  - variable: miscellaneous_income
    entity: person
    fields: [otherprop, nonprop]
  - variable: taxable_interest_income
    entity: person
    fields: intrec
    split: true
  - variable: self_employment_income
    entity: person
    fields: psemp
    spouse_fields: ssemp
output:
  - field: taxsimid
    source: input
    idtl: [0, 2]
  - field: fiitax
    variable: income_tax
    idtl: [0, 2]
  - field: siitax
    variable: state_income_tax
    idtl: [0, 2]
  - field: fica
    variable: [employee_social_security_tax, state_payroll_tax]
    idtl: [0, 2]
  - field: frate
    variable: placeholder
    idtl: [0, 2]
  - field: v32
    variable: state_agi
    idtl: 2
    special_cases:
      - pa: {variable: state_total_taxable_income}
      - nh: placeholder
      - wy: {implemented: false}
  - field: v30
    variable: household_net_income
    implemented: false
    idtl: 2
`

func loadResolveCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := Load([]byte(resolveDoc), state.NewRegistry())
	require.NoError(t, err)

	return c
}

func fields(bindings []Binding) []string {
	out := make([]string, len(bindings))
	for i, b := range bindings {
		out[i] = b.Field
	}

	return out
}

func TestResolveOutputKinds(t *testing.T) {
	c := loadResolveCatalog(t)

	bindings := c.Resolve(GraphToFlat, flat.LevelFull, "CA")
	require.Equal(t, []string{"taxsimid", "fiitax", "siitax", "fica", "frate", "v32"}, fields(bindings))

	tests := []struct {
		field     string
		kind      Kind
		variables []string
	}{
		{field: "taxsimid", kind: KindSynthesized},
		{field: "fiitax", kind: KindDirect, variables: []string{"income_tax"}},
		{field: "siitax", kind: KindStateTemplated, variables: []string{"ca_income_tax"}},
		{field: "fica", kind: KindSum, variables: []string{"employee_social_security_tax", "ca_payroll_tax"}},
		{field: "frate", kind: KindPlaceholder},
		{field: "v32", kind: KindOverridden, variables: []string{"ca_agi"}},
	}

	for i, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			b := bindings[i]
			assert.Equal(t, tt.kind, b.Kind)
			assert.Equal(t, tt.variables, b.Variables)
		})
	}

	assert.Equal(t, flat.FieldTaxsimID, bindings[0].Source)
	assert.False(t, bindings[0].IsComputed())
	assert.False(t, bindings[4].IsComputed())
	assert.True(t, bindings[1].IsComputed())
}

func TestResolveOverrides(t *testing.T) {
	c := loadResolveCatalog(t)

	find := func(bindings []Binding, field string) (Binding, bool) {
		for _, b := range bindings {
			if b.Field == field {
				return b, true
			}
		}

		return Binding{}, false
	}

	// Override applied before templating.
	pa, ok := find(c.Outputs(flat.LevelFull, "PA"), "v32")
	require.True(t, ok)
	assert.Equal(t, []string{"pa_total_taxable_income"}, pa.Variables)

	nh, ok := find(c.Outputs(flat.LevelFull, "nh"), "v32")
	require.True(t, ok)
	assert.Equal(t, KindPlaceholder, nh.Kind)
	assert.Empty(t, nh.Variables)

	// An unimplemented override falls back to the entry's variable.
	wy, ok := find(c.Outputs(flat.LevelFull, "WY"), "v32")
	require.True(t, ok)
	assert.Equal(t, KindOverridden, wy.Kind)
	assert.Equal(t, []string{"wy_agi"}, wy.Variables)
}

func TestResolveGating(t *testing.T) {
	c := loadResolveCatalog(t)

	standard := fields(c.Outputs(flat.LevelStandard, "TX"))
	full := fields(c.Outputs(flat.LevelFull, "TX"))

	assert.NotContains(t, standard, "v32")
	assert.Contains(t, full, "v32")
	assert.NotContains(t, full, "v30")
	assert.Empty(t, c.Outputs(flat.LevelText, "TX"))
}

func TestResolveInputs(t *testing.T) {
	c := loadResolveCatalog(t)

	ca := c.Resolve(FlatToGraph, flat.LevelStandard, "CA")
	require.Len(t, ca, 4)

	assert.Equal(t, "rent", ca[0].Variable())
	assert.Equal(t, KindDirect, ca[0].Kind)
	assert.Equal(t, EntityTaxUnit, ca[0].Entity)
	assert.Equal(t, []flat.Field{flat.FieldRentpaid}, ca[0].Inputs)

	assert.Equal(t, KindSum, ca[1].Kind)
	assert.Equal(t, []flat.Field{flat.FieldOtherprop, flat.FieldNonprop}, ca[1].Inputs)

	assert.True(t, ca[2].Split)
	assert.Equal(t, []flat.Field{flat.FieldPsemp}, ca[3].Inputs)
	assert.Equal(t, []flat.Field{flat.FieldSsemp}, ca[3].SpouseInputs)

	pa := c.Inputs("PA")
	require.Len(t, pa, 5)
	assert.Equal(t, "pa_use_tax", pa[1].Variable())
	assert.Equal(t, KindConstant, pa[1].Kind)
	assert.Equal(t, 0.0, pa[1].Constant)
}

func TestVariables(t *testing.T) {
	c := loadResolveCatalog(t)

	assert.Equal(t,
		[]string{"income_tax", "ca_income_tax", "employee_social_security_tax", "ca_payroll_tax"},
		c.Variables(flat.LevelStandard, "ca"))
	assert.Equal(t,
		[]string{"income_tax", "pa_income_tax", "employee_social_security_tax", "pa_payroll_tax", "pa_total_taxable_income"},
		c.Variables(flat.LevelFull, "pa"))
}

func TestSubstitute(t *testing.T) {
	assert.Equal(t, "ca_agi", Substitute("state_agi", "CA"))
	assert.Equal(t, "income_tax", Substitute("income_tax", "CA"))
	assert.True(t, HasPlaceholder("state_eitc"))
	assert.False(t, HasPlaceholder("eitc"))
	assert.False(t, HasPlaceholder("real_estate_taxes"))
	assert.Equal(t, "real_estate_taxes", Substitute("real_estate_taxes", "ny"))
}

func TestKindAndDirectionStrings(t *testing.T) {
	assert.Equal(t, "state-templated", KindStateTemplated.String())
	assert.Equal(t, "Kind(0)", Kind(0).String())
	assert.Equal(t, "graph-to-flat", GraphToFlat.String())
}

func TestEntityOf(t *testing.T) {
	c, err := LoadDefault(state.NewRegistry())
	require.NoError(t, err)

	assert.Equal(t, EntityPerson, c.EntityOf("employee_medicare_tax"))
	assert.Equal(t, EntityTaxUnit, c.EntityOf("income_tax"))
	assert.Equal(t, EntityTaxUnit, c.EntityOf("additional_medicare_tax"))
}
