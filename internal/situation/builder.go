package situation

import (
	"errors"
	"math"
	"strconv"

	"taxbridge/internal/catalog"
	"taxbridge/internal/flat"
	"taxbridge/internal/normalize"
)

// AssumedW2Wages is the W-2 wage amount set when AssumeW2Wages is on. It is
// large enough that the qualified business income deduction is never
// limited by wages.
const AssumedW2Wages = 1e9

// ErrNilCatalog is returned by Build when the builder has no catalog.
var ErrNilCatalog = errors.New("situation: catalog is nil")

// Adjustments are optional policy tweaks applied after the catalog inputs.
type Adjustments struct {
	// DisableSALT zeroes the state and local tax deduction.
	DisableSALT bool `json:"disable_salt" yaml:"disable_salt"`

	// AssumeW2Wages removes the wage limit on the qualified business income
	// deduction.
	AssumeW2Wages bool `json:"assume_w2_wages" yaml:"assume_w2_wages"`
}

// Option configures a Builder.
type Option func(*Builder)

// WithAdjustments sets the adjustments applied to every situation.
func WithAdjustments(a Adjustments) Option {
	return func(b *Builder) {
		b.adjust = a
	}
}

// Builder turns normalized flat records into situations.
type Builder struct {
	catalog *catalog.Catalog
	adjust  Adjustments
}

// NewBuilder returns a builder using cat for its input bindings.
func NewBuilder(cat *catalog.Catalog, opts ...Option) *Builder {
	b := &Builder{catalog: cat}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build returns the situation for rec in year, with stateAbbrev naming the
// household's state. rec is expected to be normalized.
func (b *Builder) Build(year int, stateAbbrev string, rec flat.Record) (*Situation, error) {
	if b.catalog == nil {
		return nil, ErrNilCatalog
	}

	period := strconv.Itoa(year)
	joint := rec.Marital().HasSpouse()
	deps := rec.Dependents()

	members := []string{PrimaryName}
	if joint {
		members = append(members, SpouseName)
	}

	for i := 1; i <= deps; i++ {
		members = append(members, DependentName(i))
	}

	sit := &Situation{
		People:       make(map[string]Values, len(members)),
		Families:     map[string]*Group{FamilyName: NewGroup(members)},
		Households:   map[string]*Group{HouseholdName: NewGroup(members)},
		TaxUnits:     map[string]*Group{TaxUnitName: NewGroup(members)},
		SPMUnits:     map[string]*Group{SPMUnitName: NewGroup(members)},
		MaritalUnits: make(map[string]*Group, 1+deps),
		year:         year,
	}

	sit.Household().Values.Set(VarStateName, period, stateAbbrev)

	err := b.addPeople(sit, rec, joint, deps)
	if err != nil {
		return nil, err
	}

	addMaritalUnits(sit, joint, deps)

	err = b.addInputs(sit, rec, stateAbbrev, joint)
	if err != nil {
		return nil, err
	}

	b.addZeroOverrides(sit)
	b.addAdjustments(sit)

	return sit, nil
}

func (b *Builder) addPeople(sit *Situation, rec flat.Record, joint bool, deps int) error {
	period := sit.Period()

	wages, err := finite(&rec, flat.FieldPwages)
	if err != nil {
		return err
	}

	you := Values{}
	you.Set(VarAge, period, adultAge(&rec, flat.FieldPage))
	you.Set(VarEmploymentIncome, period, wages)
	you.Set(VarIsTaxUnitHead, period, true)
	sit.People[PrimaryName] = you

	if joint {
		wages, err = finite(&rec, flat.FieldSwages)
		if err != nil {
			return err
		}

		partner := Values{}
		partner.Set(VarAge, period, adultAge(&rec, flat.FieldSage))
		partner.Set(VarEmploymentIncome, period, wages)
		partner.Set(VarIsTaxUnitSpouse, period, true)
		sit.People[SpouseName] = partner
	}

	for i := 1; i <= deps; i++ {
		age, ok := rec.DependentAge(i)
		if !ok || age == 0 {
			age = normalize.DefaultChildAge
		}

		dep := Values{}
		dep.Set(VarAge, period, age)
		dep.Set(VarEmploymentIncome, period, 0.0)
		dep.Set(VarIsTaxUnitDependent, period, true)
		dep.Set(VarIsTaxUnitSpouse, period, false)
		dep.Set(VarIsTaxUnitHead, period, false)
		sit.People[DependentName(i)] = dep
	}

	return nil
}

func addMaritalUnits(sit *Situation, joint bool, deps int) {
	primary := []string{PrimaryName}
	if joint {
		primary = append(primary, SpouseName)
	}

	sit.MaritalUnits[MaritalUnitName] = NewGroup(primary)

	for i := 1; i <= deps; i++ {
		unit := NewGroup([]string{DependentName(i)})
		unit.Values.Set(VarMaritalUnitID, sit.Period(), i)
		sit.MaritalUnits[DependentMaritalUnitName(i)] = unit
	}
}

func (b *Builder) addInputs(sit *Situation, rec flat.Record, stateAbbrev string, joint bool) error {
	period := sit.Period()
	taxUnit := sit.TaxUnit().Values

	for _, bind := range b.catalog.Inputs(stateAbbrev) {
		variable := bind.Variable()

		if bind.Kind == catalog.KindConstant {
			if bind.Entity == catalog.EntityPerson {
				for _, name := range sit.Members() {
					sit.People[name].Set(variable, period, bind.Constant)
				}
			} else {
				taxUnit.Set(variable, period, bind.Constant)
			}

			continue
		}

		total, ok, err := sumPresent(&rec, bind.Inputs)
		if err != nil {
			return err
		}

		if bind.Entity == catalog.EntityTaxUnit {
			if ok {
				taxUnit.Set(variable, period, total)
			}

			continue
		}

		if ok {
			if bind.Split && joint {
				sit.People[PrimaryName].Set(variable, period, total/2)
				sit.People[SpouseName].Set(variable, period, total/2)
			} else {
				sit.People[PrimaryName].Set(variable, period, total)
			}
		}

		if !joint || len(bind.SpouseInputs) == 0 {
			continue
		}

		total, ok, err = sumPresent(&rec, bind.SpouseInputs)
		if err != nil {
			return err
		}

		if ok {
			sit.People[SpouseName].Set(variable, period, total)
		}
	}

	return nil
}

func (b *Builder) addZeroOverrides(sit *Situation) {
	period := sit.Period()
	zero := b.catalog.ZeroOverrides()

	for _, name := range sit.Members() {
		for _, variable := range zero.Person {
			sit.People[name].Set(variable, period, 0.0)
		}
	}

	for _, variable := range zero.SPMUnit {
		sit.SPMUnit().Values.Set(variable, period, 0.0)
	}
}

func (b *Builder) addAdjustments(sit *Situation) {
	period := sit.Period()

	if b.adjust.DisableSALT {
		sit.TaxUnit().Values.Set(VarSALT, period, 0.0)
	}

	if b.adjust.AssumeW2Wages {
		for _, name := range sit.Members() {
			sit.People[name].Set(VarW2WagesFromBusiness, period, AssumedW2Wages)
		}
	}
}

// adultAge returns the age in f, or the default adult age when f is absent
// or zero.
func adultAge(rec *flat.Record, f flat.Field) int {
	age := rec.Int(f)
	if age <= 0 {
		return normalize.DefaultAdultAge
	}

	return age
}

// finite returns the value of f (0 when absent) and rejects NaN and
// infinities.
func finite(rec *flat.Record, f flat.Field) (float64, error) {
	v := rec.Get(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &flat.MalformedInputError{
			ID:    rec.ID(),
			Field: f.String(),
			Value: strconv.FormatFloat(v, 'g', -1, 64),
			Err:   flat.ErrNonFinite,
		}
	}

	return v, nil
}

// sumPresent adds the present fields and reports whether any was present.
func sumPresent(rec *flat.Record, fields []flat.Field) (float64, bool, error) {
	var (
		total float64
		any   bool
	)

	for _, f := range fields {
		if !rec.Has(f) {
			continue
		}

		v, err := finite(rec, f)
		if err != nil {
			return 0, false, err
		}

		total += v
		any = true
	}

	return total, any, nil
}
