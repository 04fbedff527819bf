package batch

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"taxbridge/internal/catalog"
	"taxbridge/internal/flat"
	"taxbridge/internal/normalize"
	"taxbridge/internal/situation"
)

var (
	// ErrYearMismatch is returned when a record's year differs from the batch year.
	ErrYearMismatch = errors.New("batch: record year differs from batch year")

	// ErrNilCatalog is returned by Build when the builder has no catalog.
	ErrNilCatalog = errors.New("batch: catalog is nil")
)

// VarStateFIPS is the household's federal state code. Situations carry the
// state abbreviation instead.
const VarStateFIPS = "state_fips"

// StateCodes converts the flat state codes.
type StateCodes interface {
	Abbreviation(code int) string
	FederalCode(code int) int
}

// Option configures a Builder.
type Option func(*Builder)

// WithAdjustments sets the adjustments applied to every dataset.
func WithAdjustments(a situation.Adjustments) Option {
	return func(b *Builder) {
		b.adjust = a
	}
}

// Builder turns normalized records of one year into a Dataset.
type Builder struct {
	catalog *catalog.Catalog
	states  StateCodes
	adjust  situation.Adjustments
}

// NewBuilder returns a batch builder.
func NewBuilder(cat *catalog.Catalog, states StateCodes, opts ...Option) *Builder {
	b := &Builder{catalog: cat, states: states}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// people holds the person-row index arrays of a dataset.
type people struct {
	owner    []int  // record row of each person
	depIndex []int  // 0-based dependent position, -1 for adults
	head     []bool // primary person
	spouse   []bool // secondary person
}

// Build returns the dataset for records, which must all be normalized and
// belong to year. Row order follows the input order.
func (b *Builder) Build(records []flat.Record, year int) (*Dataset, error) {
	if b.catalog == nil {
		return nil, ErrNilCatalog
	}

	err := checkRecords(records, year)
	if err != nil {
		return nil, err
	}

	n := len(records)
	d := newDataset(year, n)

	hasSpouse := make([]int, n)
	deps := make([]int, n)
	codes := make([]int, n)

	for i := range records {
		rec := &records[i]
		d.IDs[i] = rec.ID()
		d.Levels[i] = rec.Level()
		codes[i] = rec.StateCode()
		d.States[i] = b.states.Abbreviation(codes[i])
		deps[i] = rec.Dependents()

		if rec.Marital().HasSpouse() {
			hasSpouse[i] = 1
		}
	}

	ppl := b.layoutPeople(d, hasSpouse, deps)

	steps := []func() error{
		func() error { return b.setGroups(d, ppl, codes) },
		func() error { return b.setMaritalUnits(d, ppl, deps) },
		func() error { return b.setPeople(d, ppl, records) },
		func() error { return b.setInputs(d, ppl, records) },
		func() error { return b.setZeroOverrides(d) },
		func() error { return b.setAdjustments(d) },
	}

	for _, step := range steps {
		err = step()
		if err != nil {
			return nil, err
		}
	}

	return d, nil
}

func checkRecords(records []flat.Record, year int) error {
	for i := range records {
		rec := &records[i]
		if rec.Year() != year {
			return fmt.Errorf("%w: record %d has year %d, batch year is %d", ErrYearMismatch, rec.ID(), rec.Year(), year)
		}

		for _, f := range rec.Fields() {
			v := rec.Get(f)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &flat.MalformedInputError{
					ID:    rec.ID(),
					Field: f.String(),
					Value: strconv.FormatFloat(v, 'g', -1, 64),
					Err:   flat.ErrNonFinite,
				}
			}
		}
	}

	return nil
}

// layoutPeople derives the person rows from the per-record person counts.
func (b *Builder) layoutPeople(d *Dataset, hasSpouse, deps []int) people {
	n := len(deps)
	counts := make([]int, n)

	for i := range counts {
		counts[i] = 1 + hasSpouse[i] + deps[i]
	}

	start, total := offsets(counts)
	owner := repeat(arange(n), counts, total)
	pos := sub(arange(total), gather(start, owner))
	spouseOf := gather(hasSpouse, owner)

	ppl := people{
		owner:    owner,
		depIndex: make([]int, total),
		head:     make([]bool, total),
		spouse:   make([]bool, total),
	}

	for p := range total {
		ppl.head[p] = pos[p] == 0
		ppl.spouse[p] = pos[p] == 1 && spouseOf[p] == 1
		ppl.depIndex[p] = pos[p] - 1 - spouseOf[p]
	}

	d.counts[EntityPerson] = total
	d.personTaxUnit = owner

	return ppl
}

func (ppl people) dependent(p int) bool {
	return ppl.depIndex[p] >= 0
}

// setGroups writes the identifier and membership columns of the groups that
// have one row per record, plus the household state.
func (b *Builder) setGroups(d *Dataset, ppl people, codes []int) error {
	ids := toFloat(d.IDs)

	err := d.set(EntityPerson.IDColumn(), EntityPerson, toFloat(arange(d.counts[EntityPerson])))
	if err != nil {
		return err
	}

	for _, e := range groupEntities {
		err = d.set(e.IDColumn(), e, ids)
		if err != nil {
			return err
		}

		err = d.set(e.MembershipColumn(), EntityPerson, gather(ids, ppl.owner))
		if err != nil {
			return err
		}
	}

	fips := make([]float64, len(codes))
	for i, code := range codes {
		fips[i] = float64(b.states.FederalCode(code))
	}

	return d.set(VarStateFIPS, EntityHousehold, fips)
}

// setMaritalUnits gives every record one unit for the primary person and
// spouse, followed by one singleton unit per dependent.
func (b *Builder) setMaritalUnits(d *Dataset, ppl people, deps []int) error {
	units := make([]int, len(deps))
	for i, n := range deps {
		units[i] = 1 + n
	}

	start, total := offsets(units)
	d.counts[EntityMaritalUnit] = total

	base := gather(start, ppl.owner)
	member := make([]float64, len(base))

	for p := range member {
		member[p] = float64(base[p] + 1 + ppl.depIndex[p])
		if !ppl.dependent(p) {
			member[p] = float64(base[p])
		}
	}

	err := d.set(EntityMaritalUnit.IDColumn(), EntityMaritalUnit, toFloat(arange(total)))
	if err != nil {
		return err
	}

	return d.set(EntityMaritalUnit.MembershipColumn(), EntityPerson, member)
}

// setPeople writes ages, wages and tax-unit roles.
func (b *Builder) setPeople(d *Dataset, ppl people, records []flat.Record) error {
	n := len(records)
	headAge := make([]float64, n)
	spouseAge := make([]float64, n)
	headWages := make([]float64, n)
	spouseWages := make([]float64, n)

	maxDeps := 0
	for i := range records {
		maxDeps = max(maxDeps, records[i].Dependents())
	}

	// Dependent ages as a [dependent][record] matrix, flattened.
	depAges := make([]float64, maxDeps*n)

	for i := range records {
		rec := &records[i]
		headAge[i] = adultAge(rec, flat.FieldPage)
		spouseAge[i] = adultAge(rec, flat.FieldSage)
		headWages[i] = rec.Get(flat.FieldPwages)
		spouseWages[i] = rec.Get(flat.FieldSwages)

		for k := range maxDeps {
			age, ok := rec.DependentAge(k + 1)
			if !ok || age == 0 {
				age = normalize.DefaultChildAge
			}

			depAges[k*n+i] = float64(age)
		}
	}

	total := d.counts[EntityPerson]
	depSlot := make([]int, total)
	dependent := make([]bool, total)

	for p := range total {
		dependent[p] = ppl.dependent(p)
		if dependent[p] {
			depSlot[p] = ppl.depIndex[p]*n + ppl.owner[p]
		}
	}

	adultAges := where(ppl.head, gather(headAge, ppl.owner), gather(spouseAge, ppl.owner))
	ages := where(dependent, gather(depAges, depSlot), adultAges)
	wages := where(ppl.head, gather(headWages, ppl.owner), where(ppl.spouse, gather(spouseWages, ppl.owner), full(total, 0)))

	columns := []struct {
		name   string
		values []float64
	}{
		{situation.VarAge, ages},
		{situation.VarEmploymentIncome, wages},
		{situation.VarIsTaxUnitHead, indicator(ppl.head)},
		{situation.VarIsTaxUnitSpouse, indicator(ppl.spouse)},
		{situation.VarIsTaxUnitDependent, indicator(dependent)},
	}

	for _, c := range columns {
		err := d.set(c.name, EntityPerson, c.values)
		if err != nil {
			return err
		}
	}

	return nil
}

// setInputs applies the catalog input bindings once per state partition.
func (b *Builder) setInputs(d *Dataset, ppl people, records []flat.Record) error {
	n := len(records)
	joint := make([]bool, n)

	for i := range records {
		joint[i] = records[i].Marital().HasSpouse()
	}

	for _, part := range statePartitions(d.States) {
		inPart := make([]bool, n)
		for _, row := range part.rows {
			inPart[row] = true
		}

		personInPart := gather(inPart, ppl.owner)

		for _, bind := range b.catalog.Inputs(part.state) {
			err := b.applyInput(d, ppl, records, bind, joint, inPart, personInPart)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (b *Builder) applyInput(
	d *Dataset, ppl people, records []flat.Record, bind catalog.Binding,
	joint, inPart, personInPart []bool,
) error {
	variable := bind.Variable()
	n := len(records)

	if bind.Entity == catalog.EntityTaxUnit {
		col, err := d.column(variable, EntityTaxUnit)
		if err != nil {
			return err
		}

		values := full(n, bind.Constant)
		if bind.Kind != catalog.KindConstant {
			values = sumFields(records, bind.Inputs)
		}

		assign(col, inPart, values)

		return nil
	}

	col, err := d.column(variable, EntityPerson)
	if err != nil {
		return err
	}

	if bind.Kind == catalog.KindConstant {
		assign(col, personInPart, full(len(col), bind.Constant))
		return nil
	}

	primary := sumFields(records, bind.Inputs)
	secondary := sumFields(records, bind.SpouseInputs)

	if bind.Split {
		primary = where(joint, scale(primary, 0.5), primary)
		secondary = where(joint, primary, secondary)
	}

	values := where(ppl.head, gather(primary, ppl.owner),
		where(ppl.spouse, gather(secondary, ppl.owner), full(len(col), 0)))

	assign(col, personInPart, values)

	return nil
}

func (b *Builder) setZeroOverrides(d *Dataset) error {
	zero := b.catalog.ZeroOverrides()

	for _, variable := range zero.Person {
		err := d.set(variable, EntityPerson, full(d.counts[EntityPerson], 0))
		if err != nil {
			return err
		}
	}

	for _, variable := range zero.SPMUnit {
		err := d.set(variable, EntitySPMUnit, full(d.counts[EntitySPMUnit], 0))
		if err != nil {
			return err
		}
	}

	return nil
}

func (b *Builder) setAdjustments(d *Dataset) error {
	if b.adjust.DisableSALT {
		err := d.set(situation.VarSALT, EntityTaxUnit, full(d.counts[EntityTaxUnit], 0))
		if err != nil {
			return err
		}
	}

	if b.adjust.AssumeW2Wages {
		return d.set(situation.VarW2WagesFromBusiness, EntityPerson,
			full(d.counts[EntityPerson], situation.AssumedW2Wages))
	}

	return nil
}

type statePartition struct {
	state string
	rows  []int
}

// statePartitions groups rows by state in order of first appearance.
func statePartitions(states []string) []statePartition {
	var parts []statePartition

	seen := map[string]int{}

	for row, st := range states {
		i, ok := seen[st]
		if !ok {
			i = len(parts)
			seen[st] = i
			parts = append(parts, statePartition{state: st})
		}

		parts[i].rows = append(parts[i].rows, row)
	}

	return parts
}

// sumFields returns, per record, the sum of the fields (absent fields count
// as zero).
func sumFields(records []flat.Record, fields []flat.Field) []float64 {
	out := make([]float64, len(records))

	for _, f := range fields {
		out = add(out, fieldValues(records, f))
	}

	return out
}

func fieldValues(records []flat.Record, f flat.Field) []float64 {
	out := make([]float64, len(records))
	for i := range records {
		out[i] = records[i].Get(f)
	}

	return out
}

// assign copies src into dst where mask is set.
func assign(dst []float64, mask []bool, src []float64) {
	for i, m := range mask {
		if m {
			dst[i] = src[i]
		}
	}
}

func adultAge(rec *flat.Record, f flat.Field) float64 {
	age := rec.Int(f)
	if age <= 0 {
		return normalize.DefaultAdultAge
	}

	return float64(age)
}
