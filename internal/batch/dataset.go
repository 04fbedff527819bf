package batch

import (
	"fmt"
	"slices"
	"strconv"

	"taxbridge/internal/flat"
)

// Column is one variable's values over an entity's rows.
type Column struct {
	Name   string
	Entity EntityKind
	Values []float64
}

// Partition is a set of record rows sharing a state and output level.
type Partition struct {
	State string
	Level flat.Level
	Rows  []int
}

// Dataset is the columnar form of one year's records. Record rows, tax
// units, families, SPM units and households share one index space.
type Dataset struct {
	Year   int
	IDs    []int64
	States []string
	Levels []flat.Level

	counts        [NumEntities]int
	columns       []*Column
	index         map[string]int
	personTaxUnit []int
}

func newDataset(year, records int) *Dataset {
	d := &Dataset{
		Year:   year,
		IDs:    make([]int64, records),
		States: make([]string, records),
		Levels: make([]flat.Level, records),
		index:  map[string]int{},
	}

	for _, e := range groupEntities {
		d.counts[e] = records
	}

	return d
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.IDs)
}

// Count returns the number of rows of an entity.
func (d *Dataset) Count(e EntityKind) int {
	return d.counts[e]
}

// Column returns a column by variable name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}

	return d.columns[i], true
}

// Columns returns the columns in creation order.
func (d *Dataset) Columns() []*Column {
	return slices.Clone(d.columns)
}

// PersonTaxUnits maps each person row to its tax-unit row.
func (d *Dataset) PersonTaxUnits() []int {
	return slices.Clone(d.personTaxUnit)
}

// SumToTaxUnits adds person-row values into their tax-unit rows.
func (d *Dataset) SumToTaxUnits(values []float64) ([]float64, error) {
	if len(values) != len(d.personTaxUnit) {
		return nil, fmt.Errorf("batch: %d person values for %d people", len(values), len(d.personTaxUnit))
	}

	out := make([]float64, d.Len())
	for p, v := range values {
		out[d.personTaxUnit[p]] += v
	}

	return out, nil
}

// Partitions groups record rows by state and output level, in order of
// first appearance. Rows keep their input order inside a partition.
func (d *Dataset) Partitions() []Partition {
	type key struct {
		state string
		level flat.Level
	}

	var (
		parts []Partition
		seen  = map[key]int{}
	)

	for row := range d.IDs {
		k := key{d.States[row], d.Levels[row]}

		i, ok := seen[k]
		if !ok {
			i = len(parts)
			seen[k] = i
			parts = append(parts, Partition{State: k.state, Level: k.level})
		}

		parts[i].Rows = append(parts[i].Rows, row)
	}

	return parts
}

// Export returns every column as {name: {year: values}}.
func (d *Dataset) Export() map[string]map[string][]float64 {
	period := strconv.Itoa(d.Year)
	out := make(map[string]map[string][]float64, len(d.columns))

	for _, c := range d.columns {
		out[c.Name] = map[string][]float64{period: slices.Clone(c.Values)}
	}

	return out
}

// set stores values as a new column or replaces an existing one.
func (d *Dataset) set(name string, entity EntityKind, values []float64) error {
	if len(values) != d.counts[entity] {
		return fmt.Errorf("batch: column %s has %d values for %d %s rows", name, len(values), d.counts[entity], entity)
	}

	if i, ok := d.index[name]; ok {
		if d.columns[i].Entity != entity {
			return fmt.Errorf("batch: variable %s used at both %s and %s", name, d.columns[i].Entity, entity)
		}

		d.columns[i].Values = values

		return nil
	}

	d.index[name] = len(d.columns)
	d.columns = append(d.columns, &Column{Name: name, Entity: entity, Values: values})

	return nil
}

// column returns the values of name, creating a zero column when absent.
func (d *Dataset) column(name string, entity EntityKind) ([]float64, error) {
	if c, ok := d.Column(name); ok {
		if c.Entity != entity {
			return nil, fmt.Errorf("batch: variable %s used at both %s and %s", name, c.Entity, entity)
		}

		return c.Values, nil
	}

	values := make([]float64, d.counts[entity])

	return values, d.set(name, entity, values)
}
