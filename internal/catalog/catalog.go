package catalog

import (
	"fmt"
	"slices"
	"strings"

	"taxbridge/internal/flat"
)

// Direction selects which half of the catalog Resolve walks.
type Direction int

const (
	// FlatToGraph resolves input entries for building entity graphs.
	FlatToGraph Direction = iota
	// GraphToFlat resolves output entries for extraction.
	GraphToFlat
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case FlatToGraph:
		return "flat-to-graph"
	case GraphToFlat:
		return "graph-to-flat"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Kind is the compiled shape of a catalog entry.
type Kind int

const (
	_ Kind = iota

	// KindDirect maps exactly one variable or column.
	KindDirect
	// KindSum adds several variables or columns.
	KindSum
	// KindStateTemplated uses a variable name with the state placeholder.
	KindStateTemplated
	// KindOverridden has per-state replacements.
	KindOverridden
	// KindPlaceholder resolves to a constant instead of an engine variable.
	KindPlaceholder
	// KindSynthesized copies a value from the input record.
	KindSynthesized
	// KindConstant sets a fixed value on the entity graph.
	KindConstant
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindSum:
		return "sum"
	case KindStateTemplated:
		return "state-templated"
	case KindOverridden:
		return "overridden"
	case KindPlaceholder:
		return "placeholder"
	case KindSynthesized:
		return "synthesized"
	case KindConstant:
		return "constant"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// synthesizedSources maps output columns copied from the input to their field.
var synthesizedSources = map[string]flat.Field{
	flat.ColumnID:    flat.FieldTaxsimID,
	flat.ColumnYear:  flat.FieldYear,
	flat.ColumnState: flat.FieldState,
}

// Binding is one resolved catalog entry.
type Binding struct {
	// Kind of the entry the binding was resolved from.
	Kind Kind

	// Field is the flat output column (graph-to-flat only).
	Field string

	// Variables are the resolved engine variables; more than one means sum.
	Variables []string

	// Constant is the value for placeholder and constant bindings.
	Constant float64

	// Source is the input column of a synthesized binding.
	Source flat.Field

	// Entity is the entity-graph level of a flat-to-graph binding.
	Entity Entity

	// Inputs are flat columns summed for the tax unit or primary person.
	Inputs []flat.Field

	// SpouseInputs are flat columns summed for the secondary person.
	SpouseInputs []flat.Field

	// Split halves the Inputs sum between spouses on joint returns.
	Split bool
}

// Variable returns the single target variable of a flat-to-graph binding.
func (b Binding) Variable() string {
	if len(b.Variables) == 0 {
		return ""
	}

	return b.Variables[0]
}

// IsComputed reports whether the binding needs values from the engine.
func (b Binding) IsComputed() bool {
	return b.Kind != KindPlaceholder && b.Kind != KindSynthesized
}

type inputEntry struct {
	kind         Kind
	variable     string
	entity       Entity
	fields       []flat.Field
	spouseFields []flat.Field
	split        bool
	value        float64
	states       []string
}

type outputEntry struct {
	kind      Kind
	field     string
	variables []string
	source    flat.Field
	levels    LevelSet
	overrides Overrides
}

// Catalog is the compiled, read-only mapping table.
type Catalog struct {
	version string
	inputs  []inputEntry
	outputs []outputEntry
	zero    ZeroOverrides
	person  map[string]struct{}
}

// New validates f and compiles it. Validation errors are returned as one error.
func New(f *File, states StateSet) (*Catalog, error) {
	diags := Validate(f, states)

	err := diags.Error()
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	c := &Catalog{
		version: f.Version,
		zero: ZeroOverrides{
			Person:  slices.Clone(f.ZeroOverrides.Person),
			SPMUnit: slices.Clone(f.ZeroOverrides.SPMUnit),
		},
		person: make(map[string]struct{}, len(f.PersonVariables)),
	}

	for _, v := range f.PersonVariables {
		c.person[v] = struct{}{}
	}

	for i := range f.Input {
		c.inputs = append(c.inputs, compileInput(&f.Input[i]))
	}

	for i := range f.Output {
		out := &f.Output[i]
		if !out.IsImplemented() {
			continue
		}

		c.outputs = append(c.outputs, compileOutput(out))
	}

	return c, nil
}

func compileInput(in *InputEntry) inputEntry {
	e := inputEntry{
		variable:     in.Variable,
		entity:       in.Entity,
		fields:       mustFields(in.Fields),
		spouseFields: mustFields(in.SpouseFields),
		split:        in.Split && in.Entity == EntityPerson,
		states:       slices.Clone(in.States),
	}

	switch {
	case in.Value != nil:
		e.kind = KindConstant
		e.value = *in.Value
	case len(e.fields) > 1 || len(e.spouseFields) > 1:
		e.kind = KindSum
	default:
		e.kind = KindDirect
	}

	return e
}

// mustFields converts validated column names.
func mustFields(names StringOrArray) []flat.Field {
	fields := make([]flat.Field, 0, len(names))

	for _, name := range names {
		f, err := flat.ParseField(name)
		if err != nil {
			panic(fmt.Sprintf("catalog: field %q passed validation: %v", name, err))
		}

		fields = append(fields, f)
	}

	return fields
}

func compileOutput(out *OutputEntry) outputEntry {
	e := outputEntry{
		field:     out.Field,
		variables: slices.Clone(out.Variable),
		levels:    slices.Clone(out.Levels),
		overrides: slices.Clone(out.Overrides),
	}

	switch {
	case out.Source == SourceInput:
		e.kind = KindSynthesized
		e.source = synthesizedSources[out.Field]
	case out.Variable.IsSingle() && out.Variable.First() == Placeholder:
		e.kind = KindPlaceholder
	case len(out.Overrides) > 0:
		e.kind = KindOverridden
	case out.Variable.IsMultiple():
		e.kind = KindSum
	case HasPlaceholder(out.Variable.First()):
		e.kind = KindStateTemplated
	default:
		e.kind = KindDirect
	}

	return e
}

// Version returns the catalog schema version.
func (c *Catalog) Version() string {
	return c.version
}

// ZeroOverrides returns the variables forced to zero.
func (c *Catalog) ZeroOverrides() ZeroOverrides {
	return ZeroOverrides{
		Person:  slices.Clone(c.zero.Person),
		SPMUnit: slices.Clone(c.zero.SPMUnit),
	}
}

// Resolve returns the bindings for a direction, output level and state, in
// catalog order. Level is ignored for FlatToGraph.
func (c *Catalog) Resolve(dir Direction, level flat.Level, stateAbbrev string) []Binding {
	state := strings.ToLower(strings.TrimSpace(stateAbbrev))

	switch dir {
	case FlatToGraph:
		return c.resolveInputs(state)
	case GraphToFlat:
		return c.resolveOutputs(level, state)
	default:
		return nil
	}
}

// Inputs is Resolve(FlatToGraph, ...).
func (c *Catalog) Inputs(stateAbbrev string) []Binding {
	return c.Resolve(FlatToGraph, flat.LevelStandard, stateAbbrev)
}

// Outputs is Resolve(GraphToFlat, ...).
func (c *Catalog) Outputs(level flat.Level, stateAbbrev string) []Binding {
	return c.Resolve(GraphToFlat, level, stateAbbrev)
}

func (c *Catalog) resolveInputs(state string) []Binding {
	out := make([]Binding, 0, len(c.inputs))

	for _, e := range c.inputs {
		variable := e.variable

		if len(e.states) > 0 {
			if !slices.Contains(e.states, state) {
				continue
			}

			variable = Substitute(variable, state)
		}

		out = append(out, Binding{
			Kind:         e.kind,
			Variables:    []string{variable},
			Constant:     e.value,
			Entity:       e.entity,
			Inputs:       e.fields,
			SpouseInputs: e.spouseFields,
			Split:        e.split,
		})
	}

	return out
}

func (c *Catalog) resolveOutputs(level flat.Level, state string) []Binding {
	out := make([]Binding, 0, len(c.outputs))

	for _, e := range c.outputs {
		if !e.levels.Contains(level) {
			continue
		}

		b := Binding{Kind: e.kind, Field: e.field}

		switch e.kind {
		case KindSynthesized:
			b.Source = e.source
		case KindPlaceholder:
			b.Constant = 0
		case KindOverridden:
			targets := e.variables

			if ov, ok := e.overrides.For(state); ok && ov.IsImplemented() {
				targets = ov.Variable
			}

			if len(targets) == 1 && targets[0] == Placeholder {
				b.Kind = KindPlaceholder
				break
			}

			b.Variables = substituteAll(targets, state)
		case KindSum, KindStateTemplated, KindDirect:
			b.Variables = substituteAll(e.variables, state)
		default:
			panic(fmt.Sprintf("catalog: unhandled kind %v for %s", e.kind, e.field))
		}

		out = append(out, b)
	}

	return out
}

func substituteAll(variables []string, state string) []string {
	out := make([]string, len(variables))
	for i, v := range variables {
		out[i] = Substitute(v, state)
	}

	return out
}

// Columns returns the output columns produced at a level, in catalog order.
func (c *Catalog) Columns(level flat.Level) []string {
	var cols []string

	for _, e := range c.outputs {
		if e.levels.Contains(level) {
			cols = append(cols, e.field)
		}
	}

	return cols
}

// Variables returns the distinct engine variables needed to extract the
// given level for the given state, in first-use order.
func (c *Catalog) Variables(level flat.Level, stateAbbrev string) []string {
	seen := map[string]struct{}{}

	var vars []string

	for _, b := range c.Outputs(level, stateAbbrev) {
		for _, v := range b.Variables {
			if _, ok := seen[v]; ok {
				continue
			}

			seen[v] = struct{}{}
			vars = append(vars, v)
		}
	}

	return vars
}

// EntityOf returns the entity an output variable is defined at. Variables
// not listed as person variables are tax-unit variables.
func (c *Catalog) EntityOf(variable string) Entity {
	if _, ok := c.person[variable]; ok {
		return EntityPerson
	}

	return EntityTaxUnit
}
