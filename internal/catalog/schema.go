package catalog

// File represents the root of a YAML catalog document.
type File struct {
	// Version of the catalog schema.
	Version string `yaml:"version,omitempty"`

	// Input lists the flat-schema columns copied onto the entity graph.
	Input []InputEntry `yaml:"input"`

	// ZeroOverrides lists engine variables forced to zero at every entity
	// of the given kind.
	ZeroOverrides ZeroOverrides `yaml:"zero_overrides"`

	// Output lists the flat-schema output columns and where they come from.
	Output []OutputEntry `yaml:"output"`

	// PersonVariables are output variables the engine defines per person.
	// Their values are summed over each tax unit's members.
	PersonVariables []string `yaml:"person_variables,omitempty"`
}

// Entity names a grouping level of the entity graph.
type Entity string

// Entities that input entries may target.
const (
	EntityPerson  Entity = "person"
	EntityTaxUnit Entity = "tax_unit"
)

// IsValid reports whether e is a supported input target.
func (e Entity) IsValid() bool {
	return e == EntityPerson || e == EntityTaxUnit
}

// InputEntry maps flat columns onto one engine variable.
type InputEntry struct {
	// Variable is the engine variable to populate.
	Variable string `yaml:"variable"`

	// Entity is where the variable lives (person or tax_unit).
	Entity Entity `yaml:"entity"`

	// Fields are flat columns summed into the variable. For person entries
	// the sum goes to the primary person.
	Fields StringOrArray `yaml:"fields,omitempty"`

	// SpouseFields are flat columns summed into the secondary person.
	SpouseFields StringOrArray `yaml:"spouse_fields,omitempty"`

	// Split halves the primary sum between both spouses on joint returns.
	Split bool `yaml:"split,omitempty"`

	// Value sets a constant instead of reading columns.
	Value *float64 `yaml:"value,omitempty"`

	// States restricts the entry to these lower-case abbreviations. Scoped
	// entries have the "state" placeholder in Variable substituted.
	States StringOrArray `yaml:"states,omitempty"`

	// Description is free text for maintainers.
	Description string `yaml:"description,omitempty"`
}

// ZeroOverrides lists variables forced to zero per entity kind.
type ZeroOverrides struct {
	Person  []string `yaml:"person,omitempty"`
	SPMUnit []string `yaml:"spm_unit,omitempty"`
}

// Sources for output entries.
const (
	SourceEngine = "engine"
	SourceInput  = "input"
)

// OutputEntry maps engine variables onto one flat output column.
type OutputEntry struct {
	// Field is the flat output column name.
	Field string `yaml:"field"`

	// Variable is one engine variable, a list that is summed, or the
	// placeholder sentinel.
	Variable StringOrArray `yaml:"variable,omitempty"`

	// Source is "engine" (default) or "input" for columns copied from the
	// input record (taxsimid, year, state).
	Source string `yaml:"source,omitempty"`
	// Implemented false removes the entry from resolution.
	Implemented *bool `yaml:"implemented,omitempty"`

	// Levels lists the output-detail levels the column is produced at.
	Levels LevelSet `yaml:"idtl"`

	// Overrides replace Variable for specific states.
	Overrides Overrides `yaml:"special_cases,omitempty"`

	// Description is free text for maintainers.
	Description string `yaml:"description,omitempty"`
}

// IsImplemented reports whether the entry takes part in resolution.
func (e *OutputEntry) IsImplemented() bool {
	return e.Implemented == nil || *e.Implemented
}

// Override replaces an output entry's variable for one state.
type Override struct {
	// State is the lower-case abbreviation.
	State string `yaml:"state"`
	// Variable replaces the entry's variable; may contain "state".
	Variable StringOrArray `yaml:"variable,omitempty"`
	// Implemented false keeps the entry's own variable for this state.
	Implemented *bool `yaml:"implemented,omitempty"`
}

// IsImplemented reports whether the override replaces the variable.
func (o *Override) IsImplemented() bool {
	return o.Implemented == nil || *o.Implemented
}
