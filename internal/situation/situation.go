package situation

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Entity and member names used in every situation.
const (
	PrimaryName     = "you"
	SpouseName      = "your partner"
	FamilyName      = "your family"
	HouseholdName   = "your household"
	TaxUnitName     = "your tax unit"
	SPMUnitName     = "your household"
	MaritalUnitName = "your marital unit"
)

// Variable names set by the builder itself.
const (
	VarAge                 = "age"
	VarEmploymentIncome    = "employment_income"
	VarIsTaxUnitHead       = "is_tax_unit_head"
	VarIsTaxUnitSpouse     = "is_tax_unit_spouse"
	VarIsTaxUnitDependent  = "is_tax_unit_dependent"
	VarStateName           = "state_name"
	VarMaritalUnitID       = "marital_unit_id"
	VarSALT                = "state_and_local_sales_or_income_tax"
	VarW2WagesFromBusiness = "w2_wages_from_qualified_business"
)

var ordinals = [...]string{
	"first", "second", "third", "fourth", "fifth", "sixth",
	"seventh", "eighth", "ninth", "tenth", "eleventh",
}

// Ordinal returns the English ordinal word for n (1-based).
func Ordinal(n int) string {
	if n >= 1 && n <= len(ordinals) {
		return ordinals[n-1]
	}

	return strconv.Itoa(n) + "th"
}

// DependentName returns the member name of the i-th dependent (1-based).
func DependentName(i int) string {
	return "your " + Ordinal(i) + " dependent"
}

// DependentMaritalUnitName returns the name of the i-th dependent's marital unit.
func DependentMaritalUnitName(i int) string {
	return DependentName(i) + "'s marital unit"
}

// Values maps variable names to {period: value}.
type Values map[string]map[string]any

// Set stores value for variable in period.
func (v Values) Set(variable, period string, value any) {
	v[variable] = map[string]any{period: value}
}

// Get returns the value of variable in period.
func (v Values) Get(variable, period string) (any, bool) {
	byPeriod, ok := v[variable]
	if !ok {
		return nil, false
	}

	value, ok := byPeriod[period]

	return value, ok
}

// Group is a grouping entity: its members plus its own variables.
type Group struct {
	Members []string
	Values  Values
}

// NewGroup returns a group with a copy of members.
func NewGroup(members []string) *Group {
	return &Group{Members: slices.Clone(members), Values: Values{}}
}

// MarshalJSON writes {"members": [...], "<variable>": {...}, ...}.
func (g *Group) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(g.Values)+1)
	for k, v := range g.Values {
		out[k] = v
	}

	out["members"] = g.Members

	return json.Marshal(out)
}

// UnmarshalJSON reads the layout written by MarshalJSON.
func (g *Group) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	g.Values = Values{}

	for k, msg := range raw {
		if k == "members" {
			err = json.Unmarshal(msg, &g.Members)
		} else {
			var byPeriod map[string]any

			err = json.Unmarshal(msg, &byPeriod)
			g.Values[k] = byPeriod
		}

		if err != nil {
			return fmt.Errorf("group field %q: %w", k, err)
		}
	}

	return nil
}

// Situation is the entity graph of one flat record.
type Situation struct {
	People       map[string]Values `json:"people"`
	Families     map[string]*Group `json:"families"`
	Households   map[string]*Group `json:"households"`
	TaxUnits     map[string]*Group `json:"tax_units"`
	SPMUnits     map[string]*Group `json:"spm_units"`
	MaritalUnits map[string]*Group `json:"marital_units"`

	year int
}

// Year returns the tax year the situation was built for.
func (s *Situation) Year() int {
	return s.year
}

// Period returns the period key used for every value.
func (s *Situation) Period() string {
	return strconv.Itoa(s.year)
}

// Members returns the person names in membership order.
func (s *Situation) Members() []string {
	if tu, ok := s.TaxUnits[TaxUnitName]; ok {
		return slices.Clone(tu.Members)
	}

	return slices.Sorted(maps.Keys(s.People))
}

// PersonCount returns the number of people.
func (s *Situation) PersonCount() int {
	return len(s.People)
}

// Person returns the variables of a person.
func (s *Situation) Person(name string) (Values, bool) {
	v, ok := s.People[name]
	return v, ok
}

// PersonValue returns one variable of one person for the situation's year.
func (s *Situation) PersonValue(name, variable string) (any, bool) {
	v, ok := s.People[name]
	if !ok {
		return nil, false
	}

	return v.Get(variable, s.Period())
}

// TaxUnit returns the single tax unit.
func (s *Situation) TaxUnit() *Group {
	return s.TaxUnits[TaxUnitName]
}

// SPMUnit returns the single SPM unit.
func (s *Situation) SPMUnit() *Group {
	return s.SPMUnits[SPMUnitName]
}

// Household returns the single household.
func (s *Situation) Household() *Group {
	return s.Households[HouseholdName]
}

// MaritalUnitNames returns the marital unit names: the primary unit first,
// then dependents' units in dependent order.
func (s *Situation) MaritalUnitNames() []string {
	names := make([]string, 0, len(s.MaritalUnits))
	if _, ok := s.MaritalUnits[MaritalUnitName]; ok {
		names = append(names, MaritalUnitName)
	}

	for i := 1; len(names) < len(s.MaritalUnits); i++ {
		name := DependentMaritalUnitName(i)
		if _, ok := s.MaritalUnits[name]; !ok {
			break
		}

		names = append(names, name)
	}

	return names
}

// Number converts a stored value to float64. Booleans map to 0 and 1;
// anything else that is not numeric reports false.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}

		return 0, true
	default:
		return 0, false
	}
}
