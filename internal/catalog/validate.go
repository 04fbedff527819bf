package catalog

import (
	"fmt"
	"strings"

	"taxbridge/internal/diagnostic"
	"taxbridge/internal/flat"
	"taxbridge/internal/match"
)

// StateSet tells validation which state abbreviations exist.
type StateSet interface {
	IsKnown(abbrev string) bool
	Abbreviations() []string
}

// Validate checks a catalog document for structural problems.
// States may be nil, in which case state keys are not checked.
func Validate(f *File, states StateSet) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if f == nil {
		res.AddError("catalog_is_nil", "catalog file is nil", "", "")
		return res
	}

	for i := range f.Input {
		validateInput(res, &f.Input[i], i, states)
	}

	validateZeroOverrides(res, f.ZeroOverrides)

	seenFields := map[string]int{}

	for i := range f.Output {
		out := &f.Output[i]
		entry := outputEntryName(out, i)

		if out.Field == "" {
			res.AddError("missing_field", "output entry has no field name", entry, "field")
			continue
		}

		if first, ok := seenFields[out.Field]; ok {
			res.AddError("duplicate_output_field",
				fmt.Sprintf("field %q already declared by output[%d]", out.Field, first), entry, "field")

			continue
		}

		seenFields[out.Field] = i

		validateOutput(res, out, entry, states)
	}

	for i, v := range f.PersonVariables {
		if v == "" || v == Placeholder || HasPlaceholder(v) {
			res.AddError("invalid_person_variable",
				fmt.Sprintf("%q cannot be listed as a person variable", v),
				fmt.Sprintf("person_variables[%d]", i), "person_variables")
		}
	}

	return res
}

func inputEntryName(in *InputEntry, i int) string {
	if in.Variable == "" {
		return fmt.Sprintf("input[%d]", i)
	}

	return "input " + in.Variable
}

func outputEntryName(out *OutputEntry, i int) string {
	if out.Field == "" {
		return fmt.Sprintf("output[%d]", i)
	}

	return "output " + out.Field
}

func validateInput(res *diagnostic.Diagnostics, in *InputEntry, i int, states StateSet) {
	entry := inputEntryName(in, i)

	if in.Variable == "" {
		res.AddError("missing_variable", "input entry has no variable", entry, "variable")
	}

	if !in.Entity.IsValid() {
		res.AddError("invalid_entity",
			fmt.Sprintf("entity %q is not one of %q, %q", in.Entity, EntityPerson, EntityTaxUnit), entry, "entity")
	}

	switch {
	case in.Value == nil && in.Fields.IsEmpty() && in.SpouseFields.IsEmpty():
		res.AddError("missing_source", "input entry needs fields or a value", entry, "fields")
	case in.Value != nil && (!in.Fields.IsEmpty() || !in.SpouseFields.IsEmpty()):
		res.AddError("conflicting_source", "input entry has both fields and a value", entry, "value")
	}

	validateFlatFields(res, in.Fields, entry, "fields")
	validateFlatFields(res, in.SpouseFields, entry, "spouse_fields")

	if in.Entity == EntityTaxUnit {
		if !in.SpouseFields.IsEmpty() {
			res.AddError("spouse_fields_on_tax_unit", "spouse_fields only apply to person entries", entry, "spouse_fields")
		}

		if in.Split {
			res.AddWarning("split_ignored", "split only applies to person entries", entry, "split")
		}
	}

	if in.Split && !in.SpouseFields.IsEmpty() {
		res.AddError("split_with_spouse_fields", "split and spouse_fields are mutually exclusive", entry, "split")
	}

	for _, s := range in.States {
		validateState(res, s, entry, "states", states)
	}

	if !in.States.IsEmpty() && !HasPlaceholder(in.Variable) {
		res.AddWarning("scoped_without_placeholder",
			fmt.Sprintf("variable %q is state-scoped but has no %q placeholder", in.Variable, StatePlaceholder),
			entry, "variable")
	}
}

func validateFlatFields(res *diagnostic.Diagnostics, fields StringOrArray, entry, path string) {
	for _, name := range fields {
		if _, err := flat.ParseField(name); err != nil {
			suggestions := match.Suggest(name, flat.FieldNames(), 3, match.DefaultSuggestionScore)
			res.AddError("unknown_flat_field", fmt.Sprintf("unknown flat field %q", name), entry, path, suggestions...)
		}
	}
}

func validateState(res *diagnostic.Diagnostics, abbrev, entry, path string, states StateSet) {
	if states == nil || states.IsKnown(abbrev) {
		return
	}

	candidates := make([]string, 0, 51)
	for _, a := range states.Abbreviations() {
		candidates = append(candidates, strings.ToLower(a))
	}

	suggestions := match.Suggest(abbrev, candidates, 3, 0.5)
	res.AddError("unknown_state", fmt.Sprintf("unknown state %q", abbrev), entry, path, suggestions...)
}

func validateZeroOverrides(res *diagnostic.Diagnostics, z ZeroOverrides) {
	check := func(kind string, names []string) {
		seen := map[string]struct{}{}

		for _, name := range names {
			if name == "" {
				res.AddError("empty_zero_override", "zero override has no variable name", "zero_overrides", kind)
				continue
			}

			if _, ok := seen[name]; ok {
				res.AddWarning("duplicate_zero_override",
					fmt.Sprintf("variable %q listed twice", name), "zero_overrides", kind)
			}

			seen[name] = struct{}{}
		}
	}

	check("person", z.Person)
	check("spm_unit", z.SPMUnit)
}

func validateOutput(res *diagnostic.Diagnostics, out *OutputEntry, entry string, states StateSet) {
	switch out.Source {
	case SourceEngine:
	case SourceInput:
		if _, ok := synthesizedSources[out.Field]; !ok {
			res.AddError("unsupported_synthesized_field",
				fmt.Sprintf("only %s, %s and %s can be copied from the input", flat.ColumnID, flat.ColumnYear, flat.ColumnState),
				entry, "source")
		}
	default:
		res.AddError("invalid_source",
			fmt.Sprintf("source %q is not one of %q, %q", out.Source, SourceEngine, SourceInput), entry, "source")
	}

	if !out.IsImplemented() {
		res.AddInfo("not_implemented", "entry is excluded from resolution", entry, "implemented")
		return
	}

	if out.Source == SourceEngine && out.Variable.IsEmpty() {
		res.AddError("missing_variable", "implemented entry has no variable", entry, "variable")
	}

	validateTargets(res, out.Variable, entry, "variable")

	if len(out.Levels) == 0 {
		res.AddWarning("no_levels", "entry is not produced at any output level", entry, "idtl")
	}

	for _, level := range out.Levels {
		if !level.IsKnown() {
			res.AddError("unknown_level",
				fmt.Sprintf("level %d is not one of %d, %d, %d", level, flat.LevelStandard, flat.LevelFull, flat.LevelText),
				entry, "idtl")
		}
	}

	seen := map[string]struct{}{}

	for i := range out.Overrides {
		ov := &out.Overrides[i]
		path := "special_cases." + ov.State

		validateState(res, ov.State, entry, path, states)

		if _, ok := seen[ov.State]; ok {
			res.AddError("duplicate_override", fmt.Sprintf("state %q overridden twice", ov.State), entry, path)
		}

		seen[ov.State] = struct{}{}

		if ov.IsImplemented() && ov.Variable.IsEmpty() {
			res.AddError("missing_variable", "implemented override has no variable", entry, path)
		}

		validateTargets(res, ov.Variable, entry, path)
	}
}

func validateTargets(res *diagnostic.Diagnostics, targets StringOrArray, entry, path string) {
	if targets.IsMultiple() && targets.Contains(Placeholder) {
		res.AddError("placeholder_in_sum", "the placeholder sentinel cannot be summed with other variables", entry, path)
	}

	for _, v := range targets {
		if strings.TrimSpace(v) == "" {
			res.AddError("empty_variable", "variable name is empty", entry, path)
		}
	}
}
