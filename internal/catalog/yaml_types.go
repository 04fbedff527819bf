package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"taxbridge/internal/flat"
)

// StringOrArray is a list of names written either as one scalar or as a sequence.
type StringOrArray []string

// --- StringOrArray YAML methods ---

// UnmarshalYAML implements custom YAML unmarshaling for StringOrArray.
// Accepts either a single string or an array of strings.
func (s *StringOrArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string

		err := node.Decode(&str)
		if err != nil {
			return err
		}

		if str != "" {
			*s = StringOrArray{str}
		} else {
			*s = StringOrArray{}
		}

		return nil

	case yaml.SequenceNode:
		var arr []string

		err := node.Decode(&arr)
		if err != nil {
			return err
		}

		*s = arr

		return nil

	default:
		return fmt.Errorf("line %d: expected string or array, got %v", node.Line, node.Kind)
	}
}

// MarshalYAML implements custom YAML marshaling for StringOrArray.
// Outputs a single string if length is 1, otherwise an array.
func (s StringOrArray) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}

	return []string(s), nil
}

// First returns the first element or empty string if empty.
func (s StringOrArray) First() string {
	if len(s) == 0 {
		return ""
	}

	return s[0]
}

// IsEmpty returns true if the array is empty.
func (s StringOrArray) IsEmpty() bool {
	return len(s) == 0
}

// IsSingle returns true if the array has exactly one element.
func (s StringOrArray) IsSingle() bool {
	return len(s) == 1
}

// IsMultiple returns true if the array has more than one element.
func (s StringOrArray) IsMultiple() bool {
	return len(s) > 1
}

// Contains returns true if the array contains the given string.
func (s StringOrArray) Contains(str string) bool {
	return slices.Contains(s, str)
}

// --- LevelSet YAML methods ---

// LevelSet is the set of output-detail levels an entry applies to.
type LevelSet []flat.Level

// UnmarshalYAML accepts:
//   - a single level: 2
//   - a list of levels: [0, 2]
//   - a list of named levels: [{standard_output: 0}, {full_output: 2}]
func (l *LevelSet) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var level int

		err := node.Decode(&level)
		if err != nil {
			return fmt.Errorf("line %d: invalid level: %w", node.Line, err)
		}

		*l = LevelSet{flat.Level(level)}

		return nil

	case yaml.SequenceNode:
		levels := make(LevelSet, 0, len(node.Content))

		for _, item := range node.Content {
			level, err := parseLevel(item)
			if err != nil {
				return err
			}

			levels = append(levels, level)
		}

		*l = levels

		return nil

	default:
		return fmt.Errorf("line %d: expected level or list of levels, got %v", node.Line, node.Kind)
	}
}

// parseLevel reads one sequence item: either 2 or {full_output: 2}.
func parseLevel(node *yaml.Node) (flat.Level, error) {
	target := node

	if node.Kind == yaml.MappingNode {
		if len(node.Content) != 2 {
			return 0, fmt.Errorf("line %d: expected single key-value map like {full_output: 2}", node.Line)
		}

		target = node.Content[1]
	}

	var level int

	err := target.Decode(&level)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid level: %w", target.Line, err)
	}

	return flat.Level(level), nil
}

// MarshalYAML writes the levels as a plain list.
func (l LevelSet) MarshalYAML() (any, error) {
	out := make([]int, len(l))
	for i, level := range l {
		out[i] = int(level)
	}

	return out, nil
}

// Contains reports whether level is in the set.
func (l LevelSet) Contains(level flat.Level) bool {
	return slices.Contains(l, level)
}

// --- Overrides YAML methods ---

// Overrides is the list of per-state replacements of an output entry.
type Overrides []Override

// UnmarshalYAML accepts:
//   - a list of single-key maps: [{wa: {variable: x}}, {nh: x}]
//   - a list of explicit objects: [{state: wa, variable: x}]
//   - a map keyed by state: {wa: {variable: x}}
func (o *Overrides) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		result := make(Overrides, 0, len(node.Content))

		for _, item := range node.Content {
			if item.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: expected map in special_cases, got %v", item.Line, item.Kind)
			}

			if hasKey(item, "state") {
				var ov Override

				err := item.Decode(&ov)
				if err != nil {
					return err
				}

				result = append(result, ov)

				continue
			}

			if len(item.Content) != 2 {
				return fmt.Errorf("line %d: expected single key-value map like {wa: {variable: x}}", item.Line)
			}

			ov, err := parseOverride(item.Content[0], item.Content[1])
			if err != nil {
				return err
			}

			result = append(result, ov)
		}

		*o = result

		return nil

	case yaml.MappingNode:
		result := make(Overrides, 0, len(node.Content)/2)

		for i := 0; i+1 < len(node.Content); i += 2 {
			ov, err := parseOverride(node.Content[i], node.Content[i+1])
			if err != nil {
				return err
			}

			result = append(result, ov)
		}

		sort.SliceStable(result, func(i, j int) bool {
			return result[i].State < result[j].State
		})

		*o = result

		return nil

	default:
		return fmt.Errorf("line %d: expected list or map for special_cases, got %v", node.Line, node.Kind)
	}
}

// parseOverride reads {state: body} where body is a variable name or an object.
func parseOverride(key, body *yaml.Node) (Override, error) {
	var state string

	err := key.Decode(&state)
	if err != nil {
		return Override{}, fmt.Errorf("line %d: invalid state key: %w", key.Line, err)
	}

	ov := Override{State: state}

	switch body.Kind {
	case yaml.ScalarNode, yaml.SequenceNode:
		err = body.Decode(&ov.Variable)
	case yaml.MappingNode:
		var fields struct {
			Variable    StringOrArray `yaml:"variable"`
			Implemented *bool         `yaml:"implemented"`
		}

		err = body.Decode(&fields)
		ov.Variable = fields.Variable
		ov.Implemented = fields.Implemented
	default:
		err = errors.New("expected variable name or map")
	}

	if err != nil {
		return Override{}, fmt.Errorf("line %d: special case %q: %w", body.Line, state, err)
	}

	return ov, nil
}

func hasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if strings.EqualFold(node.Content[i].Value, key) {
			return true
		}
	}

	return false
}

// For returns the override for a lower-case state abbreviation.
func (o Overrides) For(state string) (Override, bool) {
	for _, ov := range o {
		if ov.State == state {
			return ov, true
		}
	}

	return Override{}, false
}
