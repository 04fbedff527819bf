package catalog

import "strings"

// StatePlaceholder is replaced by the lower-case state abbreviation.
const StatePlaceholder = "state"

// Placeholder is the sentinel variable for columns the engine does not
// compute; they resolve to a constant zero.
const Placeholder = "placeholder"

// HasPlaceholder reports whether a variable name is state-templated, that
// is whether one of its underscore-separated words is the placeholder.
// "real_estate_taxes" is not templated.
func HasPlaceholder(variable string) bool {
	for word := range strings.SplitSeq(variable, "_") {
		if word == StatePlaceholder {
			return true
		}
	}

	return false
}

// Substitute replaces every placeholder word with the lower-case abbreviation.
func Substitute(variable, stateAbbrev string) string {
	if !HasPlaceholder(variable) {
		return variable
	}

	words := strings.Split(variable, "_")
	for i, word := range words {
		if word == StatePlaceholder {
			words[i] = strings.ToLower(stateAbbrev)
		}
	}

	return strings.Join(words, "_")
}
