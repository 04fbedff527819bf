package match

import "sort"

// DefaultSuggestionScore is the minimum normalized similarity for a name to
// be offered as a suggestion.
const DefaultSuggestionScore = 0.6

// Suggest returns up to limit candidates that look like name, best first.
// Candidates scoring below minScore are dropped; ties keep candidate order.
func Suggest(name string, candidates []string, limit int, minScore float64) []string {
	type scored struct {
		name  string
		score float64
	}

	var ranked []scored

	for _, c := range candidates {
		if c == name {
			continue
		}

		score := NormalizedLevenshteinScore(name, c)
		if score < minScore {
			continue
		}

		ranked = append(ranked, scored{name: c, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.name
	}

	return out
}
