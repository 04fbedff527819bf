// Package normalize fills in missing flat-schema fields and rewrites legacy
// inputs into the current layout.
//
// # Defaults
//
// Every defaulted field carries an explicit Policy:
//
//   - ZeroIsMissing: an absent field and a field holding 0 both receive the
//     default. Used where 0 is not a meaningful value: state (there is no
//     state 0), mstat (no filing status 0), year, page and sage (a primary
//     or secondary taxpayer aged 0 is a data-entry gap, not an infant filer).
//   - ZeroIsValue: only an absent field receives the default; 0 is kept.
//     Used for depx (no dependents), idtl (0 is the standard output level)
//     and taxsimid (0 is a valid identifier).
//
// # Legacy dependent counts
//
// Older inputs describe dependents with three cumulative counts: dep13
// (under 13), dep17 (under 17) and dep18 (under 18). When any of them is
// present and no individual age is set, the counts are expanded into
// age1..ageN: 10 for each child under 13, 15 for each child 13-16, 17 for
// each 17-year-old and AdultDependentAge (19 unless configured) for every
// dependent beyond dep18. The counts are removed afterwards, which makes the
// conversion idempotent.
//
// Finally every present dependent age that is 0 or NaN becomes 10.
package normalize
