// Package diagnostic provides structured errors, warnings and notes produced
// while checking a mapping catalog.
//
// Each diagnostic carries:
//   - a stable code (e.g. "unknown_flat_field") usable in tests and tooling
//   - the catalog entry it concerns ("output v32", "input rent")
//   - the offending attribute path inside that entry
//   - optional "did you mean" suggestions
package diagnostic
