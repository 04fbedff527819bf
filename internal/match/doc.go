// Package match scores how alike two catalog names are and turns the scores
// into "did you mean" suggestions for validation diagnostics.
//
// Names are compared after folding case and dropping separators, so
// "State_AGI" and "stateagi" are identical.
package match
